package dto

import (
	"time"

	"github.com/noah-isme/idcard-api/internal/models"
)

// ThemeRequest selects a preset by name.
type ThemeRequest struct {
	Name string `json:"name" validate:"required"`
}

// ColorRequest carries a raw CSS color for one channel.
type ColorRequest struct {
	Value string `json:"value" validate:"required"`
}

// SchemeRequest replaces all four channels at once.
type SchemeRequest struct {
	Primary   string `json:"primary" validate:"required"`
	Secondary string `json:"secondary" validate:"required"`
	Accent    string `json:"accent" validate:"required"`
	Text      string `json:"text" validate:"required"`
}

// Scheme converts the request to a model scheme.
func (r SchemeRequest) Scheme() models.ColorScheme {
	return models.ColorScheme{Primary: r.Primary, Secondary: r.Secondary, Accent: r.Accent, Text: r.Text}
}

// AvatarStatus describes the session's portrait.
type AvatarStatus struct {
	Seed       string `json:"seed"`
	Generation uint64 `json:"generation"`
	Ready      bool   `json:"ready"`
}

// ViewStatus is the presentation state of the card.
type ViewStatus struct {
	Flipped  bool `json:"flipped"`
	Rotation int  `json:"rotation"`
}

// CardResponse is the client-facing view of a session.
type CardResponse struct {
	Record    models.StudentRecord `json:"record"`
	Scheme    models.ColorScheme   `json:"scheme"`
	View      ViewStatus           `json:"view"`
	Avatar    AvatarStatus         `json:"avatar"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewCardResponse projects an app state onto the response, leaving credentials and raw images out.
func NewCardResponse(st models.AppState) CardResponse {
	return CardResponse{
		Record: st.Record,
		Scheme: st.Scheme,
		View:   ViewStatus{Flipped: st.View.Flipped, Rotation: st.View.Rotation()},
		Avatar: AvatarStatus{
			Seed:       st.Avatar.Seed,
			Generation: st.Avatar.Generation,
			Ready:      st.Avatar.Ready(),
		},
		UpdatedAt: st.UpdatedAt,
	}
}
