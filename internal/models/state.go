package models

import "time"

// CardView is the presentation state of the flip card.
type CardView struct {
	Flipped bool `json:"flipped"`
	// Captures counts exports in progress; the flip transform is suspended while it is non-zero.
	Captures int `json:"captures_in_progress"`
}

// Rotation is the effective turn of the card in degrees.
func (v CardView) Rotation() int {
	if v.Flipped && v.Captures == 0 {
		return 180
	}
	return 0
}

// Avatar is the generated portrait of a session. PNG stays empty until rasterized.
type Avatar struct {
	Seed       string `json:"seed"`
	SVG        []byte `json:"-"`
	PNG        []byte `json:"-"`
	Generation uint64 `json:"generation"`
}

// Ready reports whether the raster form is available.
func (a Avatar) Ready() bool {
	return len(a.PNG) > 0
}

// AppState is everything the service keeps for one logged-in card holder.
type AppState struct {
	Session   Session       `json:"session"`
	Record    StudentRecord `json:"record"`
	Scheme    ColorScheme   `json:"scheme"`
	View      CardView      `json:"view"`
	Avatar    Avatar        `json:"avatar"`
	UpdatedAt time.Time     `json:"updated_at"`
}
