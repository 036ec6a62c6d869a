package service

import (
	"fmt"
	"image/color"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/pkg/colorconv"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
	"github.com/noah-isme/idcard-api/pkg/render"
)

// DefaultThemeName is the scheme a new session starts with.
const DefaultThemeName = "purple"

var themeCatalog = []models.Theme{
	{Name: "purple", Scheme: models.ColorScheme{Primary: "#8B5CF6", Secondary: "#000000", Accent: "#A78BFA", Text: "#FFFFFF"}},
	{Name: "blue", Scheme: models.ColorScheme{Primary: "#3B82F6", Secondary: "#1E3A8A", Accent: "#60A5FA", Text: "#FFFFFF"}},
	{Name: "green", Scheme: models.ColorScheme{Primary: "#10B981", Secondary: "#064E3B", Accent: "#34D399", Text: "#FFFFFF"}},
	{Name: "red", Scheme: models.ColorScheme{Primary: "#EF4444", Secondary: "#7F1D1D", Accent: "#F87171", Text: "#FFFFFF"}},
	{Name: "orange", Scheme: models.ColorScheme{Primary: "#F59E0B", Secondary: "#78350F", Accent: "#FBBF24", Text: "#FFFFFF"}},
	{Name: "dark", Scheme: models.ColorScheme{Primary: "#374151", Secondary: "#111827", Accent: "#6B7280", Text: "#F9FAFB"}},
}

// ThemeService resolves presets and single channel edits of a color scheme.
type ThemeService struct{}

// NewThemeService constructs the theme engine.
func NewThemeService() *ThemeService {
	return &ThemeService{}
}

// Themes lists the catalog in display order.
func (s *ThemeService) Themes() []models.Theme {
	out := make([]models.Theme, len(themeCatalog))
	copy(out, themeCatalog)
	return out
}

// DefaultScheme is the scheme of DefaultThemeName.
func (s *ThemeService) DefaultScheme() models.ColorScheme {
	scheme, _ := s.ApplyTheme(models.ColorScheme{}, DefaultThemeName)
	return scheme
}

// ApplyTheme returns the named preset. Unknown names leave the scheme unchanged and report false.
func (s *ThemeService) ApplyTheme(current models.ColorScheme, name string) (models.ColorScheme, bool) {
	for _, theme := range themeCatalog {
		if theme.Name == name {
			return theme.Scheme, true
		}
	}
	return current, false
}

// SetChannel normalizes raw and replaces exactly one channel.
func (s *ThemeService) SetChannel(current models.ColorScheme, channel models.Channel, raw string) (models.ColorScheme, error) {
	next, ok := current.With(channel, colorconv.Normalize(raw))
	if !ok {
		return current, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown color channel %q", channel))
	}
	return next, nil
}

// NormalizeScheme runs every channel through the normalizer.
func (s *ThemeService) NormalizeScheme(scheme models.ColorScheme) models.ColorScheme {
	return models.ColorScheme{
		Primary:   colorconv.Normalize(scheme.Primary),
		Secondary: colorconv.Normalize(scheme.Secondary),
		Accent:    colorconv.Normalize(scheme.Accent),
		Text:      colorconv.Normalize(scheme.Text),
	}
}

// Palette resolves the scheme to drawable colors.
func (s *ThemeService) Palette(scheme models.ColorScheme) render.Palette {
	return render.Palette{
		Primary:   opaque(scheme.Primary),
		Secondary: opaque(scheme.Secondary),
		Accent:    opaque(scheme.Accent),
		Text:      opaque(scheme.Text),
	}
}

// FrontGradient runs primary at 0x20 alpha through secondary at 0x80 and back.
func (s *ThemeService) FrontGradient(scheme models.ColorScheme) []render.Stop {
	return []render.Stop{
		{Offset: 0, Color: colorconv.WithAlpha(scheme.Primary, 0x20)},
		{Offset: 0.5, Color: colorconv.WithAlpha(scheme.Secondary, 0x80)},
		{Offset: 1, Color: colorconv.WithAlpha(scheme.Primary, 0x20)},
	}
}

// BackGradient runs secondary through primary at 0x80 alpha and back.
func (s *ThemeService) BackGradient(scheme models.ColorScheme) []render.Stop {
	return []render.Stop{
		{Offset: 0, Color: opaque(scheme.Secondary)},
		{Offset: 0.5, Color: colorconv.WithAlpha(scheme.Primary, 0x80)},
		{Offset: 1, Color: opaque(scheme.Secondary)},
	}
}

func opaque(hex string) color.NRGBA {
	return colorconv.WithAlpha(hex, 0xff)
}
