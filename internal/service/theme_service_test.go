package service

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/pkg/colorconv"
	appErrors "github.com/noah-isme/idcard-api/pkg/errors"
)

func purpleScheme() models.ColorScheme {
	return models.ColorScheme{Primary: "#8B5CF6", Secondary: "#000000", Accent: "#A78BFA", Text: "#FFFFFF"}
}

func TestThemeServiceDefaultIsPurple(t *testing.T) {
	svc := NewThemeService()
	assert.Equal(t, purpleScheme(), svc.DefaultScheme())
}

func TestThemeServiceApplyBlue(t *testing.T) {
	svc := NewThemeService()
	scheme, ok := svc.ApplyTheme(purpleScheme(), "blue")
	require.True(t, ok)
	assert.Equal(t, models.ColorScheme{Primary: "#3B82F6", Secondary: "#1E3A8A", Accent: "#60A5FA", Text: "#FFFFFF"}, scheme)
}

func TestThemeServiceApplyUnknownIsNoop(t *testing.T) {
	svc := NewThemeService()
	current := models.ColorScheme{Primary: "#123456", Secondary: "#000", Accent: "#fff", Text: "#abcdef"}
	scheme, ok := svc.ApplyTheme(current, "neon")
	assert.False(t, ok)
	assert.Equal(t, current, scheme)
}

func TestThemeServiceCatalog(t *testing.T) {
	svc := NewThemeService()
	themes := svc.Themes()
	names := make([]string, 0, len(themes))
	for _, th := range themes {
		names = append(names, th.Name)
		for _, ch := range models.Channels {
			v, _ := th.Scheme.Get(ch)
			assert.True(t, colorconv.IsHex(v), th.Name)
		}
	}
	assert.Equal(t, []string{"purple", "blue", "green", "red", "orange", "dark"}, names)

	themes[0].Scheme.Primary = "#000000"
	assert.Equal(t, "#8B5CF6", svc.Themes()[0].Scheme.Primary)
}

func TestThemeServiceSetChannel(t *testing.T) {
	svc := NewThemeService()
	scheme, err := svc.SetChannel(purpleScheme(), models.ChannelAccent, "rgb(10, 11, 12)")
	require.NoError(t, err)
	assert.Equal(t, "#0a0b0c", scheme.Accent)
	assert.Equal(t, "#8B5CF6", scheme.Primary)
	assert.Equal(t, "#000000", scheme.Secondary)
	assert.Equal(t, "#FFFFFF", scheme.Text)

	scheme, err = svc.SetChannel(purpleScheme(), models.ChannelText, "not a color")
	require.NoError(t, err)
	assert.Equal(t, colorconv.Fallback, scheme.Text)

	_, err = svc.SetChannel(purpleScheme(), models.Channel("border"), "#fff")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestThemeServiceGradients(t *testing.T) {
	svc := NewThemeService()
	scheme := purpleScheme()

	front := svc.FrontGradient(scheme)
	require.Len(t, front, 3)
	assert.Equal(t, color.NRGBA{R: 0x8B, G: 0x5C, B: 0xF6, A: 0x20}, front[0].Color)
	assert.Equal(t, color.NRGBA{A: 0x80}, front[1].Color)
	assert.Equal(t, front[0].Color, front[2].Color)

	back := svc.BackGradient(scheme)
	require.Len(t, back, 3)
	assert.Equal(t, color.NRGBA{A: 0xff}, back[0].Color)
	assert.Equal(t, color.NRGBA{R: 0x8B, G: 0x5C, B: 0xF6, A: 0x80}, back[1].Color)
}
