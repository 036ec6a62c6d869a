// Package colorconv turns the color strings accepted by the card theme
// (hex, rgb/rgba, lab, lch, oklab, oklch) into canonical hex.
package colorconv

import (
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Fallback is returned for any input that cannot be interpreted.
const Fallback = "#FFFFFF"

var (
	hexPattern    = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?%?`)
)

// bradfordD50ToD65 adapts CIE XYZ from the D50 white point used by CSS lab()/lch() to D65.
var bradfordD50ToD65 = [3][3]float64{
	{0.955473421488075, -0.02309845494876471, 0.06325924320057072},
	{-0.0283697093338637, 1.0099953980813041, 0.021041441191917323},
	{0.012314014864481998, -0.020507649298898964, 1.330365926242124},
}

// IsHex reports whether s is a #RGB or #RRGGBB literal.
func IsHex(s string) bool {
	return hexPattern.MatchString(s)
}

// Normalize converts input to a hex color string. Hex input is returned as is,
// everything unrecognised becomes Fallback.
func Normalize(input string) string {
	if IsHex(input) {
		return input
	}

	raw := strings.ToLower(strings.TrimSpace(input))
	switch {
	case strings.HasPrefix(raw, "rgb"):
		if hex, ok := fromRGBFunc(raw); ok {
			return hex
		}
	case strings.Contains(raw, "oklab("), strings.Contains(raw, "oklch("),
		strings.Contains(raw, "lab("), strings.Contains(raw, "lch("):
		if c, ok := fromPerceptual(raw); ok {
			r, g, b := c.Clamped().RGB255()
			return Pack(int(r), int(g), int(b))
		}
	}

	return Fallback
}

// Pack renders three 0-255 channels as #rrggbb. Out of range channels are clamped.
func Pack(r, g, b int) string {
	v := 1<<24 | clampByte(r)<<16 | clampByte(g)<<8 | clampByte(b)
	return "#" + strconv.FormatInt(int64(v), 16)[1:]
}

// ParseHex decodes #RGB, #RRGGBB or #RRGGBBAA into an RGBA color.
func ParseHex(s string) (color.RGBA, error) {
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("color %q: missing #", s)
	}
	digits := s[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) == 6 {
		digits += "ff"
	}
	if len(digits) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: unsupported length", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// WithAlpha parses hex and replaces its alpha. Unparseable input yields white.
func WithAlpha(hex string, alpha uint8) color.NRGBA {
	c, err := ParseHex(hex)
	if err != nil {
		c = color.RGBA{R: 0xff, G: 0xff, B: 0xff}
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

func fromRGBFunc(raw string) (string, bool) {
	parts := numberPattern.FindAllString(raw, -1)
	if len(parts) < 3 {
		return "", false
	}
	var ch [3]int
	for i := 0; i < 3; i++ {
		v, pct, err := parseComponent(parts[i])
		if err != nil {
			return "", false
		}
		if pct {
			v = v * 255 / 100
		}
		ch[i] = int(math.Round(v))
	}
	return Pack(ch[0], ch[1], ch[2]), true
}

func fromPerceptual(raw string) (colorful.Color, bool) {
	open := strings.IndexByte(raw, '(')
	closing := strings.LastIndexByte(raw, ')')
	if open < 0 || closing < open {
		return colorful.Color{}, false
	}
	fn := strings.TrimSpace(raw[:open])
	args := cssArgs(raw[open+1 : closing])
	if len(args) < 3 {
		return colorful.Color{}, false
	}

	// Percent references per CSS Color 4: lab a/b 125, lch C 150, oklab a/b and oklch C 0.4.
	switch {
	case strings.HasSuffix(fn, "oklab"):
		l, ok1 := cssNumber(args[0], 1)
		a, ok2 := cssNumber(args[1], 0.4)
		b, ok3 := cssNumber(args[2], 0.4)
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.OkLab(l, a, b), true
	case strings.HasSuffix(fn, "oklch"):
		l, ok1 := cssNumber(args[0], 1)
		c, ok2 := cssNumber(args[1], 0.4)
		h, ok3 := cssHue(args[2])
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.OkLch(l, c, h), true
	case strings.HasSuffix(fn, "lab"):
		l, ok1 := cssNumber(args[0], 100)
		a, ok2 := cssNumber(args[1], 125)
		b, ok3 := cssNumber(args[2], 125)
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return labD50(l, a, b), true
	case strings.HasSuffix(fn, "lch"):
		l, ok1 := cssNumber(args[0], 100)
		c, ok2 := cssNumber(args[1], 150)
		h, ok3 := cssHue(args[2])
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		rad := h * math.Pi / 180
		return labD50(l, c*math.Cos(rad), c*math.Sin(rad)), true
	}
	return colorful.Color{}, false
}

// labD50 converts CSS lab() coordinates (L 0-100) to sRGB.
func labD50(l, a, b float64) colorful.Color {
	x, y, z := colorful.LabToXyzWhiteRef(l/100, a/100, b/100, colorful.D50)
	m := bradfordD50ToD65
	return colorful.Xyz(
		m[0][0]*x+m[0][1]*y+m[0][2]*z,
		m[1][0]*x+m[1][1]*y+m[1][2]*z,
		m[2][0]*x+m[2][1]*y+m[2][2]*z,
	)
}

// cssArgs splits the body of a color function, dropping the optional "/ alpha" part.
func cssArgs(body string) []string {
	if idx := strings.IndexByte(body, '/'); idx >= 0 {
		body = body[:idx]
	}
	return strings.FieldsFunc(body, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
}

func cssNumber(token string, percentRef float64) (float64, bool) {
	if token == "none" {
		return 0, true
	}
	v, pct, err := parseComponent(token)
	if err != nil {
		return 0, false
	}
	if pct {
		v = v / 100 * percentRef
	}
	return v, true
}

func cssHue(token string) (float64, bool) {
	if token == "none" {
		return 0, true
	}
	scale := 1.0
	switch {
	case strings.HasSuffix(token, "deg"):
		token = strings.TrimSuffix(token, "deg")
	case strings.HasSuffix(token, "grad"):
		token, scale = strings.TrimSuffix(token, "grad"), 0.9
	case strings.HasSuffix(token, "rad"):
		token, scale = strings.TrimSuffix(token, "rad"), 180/math.Pi
	case strings.HasSuffix(token, "turn"):
		token, scale = strings.TrimSuffix(token, "turn"), 360
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v * scale, true
}

func parseComponent(token string) (float64, bool, error) {
	pct := strings.HasSuffix(token, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(token, "%"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("invalid component %q", token)
	}
	return v, pct, nil
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
