// Package avatar draws deterministic cartoon portraits from a seed string.
package avatar

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Seeds is the fixed pool avatars are drawn from.
var Seeds = []string{
	"alpha", "bravo", "charlie", "delta", "echo",
	"foxtrot", "golf", "hotel", "india", "juliet",
}

// Size is the width and height of the SVG viewBox.
const Size = 200

var (
	backgrounds = []string{"#F87171", "#FBBF24", "#34D399", "#60A5FA", "#A78BFA", "#F472B6", "#2DD4BF", "#FB923C"}
	skins       = []string{"#FDE7D6", "#F5C9A8", "#E0A979", "#C68642", "#8D5524", "#5C3A21"}
	hairs       = []string{"#1F1300", "#3B2314", "#6B4226", "#B5651D", "#E6BE8A", "#A1A1AA", "#7C3AED"}
	shirts      = []string{"#1D4ED8", "#047857", "#B91C1C", "#6D28D9", "#0F766E", "#374151"}
)

// SVG returns the portrait for seed. The same seed always yields the same document.
func SVG(seed string) []byte {
	sum := sha256.Sum256([]byte(seed))
	pick := func(i int, palette []string) string {
		return palette[int(sum[i])%len(palette)]
	}

	bg := pick(0, backgrounds)
	skin := pick(1, skins)
	hair := pick(2, hairs)
	shirt := pick(3, shirts)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, Size, Size, Size, Size)
	fmt.Fprintf(&b, `<circle cx="100" cy="100" r="100" fill="%s"/>`, bg)
	fmt.Fprintf(&b, `<path d="M30 200 C30 150 60 135 100 135 C140 135 170 150 170 200 Z" fill="%s"/>`, shirt)
	fmt.Fprintf(&b, `<rect x="88" y="118" width="24" height="22" fill="%s"/>`, skin)
	fmt.Fprintf(&b, `<ellipse cx="100" cy="88" rx="42" ry="48" fill="%s"/>`, skin)
	b.WriteString(hairPath(sum[4], hair))

	eyeY := 84 + int(sum[5]%6)
	eyeGap := 14 + int(sum[6]%6)
	fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="5" fill="#111827"/>`, 100-eyeGap, eyeY)
	fmt.Fprintf(&b, `<circle cx="%d" cy="%d" r="5" fill="#111827"/>`, 100+eyeGap, eyeY)
	b.WriteString(mouthPath(sum[7]))
	if sum[8]%3 == 0 {
		fmt.Fprintf(&b, `<path d="M%d %d h%d M%d %d h%d M%d %d h%d" stroke="#111827" stroke-width="3" fill="none"/>`,
			100-eyeGap-9, eyeY, 18, 100+eyeGap-9, eyeY, 18, 100-eyeGap+9, eyeY, 2*eyeGap-18)
	}
	b.WriteString(`</svg>`)
	return []byte(b.String())
}

func hairPath(v byte, fill string) string {
	switch v % 4 {
	case 0:
		return fmt.Sprintf(`<path d="M58 80 C58 40 142 40 142 80 C130 62 70 62 58 80 Z" fill="%s"/>`, fill)
	case 1:
		return fmt.Sprintf(`<path d="M54 96 C46 36 154 36 146 96 L138 70 C120 56 80 56 62 70 Z" fill="%s"/>`, fill)
	case 2:
		return fmt.Sprintf(`<circle cx="100" cy="44" r="18" fill="%s"/><path d="M58 78 C62 46 138 46 142 78 C124 64 76 64 58 78 Z" fill="%s"/>`, fill, fill)
	default:
		return fmt.Sprintf(`<path d="M56 84 C50 50 80 36 100 42 C120 36 150 50 144 84 C132 70 110 60 100 62 C90 60 68 70 56 84 Z" fill="%s"/>`, fill)
	}
}

func mouthPath(v byte) string {
	switch v % 3 {
	case 0:
		return `<path d="M84 108 Q100 124 116 108" stroke="#7F1D1D" stroke-width="4" fill="none" stroke-linecap="round"/>`
	case 1:
		return `<path d="M86 110 Q100 118 114 110 Z" fill="#7F1D1D"/>`
	default:
		return `<path d="M88 112 H112" stroke="#7F1D1D" stroke-width="4" stroke-linecap="round"/>`
	}
}
