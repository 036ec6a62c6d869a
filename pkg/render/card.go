// Package render draws the ID card faces into raster images.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Logical card size in points; output pixels are this times the pixel ratio.
const (
	CardWidth  = 400.0
	CardHeight = 252.0
	cornerR    = 16.0
	border     = 3.0
)

// ErrInvalidPixelRatio is returned for a non-positive pixel ratio.
var ErrInvalidPixelRatio = errors.New("render: pixel ratio must be positive")

// Palette is a scheme resolved to drawable colors.
type Palette struct {
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color
	Text      color.Color
}

// Stop is one color stop of a linear gradient.
type Stop struct {
	Offset float64
	Color  color.Color
}

// Field is a labelled line of card text.
type Field struct {
	Label string
	Value string
}

// Options control a capture.
type Options struct {
	PixelRatio float64
	Background color.Color
	// Mirrored draws the face as seen through a half turn about the vertical axis.
	Mirrored bool
}

// FrontFace is the identity side of the card.
type FrontFace struct {
	Palette  Palette
	Gradient []Stop
	Title    string
	Name     string
	ID       string
	Fields   []Field
	Stars    int
	MaxStars int
	Score    string
	Avatar   image.Image
}

// BackFace is the verification side of the card.
type BackFace struct {
	Palette  Palette
	Gradient []Stop
	Caption  string
	QR       image.Image
	Fields   []Field
}

type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

var (
	fontsOnce sync.Once
	fonts     fontSet
	fontsErr  error
)

func loadFonts() (fontSet, error) {
	fontsOnce.Do(func() {
		regular, err := truetype.Parse(goregular.TTF)
		if err != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", err)
			return
		}
		bold, err := truetype.Parse(gobold.TTF)
		if err != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", err)
			return
		}
		fonts = fontSet{regular: regular, bold: bold}
	})
	return fonts, fontsErr
}

func (f fontSet) face(bold bool, size float64) font.Face {
	tt := f.regular
	if bold {
		tt = f.bold
	}
	return truetype.NewFace(tt, &truetype.Options{Size: size, Hinting: font.HintingFull})
}

// Draw renders the front face.
func (f FrontFace) Draw(opt Options) (image.Image, error) {
	dc, fs, err := begin(opt)
	if err != nil {
		return nil, err
	}

	cardShape(dc, f.Palette, f.Gradient)

	dc.SetColor(f.Palette.Text)
	dc.SetFontFace(fs.face(true, 11))
	dc.DrawString(f.Title, 22, 30)

	const cx, cy, r = 78.0, 122.0, 46.0
	dc.SetColor(f.Palette.Secondary)
	dc.DrawCircle(cx, cy, r)
	dc.Fill()
	if f.Avatar != nil {
		dc.Push()
		dc.DrawCircle(cx, cy, r)
		dc.Clip()
		b := f.Avatar.Bounds()
		scale := 2 * r / math.Max(float64(b.Dx()), float64(b.Dy()))
		dc.Translate(cx-r, cy-r)
		dc.Scale(scale, scale)
		dc.DrawImage(f.Avatar, 0, 0)
		dc.ResetClip()
		dc.Pop()
	}
	dc.SetColor(f.Palette.Accent)
	dc.SetLineWidth(4)
	dc.DrawCircle(cx, cy, r+2)
	dc.Stroke()

	const left = 146.0
	width := CardWidth - left - 20
	dc.SetColor(f.Palette.Text)
	dc.SetFontFace(fs.face(true, 17))
	dc.DrawString(fit(dc, f.Name, width), left, 66)
	dc.SetFontFace(fs.face(false, 11))
	dc.DrawString(fit(dc, f.ID, width), left, 84)

	y := 108.0
	for _, field := range f.Fields {
		dc.SetFontFace(fs.face(true, 9))
		label := field.Label + ": "
		lw, _ := dc.MeasureString(label)
		dc.DrawString(label, left, y)
		dc.SetFontFace(fs.face(false, 9))
		dc.DrawString(fit(dc, field.Value, width-lw), left+lw, y)
		y += 17
	}

	starY := 214.0
	for i := 0; i < f.MaxStars; i++ {
		star(dc, left+9+float64(i)*20, starY, 8, 3.6)
		if i < f.Stars {
			dc.SetColor(f.Palette.Accent)
			dc.Fill()
		} else {
			dc.SetColor(f.Palette.Text)
			dc.SetLineWidth(1.2)
			dc.Stroke()
		}
	}
	dc.SetColor(f.Palette.Text)
	dc.SetFontFace(fs.face(true, 11))
	dc.DrawString(f.Score, left+float64(f.MaxStars)*20+8, starY+4)

	return dc.Image(), nil
}

// Draw renders the back face.
func (b BackFace) Draw(opt Options) (image.Image, error) {
	dc, fs, err := begin(opt)
	if err != nil {
		return nil, err
	}

	cardShape(dc, b.Palette, b.Gradient)

	const qrSize = 150.0
	qx, qy := 24.0, (CardHeight-qrSize)/2
	if b.QR != nil {
		bounds := b.QR.Bounds()
		dc.Push()
		dc.Translate(qx, qy)
		dc.Scale(qrSize/float64(bounds.Dx()), qrSize/float64(bounds.Dy()))
		dc.DrawImage(b.QR, 0, 0)
		dc.Pop()
	}

	left := qx + qrSize + 20
	width := CardWidth - left - 20
	dc.SetColor(b.Palette.Text)
	dc.SetFontFace(fs.face(true, 13))
	dc.DrawString(fit(dc, b.Caption, width), left, 80)

	y := 112.0
	for _, field := range b.Fields {
		dc.SetFontFace(fs.face(true, 9))
		dc.DrawString(field.Label, left, y)
		dc.SetFontFace(fs.face(false, 9))
		dc.DrawString(fit(dc, field.Value, width), left, y+13)
		y += 34
	}

	return dc.Image(), nil
}

// PNG encodes img.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func begin(opt Options) (*gg.Context, fontSet, error) {
	if opt.PixelRatio <= 0 || math.IsNaN(opt.PixelRatio) || math.IsInf(opt.PixelRatio, 0) {
		return nil, fontSet{}, ErrInvalidPixelRatio
	}
	fs, err := loadFonts()
	if err != nil {
		return nil, fontSet{}, err
	}
	w := int(math.Round(CardWidth * opt.PixelRatio))
	h := int(math.Round(CardHeight * opt.PixelRatio))
	dc := gg.NewContext(w, h)
	if opt.Background != nil {
		dc.SetColor(opt.Background)
		dc.Clear()
	}
	dc.Scale(opt.PixelRatio, opt.PixelRatio)
	if opt.Mirrored {
		dc.Translate(CardWidth, 0)
		dc.Scale(-1, 1)
	}
	return dc, fs, nil
}

func cardShape(dc *gg.Context, p Palette, stops []Stop) {
	// Gradients are evaluated in device pixels.
	grad := gg.NewLinearGradient(0, 0, float64(dc.Width()), float64(dc.Height()))
	for _, s := range stops {
		grad.AddColorStop(s.Offset, s.Color)
	}
	dc.DrawRoundedRectangle(border/2, border/2, CardWidth-border, CardHeight-border, cornerR)
	if len(stops) > 0 {
		dc.SetFillStyle(grad)
	} else {
		dc.SetColor(p.Secondary)
	}
	dc.FillPreserve()
	dc.SetColor(p.Primary)
	dc.SetLineWidth(border)
	dc.Stroke()
}

func star(dc *gg.Context, x, y, outer, inner float64) {
	dc.NewSubPath()
	for i := 0; i < 10; i++ {
		radius := outer
		if i%2 == 1 {
			radius = inner
		}
		angle := -math.Pi/2 + float64(i)*math.Pi/5
		px, py := x+radius*math.Cos(angle), y+radius*math.Sin(angle)
		if i == 0 {
			dc.MoveTo(px, py)
		} else {
			dc.LineTo(px, py)
		}
	}
	dc.ClosePath()
}

func fit(dc *gg.Context, s string, width float64) string {
	if s == "" {
		return s
	}
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, _ := dc.MeasureString(candidate); w <= width {
			return candidate
		}
	}
	return string(runes)
}
