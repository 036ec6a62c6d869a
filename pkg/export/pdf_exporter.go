package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ISO/IEC 7810 ID-1 card size in millimetres, scaled for print readability.
const (
	cardWidthMM  = 85.6 * 1.5
	cardHeightMM = 53.98 * 1.5
)

// Image is one PNG placed on the sheet.
type Image struct {
	Name string
	PNG  []byte
}

// PDFExporter lays card faces out on a printable A4 sheet.
type PDFExporter struct {
	title string
}

// NewPDFExporter constructs a PDF exporter with the given sheet title.
func NewPDFExporter(title string) *PDFExporter {
	return &PDFExporter{title: title}
}

// Render places each image centred on the page, stacked top to bottom.
func (e *PDFExporter) Render(images ...Image) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("pdf requires at least one image")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetTitle(e.title, true)
	pdf.AddPage()

	if e.title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(e.title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pageW, _ := pdf.GetPageSize()
	x := (pageW - cardWidthMM) / 2
	y := pdf.GetY()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for i, img := range images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("face-%d", i)
		}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.PNG))
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("register image %s: %w", name, err)
		}
		pdf.ImageOptions(name, x, y, cardWidthMM, cardHeightMM, false, opts, 0, "")
		y += cardHeightMM + 10
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
