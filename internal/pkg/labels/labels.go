package labels

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// A4 sheet with 3x8 labels, sized for common adhesive label paper.
const (
	sheetMargin = 10.0 // mm
	labelCols   = 3
	labelRows   = 8
	qrSizeMM    = 24.0
	qrSizePx    = 256
)

// Label is one printable bin label.
type Label struct {
	BinName  string
	Location string
	QRSlug   string
}

// Generator renders QR label sheets as PDF. BaseURL is the public origin the
// QR codes resolve against, e.g. https://boxbin.example.com.
type Generator struct {
	BaseURL string
}

// NewGenerator creates a label generator for a public base URL.
func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// ScanURL is the address a printed label resolves to.
func (g *Generator) ScanURL(slug string) string {
	return g.BaseURL + "/b/" + slug
}

// Generate renders one or more A4 sheets covering all labels, in order.
func (g *Generator) Generate(labels []Label) ([]byte, error) {
	if len(labels) == 0 {
		return nil, errors.New("at least one label is required")
	}
	if g.BaseURL == "" {
		return nil, errors.New("label base url is not configured")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("BoxBin Labels", false)

	pageWidth, pageHeight := pdf.GetPageSize()
	labelWidth := (pageWidth - 2*sheetMargin) / labelCols
	labelHeight := (pageHeight - 2*sheetMargin) / labelRows

	perSheet := labelCols * labelRows
	for i, label := range labels {
		if label.QRSlug == "" {
			return nil, fmt.Errorf("label %d has no QR slug", i)
		}
		if i%perSheet == 0 {
			pdf.AddPage()
		}

		slot := i % perSheet
		x := sheetMargin + float64(slot%labelCols)*labelWidth
		y := sheetMargin + float64(slot/labelCols)*labelHeight

		if err := g.drawLabel(pdf, label, x, y, labelWidth, labelHeight); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("label PDF output error: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) drawLabel(pdf *fpdf.Fpdf, label Label, x, y, w, h float64) error {
	png, err := qrcode.Encode(g.ScanURL(label.QRSlug), qrcode.Medium, qrSizePx)
	if err != nil {
		return fmt.Errorf("QR encode for %s failed: %w", label.QRSlug, err)
	}

	imageName := "qr-" + label.QRSlug
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(png))

	// Cut line.
	pdf.SetDrawColor(220, 220, 220)
	pdf.Rect(x, y, w, h, "D")

	qrY := y + (h-qrSizeMM)/2
	pdf.ImageOptions(imageName, x+2, qrY, qrSizeMM, qrSizeMM, false, opts, 0, "")

	textX := x + qrSizeMM + 4
	textW := w - qrSizeMM - 6

	pdf.SetXY(textX, y+h/2-8)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(textW, 6, truncate(label.BinName, 24), "", 2, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(textW, 5, truncate(label.Location, 28), "", 2, "L", false, 0, "")

	pdf.SetFont("Courier", "", 7)
	pdf.CellFormat(textW, 4, truncate(label.QRSlug, 36), "", 2, "L", false, 0, "")

	return nil
}

// truncate limits s to max runes so umlauts and other multi-byte
// characters never get cut mid-rune.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
