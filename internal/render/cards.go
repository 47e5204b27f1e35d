package render

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"memberreports/internal/logger"
	"memberreports/internal/model"
)

// cardGrid is the page layout for one cards_per_page setting, in inches.
type cardGrid struct {
	cols, rows    int
	width, height float64
}

func gridFor(perPage int) cardGrid {
	if perPage == 10 {
		return cardGrid{cols: 2, rows: 5, width: 3.38, height: 2.13}
	}
	return cardGrid{cols: 2, rows: 4, width: 3.5, height: 2.25}
}

func (g cardGrid) size() int { return g.cols * g.rows }

const (
	logoWidth  = 2.7
	logoHeight = 0.5
	qrSize     = 0.7
	cardPad    = 0.1
	parentMax  = 20
)

func encodeQR(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 256)
}

// QRContent is the string encoded in a card's QR code.
func QRContent(org string, c model.Card) string {
	return strings.Join([]string{org, c.StudentID, c.Name, c.AcademicYear}, "|")
}

func (r *Renderer) cardsPDF(w io.Writer, p model.Payload) error {
	pdf, tr := r.newDocument()
	pdf.SetTitle(tr(p.Title), false)
	pdf.SetAutoPageBreak(false, 0)

	grid := gridFor(p.CardsPerPage)
	pageW, pageH := pdf.GetPageSize()
	originX := (pageW - float64(grid.cols)*grid.width) / 2
	originY := (pageH - float64(grid.rows)*grid.height) / 2

	if r.logo != nil {
		pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: r.logo.Type}, bytes.NewReader(r.logo.Data))
	}

	if len(p.Cards) == 0 {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 0.4, "No members match the selected filters.", "", 1, "C", false, 0, "")
	}

	for start := 0; start < len(p.Cards); start += grid.size() {
		pdf.AddPage()
		for slot := 0; slot < grid.size(); slot++ {
			x := originX + float64(slot%grid.cols)*grid.width
			y := originY + float64(slot/grid.cols)*grid.height
			i := start + slot
			if i >= len(p.Cards) {
				pdf.SetDrawColor(225, 225, 225)
				pdf.SetLineWidth(0.005)
				pdf.Rect(x, y, grid.width, grid.height, "D")
				continue
			}
			r.drawCard(pdf, tr, p.Cards[i], x, y, grid)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (r *Renderer) drawCard(pdf *fpdf.Fpdf, tr func(string) string, c model.Card, x, y float64, grid cardGrid) {
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.01)
	pdf.Rect(x, y, grid.width, grid.height, "D")

	logoW := logoWidth
	if limit := grid.width - 2*cardPad; logoW > limit {
		logoW = limit
	}
	lx, ly := x+(grid.width-logoW)/2, y+cardPad
	if r.logo != nil {
		pdf.ImageOptions("logo", lx, ly, logoW, logoHeight, false, fpdf.ImageOptions{ImageType: r.logo.Type}, 0, "")
	} else {
		pdf.SetDrawColor(180, 180, 180)
		pdf.Rect(lx, ly, logoW, logoHeight, "D")
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(150, 150, 150)
		pdf.SetXY(lx, ly)
		pdf.CellFormat(logoW, logoHeight, "LOGO", "", 0, "C", false, 0, "")
	}

	textW := grid.width - 2*cardPad
	if c.IncludeQRCode {
		textW -= qrSize + cardPad
	}
	ty := ly + logoHeight + 0.15

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x+cardPad, ty)
	pdf.CellFormat(textW, 0.2, fit(tr(c.Name), textW, pdf.GetStringWidth), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 139)
	pdf.SetXY(x+cardPad, ty+0.25)
	info := fmt.Sprintf("ID: %s | Grade: %s | %s", c.StudentID, c.Grade, c.AcademicYear)
	pdf.CellFormat(textW, 0.15, fit(tr(info), textW, pdf.GetStringWidth), "", 0, "L", false, 0, "")

	if c.ParentName != "" {
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(110, 110, 110)
		pdf.SetXY(x+cardPad, ty+0.45)
		pdf.CellFormat(textW, 0.15, tr("Parent: "+truncateRunes(c.ParentName, parentMax)), "", 0, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)

	if c.IncludeQRCode {
		r.drawQR(pdf, c, x+grid.width-cardPad-qrSize, y+grid.height-cardPad-qrSize)
	}
}

// drawQR places the card's QR code. Encoding failures leave the card
// without a code.
func (r *Renderer) drawQR(pdf *fpdf.Fpdf, c model.Card, x, y float64) {
	img, err := r.qr(QRContent(r.orgCode, c))
	if err == nil {
		_, err = png.DecodeConfig(bytes.NewReader(img))
	}
	if err != nil {
		logger.Debug("qr code skipped", "student_id", c.StudentID, "err", err)
		return
	}
	name := "qr-" + c.StudentID
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img)); info == nil || pdf.Err() {
		return
	}
	pdf.ImageOptions(name, x, y, qrSize, qrSize, false, opts, 0, "")
}
