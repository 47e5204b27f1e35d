// Package render turns report payloads into PDF and spreadsheet documents.
package render

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

// Document is a rendered report file.
type Document struct {
	Bytes       []byte
	Filename    string
	ContentType string
}

// Logo is an image drawn at the top of each ID card.
type Logo struct {
	Data []byte
	// Type is the fpdf image type, "PNG" or "JPG".
	Type string
}

// Options configures a Renderer.
type Options struct {
	// OrgCode prefixes the QR payload of ID cards.
	OrgCode  string
	Logo     *Logo
	Location *time.Location
	Now      func() time.Time
	// QREncoder returns a PNG for content. Defaults to a go-qrcode encoder.
	QREncoder func(content string) ([]byte, error)
}

// Renderer renders payloads. It holds no per-call state and is safe for
// concurrent use.
type Renderer struct {
	orgCode  string
	logo     *Logo
	loc      *time.Location
	now      func() time.Time
	qr       func(string) ([]byte, error)
	// compress deflates PDF page streams; off only for inspecting output
	compress bool
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		orgCode:  opts.OrgCode,
		logo:     opts.Logo,
		loc:      opts.Location,
		now:      opts.Now,
		qr:       opts.QREncoder,
		compress: true,
	}
	if r.orgCode == "" {
		r.orgCode = "ORG"
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.qr == nil {
		r.qr = encodeQR
	}
	return r
}

// Render builds the document for p in format. Card payloads only render to
// PDF; asking for a spreadsheet is a validation error.
func (r *Renderer) Render(p model.Payload, format model.OutputFormat) (Document, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch {
	case p.IsCards() && format != model.FormatPDF:
		return Document{}, fmt.Errorf("%w: %s supports PDF only", apperr.ErrValidation, p.ReportID)
	case p.IsCards():
		err = r.cardsPDF(&buf, p)
	case format == model.FormatPDF:
		err = r.tablePDF(&buf, p)
	case format == model.FormatExcel:
		err = r.workbook(&buf, p)
	default:
		return Document{}, fmt.Errorf("%w: unsupported output format %q", apperr.ErrValidation, format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s as %s: %v", apperr.ErrRender, p.ReportID, format, err)
	}

	name := Filename(p.ReportID, format, r.now().In(r.loc))
	return Document{
		Bytes:       buf.Bytes(),
		Filename:    name,
		ContentType: model.ContentTypeFor(name),
	}, nil
}

// Filename returns "{report_id}_{YYYYMMDD_HHMMSS}.{ext}".
func Filename(reportID string, format model.OutputFormat, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", reportID, at.Format("20060102_150405"), format.Extension())
}

// LoadLogo reads a PNG or JPEG logo from path. An empty path returns nil.
func LoadLogo(path string) (*Logo, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	switch ct := http.DetectContentType(data); {
	case strings.HasPrefix(ct, "image/png"):
		return &Logo{Data: data, Type: "PNG"}, nil
	case strings.HasPrefix(ct, "image/jpeg"):
		return &Logo{Data: data, Type: "JPG"}, nil
	default:
		return nil, fmt.Errorf("logo %s: unsupported image type %s", path, ct)
	}
}
