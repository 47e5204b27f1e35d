package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

var renderedAt = time.Date(2024, 1, 15, 14, 30, 5, 0, time.UTC)

func testRenderer(opts Options) *Renderer {
	opts.Location = time.UTC
	opts.Now = func() time.Time { return renderedAt }
	return New(opts)
}

func rosterPayload() model.Payload {
	return model.Payload{
		ReportID: "student_roster",
		Title:    "Student Roster Report",
		Rows: []model.Row{
			{{Key: "student_id", Value: "S00001"}, {Key: "name", Value: "Ava Brown"}, {Key: "grade", Value: "3"}, {Key: "status", Value: "Active"}},
			{{Key: "student_id", Value: "S00002"}, {Key: "name", Value: "Ben Cole"}, {Key: "grade", Value: "4"}, {Key: "status", Value: "Active"}},
		},
		Summary: []model.SummaryEntry{
			{Key: "total_students", Value: 2},
			{Key: "filters", Children: []model.Field{{Key: "status", Value: "Active"}, {Key: "include_contact", Value: false}}},
		},
	}
}

func cardsPayload(n, perPage int) model.Payload {
	p := model.Payload{
		ReportID:       "member_id_cards",
		Title:          "Member ID Cards - 2024-2025",
		CardsPerPage:   perPage,
		IncludeQRCode:  true,
		AcademicYear:   "2024-2025",
		EstimatedPages: (n + perPage - 1) / perPage,
	}
	for i := 0; i < n; i++ {
		p.Cards = append(p.Cards, model.Card{
			StudentID:     "S0000" + string(rune('1'+i%9)),
			Name:          "Member With A Fairly Long Display Name",
			Grade:         "3",
			Status:        model.StatusActive,
			ParentName:    "Parent Name That Overflows The Card",
			AcademicYear:  "2024-2025",
			IncludeQRCode: true,
		})
	}
	return p
}

// plainPDF renders p with uncompressed page streams so drawn text can be
// matched as "(text)Tj" operators.
func plainPDF(t *testing.T, p model.Payload) string {
	t.Helper()
	r := testRenderer(Options{})
	r.compress = false
	doc, err := r.Render(p, model.FormatPDF)
	require.NoError(t, err)
	return string(doc.Bytes)
}

func pageCount(pdf string) int {
	return strings.Count(pdf, "<</Type /Page\n")
}

func drawn(text string) string {
	return "(" + text + ")Tj"
}

func openWorkbook(t *testing.T, doc Document) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(doc.Bytes))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRenderExcel(t *testing.T) {
	doc, err := testRenderer(Options{}).Render(rosterPayload(), model.FormatExcel)
	require.NoError(t, err)
	assert.Equal(t, "student_roster_20240115_143005.xlsx", doc.Filename)
	assert.Equal(t, model.ContentTypeXLSX, doc.ContentType)

	f := openWorkbook(t, doc)
	assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"student_id", "name", "grade", "status"},
		{"S00001", "Ava Brown", "3", "Active"},
		{"S00002", "Ben Cole", "4", "Active"},
	}, rows)

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Category", "Metric", "Value"},
		{"General", "Total Students", "2"},
		{"Filters", "Status", "Active"},
		{"Filters", "Include Contact", "false"},
	}, summary)
}

func TestRenderExcelWithoutRowsHasOnlySummary(t *testing.T) {
	p := rosterPayload()
	p.Rows = nil
	doc, err := testRenderer(Options{}).Render(p, model.FormatExcel)
	require.NoError(t, err)

	f := openWorkbook(t, doc)
	assert.Equal(t, []string{"Summary"}, f.GetSheetList())
}

func TestRenderPDF(t *testing.T) {
	doc, err := testRenderer(Options{}).Render(rosterPayload(), model.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF")))
	assert.Equal(t, "student_roster_20240115_143005.pdf", doc.Filename)
	assert.Equal(t, model.ContentTypePDF, doc.ContentType)
}

func TestRenderPDFManyRowsAndEmpty(t *testing.T) {
	p := rosterPayload()
	for i := 0; i < 120; i++ {
		p.Rows = append(p.Rows, p.Rows[i%2])
	}
	doc, err := testRenderer(Options{}).Render(p, model.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF")))

	p.Rows = nil
	doc, err = testRenderer(Options{}).Render(p, model.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF")))
}

func TestRenderPDFContent(t *testing.T) {
	out := plainPDF(t, rosterPayload())

	assert.Equal(t, 1, pageCount(out))
	for _, text := range []string{
		"Student Roster Report",
		"Generated on 2024-01-15 14:30:05",
		"Summary",
		"Total Students: ",
		"2",
		"Filters:",
		"- Status: Active",
		"- Include Contact: false",
		"Detailed Data",
		"student_id",
		"name",
		"grade",
		"status",
		"Ava Brown",
	} {
		assert.Contains(t, out, drawn(text))
	}
	// Header cells follow the first row's key order.
	assert.Less(t, strings.Index(out, drawn("student_id")), strings.Index(out, drawn("name")))
	assert.Less(t, strings.Index(out, drawn("grade")), strings.Index(out, drawn("status")))
}

func TestRenderPDFWithoutRowsOmitsTable(t *testing.T) {
	p := rosterPayload()
	p.Rows = nil
	out := plainPDF(t, p)

	assert.Equal(t, 1, pageCount(out))
	assert.Contains(t, out, drawn("Total Students: "))
	assert.NotContains(t, out, drawn("Detailed Data"))
	assert.NotContains(t, out, drawn("student_id"))
}

func TestRenderPDFRepeatsHeaderOnEachPage(t *testing.T) {
	p := rosterPayload()
	for i := 0; i < 120; i++ {
		p.Rows = append(p.Rows, p.Rows[i%2])
	}
	out := plainPDF(t, p)

	pages := pageCount(out)
	assert.Greater(t, pages, 1)
	assert.Equal(t, pages, strings.Count(out, drawn("student_id")))
	assert.Equal(t, 1, strings.Count(out, drawn("Detailed Data")))
}

func TestRenderCardsPagination(t *testing.T) {
	tests := []struct {
		cards, perPage, pages int
	}{
		{11, 10, 2},
		{10, 10, 1},
		{11, 8, 2},
		{16, 8, 2},
		{17, 8, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d cards at %d per page", tt.cards, tt.perPage), func(t *testing.T) {
			out := plainPDF(t, cardsPayload(tt.cards, tt.perPage))
			assert.Equal(t, tt.pages, pageCount(out))
			// Only filled slots get a card face; trailing slots stay blank.
			assert.Equal(t, tt.cards, strings.Count(out, drawn("LOGO")))
		})
	}
}

func TestRenderCardsFillRowMajor(t *testing.T) {
	p := cardsPayload(3, 8)
	for i, name := range []string{"First", "Second", "Third"} {
		p.Cards[i].Name = name
	}
	out := plainPDF(t, p)

	first := strings.Index(out, drawn("First"))
	second := strings.Index(out, drawn("Second"))
	third := strings.Index(out, drawn("Third"))
	require.True(t, first >= 0 && second > first && third > second)

	// The first two cards share a row; the third starts the next one.
	td := func(at int) string {
		bt := strings.LastIndex(out[:at], "BT ")
		return strings.Fields(out[bt:at])[2]
	}
	assert.Equal(t, td(first), td(second))
	assert.NotEqual(t, td(second), td(third))
}

func TestRenderCards(t *testing.T) {
	var (
		mu       sync.Mutex
		contents []string
	)
	r := testRenderer(Options{OrgCode: "SCH", QREncoder: func(s string) ([]byte, error) {
		mu.Lock()
		contents = append(contents, s)
		mu.Unlock()
		return encodeQR(s)
	}})

	for _, perPage := range []int{8, 10} {
		doc, err := r.Render(cardsPayload(11, perPage), model.FormatPDF)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF")))
		assert.Equal(t, "member_id_cards_20240115_143005.pdf", doc.Filename)
	}
	require.Len(t, contents, 22)
	assert.Equal(t, "SCH|S00001|Member With A Fairly Long Display Name|2024-2025", contents[0])
}

func TestRenderCardsWithoutMembers(t *testing.T) {
	out := plainPDF(t, cardsPayload(0, 10))
	assert.Equal(t, 1, pageCount(out))
	assert.Contains(t, out, drawn("No members match the selected filters."))
	assert.NotContains(t, out, drawn("LOGO"))
}

func TestRenderCardsSkipsBrokenQRCodes(t *testing.T) {
	encoders := map[string]func(string) ([]byte, error){
		"error":   func(string) ([]byte, error) { return nil, errors.New("encoder down") },
		"not png": func(string) ([]byte, error) { return []byte("definitely not an image"), nil },
	}
	for name, enc := range encoders {
		t.Run(name, func(t *testing.T) {
			doc, err := testRenderer(Options{QREncoder: enc}).Render(cardsPayload(3, 8), model.FormatPDF)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF")))
		})
	}
}

func TestRenderCardsWithLogo(t *testing.T) {
	png, err := encodeQR("logo")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, png, 0o644))

	logo, err := LoadLogo(path)
	require.NoError(t, err)
	require.NotNil(t, logo)
	assert.Equal(t, "PNG", logo.Type)

	doc, err := testRenderer(Options{Logo: logo}).Render(cardsPayload(2, 10), model.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF")))
}

func TestLoadLogo(t *testing.T) {
	logo, err := LoadLogo("")
	assert.NoError(t, err)
	assert.Nil(t, logo)

	_, err = LoadLogo(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "logo.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))
	_, err = LoadLogo(path)
	assert.Error(t, err)
}

func TestRenderCardsAsExcelIsRejected(t *testing.T) {
	_, err := testRenderer(Options{}).Render(cardsPayload(1, 10), model.FormatExcel)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := testRenderer(Options{}).Render(rosterPayload(), model.OutputFormat("CSV"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestHumanize(t *testing.T) {
	tests := map[string]string{
		"unique_students": "Unique Students",
		"date_range":      "Date Range",
		"present":         "Present",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Humanize(in))
	}
}

func TestFit(t *testing.T) {
	width := func(s string) float64 { return float64(len(s)) }
	assert.Equal(t, "short", fit("short", 10, width))
	assert.Equal(t, "a long...", fit("a long sentence", 9, width))
	assert.Equal(t, "", fit("abcdef", 2, width))
	assert.Equal(t, "Parent Na", truncateRunes("Parent Name", 9))
	assert.Equal(t, "Zoë", truncateRunes("Zoë", 5))
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "daily_attendance_20241231_235959.pdf", Filename("daily_attendance", model.FormatPDF, at))
	assert.True(t, strings.HasSuffix(Filename("x", model.FormatExcel, at), ".xlsx"))
}

func TestGridFor(t *testing.T) {
	assert.Equal(t, 10, gridFor(10).size())
	assert.Equal(t, 8, gridFor(8).size())
}
