package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one key/value cell of a row or a nested summary entry.
type Field struct {
	Key   string
	Value any
}

// Row is an ordered set of fields. All rows of one payload share the same
// keys in the same order.
type Row []Field

// Keys returns the row's keys in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key.
func (r Row) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the row as an object with keys in row order.
func (r Row) MarshalJSON() ([]byte, error) {
	return marshalFields(r)
}

// SummaryEntry is a top-level summary item. Children is set for nested
// entries, Value otherwise.
type SummaryEntry struct {
	Key      string
	Value    any
	Children []Field
}

// Nested reports whether the entry holds a sub-mapping.
func (e SummaryEntry) Nested() bool { return e.Children != nil }

// Card is one ID-card entry.
type Card struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	Grade         string `json:"grade"`
	Status        string `json:"status"`
	ParentName    string `json:"parent_name"`
	Contact       string `json:"contact"`
	AcademicYear  string `json:"academic_year"`
	IncludeQRCode bool   `json:"include_qr_code"`
}

// Payload is the normalized result of running a report query.
type Payload struct {
	ReportID string
	Title    string
	Rows     []Row
	Summary  []SummaryEntry

	// ID-card reports only.
	Cards          []Card
	CardsPerPage   int
	EstimatedPages int
	IncludeQRCode  bool
	AcademicYear   string
}

// IsCards reports whether the payload is card-structured rather than tabular.
func (p Payload) IsCards() bool { return p.CardsPerPage > 0 }

// MarshalJSON keeps row and summary key order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"report_id":`)
	writeJSON(&buf, p.ReportID)
	buf.WriteString(`,"title":`)
	writeJSON(&buf, p.Title)
	buf.WriteString(`,"data":`)
	if p.IsCards() {
		cards := p.Cards
		if cards == nil {
			cards = []Card{}
		}
		if err := writeJSON(&buf, cards); err != nil {
			return nil, err
		}
	} else {
		rows := p.Rows
		if rows == nil {
			rows = []Row{}
		}
		if err := writeJSON(&buf, rows); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`,"summary":{`)
	for i, e := range p.Summary {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(&buf, e.Key)
		buf.WriteByte(':')
		if e.Nested() {
			b, err := marshalFields(e.Children)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			continue
		}
		if err := writeJSON(&buf, e.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	if p.IsCards() {
		fmt.Fprintf(&buf, `,"cards_per_page":%d,"estimated_pages":%d,"include_qr_code":%t,"academic_year":`,
			p.CardsPerPage, p.EstimatedPages, p.IncludeQRCode)
		writeJSON(&buf, p.AcademicYear)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalFields(fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSON(&buf, f.Key)
		buf.WriteByte(':')
		if err := writeJSON(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// FormatValue stringifies a payload value the same way in every renderer.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
