package report_test

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberreports/internal/apperr"
	"memberreports/internal/memstore"
	"memberreports/internal/model"
	"memberreports/internal/report"
)

var (
	day1 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
)

func fixture() (*memstore.Attendance, *memstore.Members) {
	members := memstore.NewMembers(
		model.Member{StudentID: "S00001", Name: "Ava Brown", Grade: "3", Status: model.StatusActive, ParentName: "Liam Brown", Contact: "555-0101", Email: "liam@example.com"},
		model.Member{StudentID: "S00002", Name: "Ben Cole", Grade: "4", Status: model.StatusActive, ParentName: "Mia Cole", Contact: "555-0102"},
		model.Member{StudentID: "S00003", Name: "Cara Diaz", Grade: "3", Status: model.StatusInactive},
	)
	att := memstore.NewAttendance(
		model.AttendanceRecord{StudentID: "S00002", Name: "Ben Cole", Timestamp: day1.Add(9 * time.Hour)},
		model.AttendanceRecord{StudentID: "S00001", Name: "Ava Brown", Timestamp: day1.Add(8 * time.Hour)},
		model.AttendanceRecord{StudentID: "S00001", Name: "Ava Brown", Timestamp: day2.Add(23*time.Hour + 59*time.Minute + 59*time.Second)},
		model.AttendanceRecord{StudentID: "S00003", Name: "Cara Diaz", Timestamp: day2.Add(10 * time.Hour)},
	)
	return att, members
}

func newEngine() *report.Engine {
	att, members := fixture()
	return report.NewEngine(att, members,
		report.WithLocation(time.UTC),
		report.WithClock(func() time.Time { return day1.Add(12 * time.Hour) }),
	)
}

func summaryValue(t *testing.T, p model.Payload, key string) any {
	t.Helper()
	for _, e := range p.Summary {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("summary key %q missing", key)
	return nil
}

func column(p model.Payload, key string) []any {
	var out []any
	for _, r := range p.Rows {
		v, _ := r.Get(key)
		out = append(out, v)
	}
	return out
}

func TestStudentRosterWithoutContact(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "student_roster", map[string]string{
		"status": "Active", "include_contact": "false",
	})
	require.NoError(t, err)

	assert.Equal(t, "student_roster", p.ReportID)
	assert.Equal(t, "Student Roster Report", p.Title)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, []any{"S00001", "S00002"}, column(p, "student_id"))
	for _, r := range p.Rows {
		assert.Equal(t, []string{"student_id", "name", "grade", "status"}, r.Keys())
	}
	assert.Equal(t, 2, summaryValue(t, p, "total_students"))

	filters := p.Summary[1]
	require.True(t, filters.Nested())
	assert.Equal(t, []model.Field{
		{Key: "status", Value: "Active"},
		{Key: "grade", Value: "All"},
		{Key: "include_contact", Value: false},
	}, filters.Children)
}

func TestStudentRosterDefaultsIncludeContact(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "student_roster", nil)
	require.NoError(t, err)

	require.Len(t, p.Rows, 3)
	// Grade then name: Ava (3), Cara (3), Ben (4).
	assert.Equal(t, []any{"S00001", "S00003", "S00002"}, column(p, "student_id"))
	for _, r := range p.Rows {
		assert.Equal(t, []string{"student_id", "name", "grade", "status", "parent_name", "contact", "email"}, r.Keys())
	}
	email, _ := p.Rows[0].Get("email")
	assert.Equal(t, "liam@example.com", email)
}

func TestStudentRosterActiveGradeWithoutContact(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "student_roster", map[string]string{
		"status": "Active", "grade": "3", "include_contact": "false",
	})
	require.NoError(t, err)

	require.Len(t, p.Rows, 1)
	assert.Equal(t, []any{"S00001"}, column(p, "student_id"))
	assert.Equal(t, []string{"student_id", "name", "grade", "status"}, p.Rows[0].Keys())
	for _, key := range []string{"parent_name", "contact", "email"} {
		_, ok := p.Rows[0].Get(key)
		assert.False(t, ok, key)
	}
	assert.Equal(t, 1, summaryValue(t, p, "total_students"))
}

func TestDailyAttendance(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "daily_attendance", map[string]string{"date": "2024-01-16"})
	require.NoError(t, err)

	assert.Equal(t, "Daily Attendance Report - 2024-01-16", p.Title)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, []any{"Present", "Absent"}, column(p, "status"))
	assert.Equal(t, []any{"23:59:59", ""}, column(p, "check_in_time"))
	assert.Equal(t, 2, summaryValue(t, p, "total_students"))
	assert.Equal(t, 1, summaryValue(t, p, "present"))
	assert.Equal(t, 1, summaryValue(t, p, "absent"))
	assert.Equal(t, "50.0%", summaryValue(t, p, "attendance_rate"))
}

func TestDailyAttendanceDefaultsToToday(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "daily_attendance", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", summaryValue(t, p, "date"))
	assert.Equal(t, "100.0%", summaryValue(t, p, "attendance_rate"))
}

func TestDailyAttendanceNoMembers(t *testing.T) {
	e := report.NewEngine(memstore.NewAttendance(), memstore.NewMembers(), report.WithLocation(time.UTC))
	p, err := e.Generate(context.Background(), "daily_attendance", map[string]string{"date": "2024-01-16"})
	require.NoError(t, err)
	assert.Empty(t, p.Rows)
	assert.Equal(t, 0, summaryValue(t, p, "present"))
	assert.Equal(t, "0%", summaryValue(t, p, "attendance_rate"))
}

func TestDailyAttendanceAcrossDSTChanges(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name    string
		date    string
		checkIn time.Time
		want    string
	}{
		{"spring forward excludes next day", "2024-03-10", time.Date(2024, 3, 11, 0, 30, 0, 0, ny), report.StateAbsent},
		{"spring forward includes late evening", "2024-03-10", time.Date(2024, 3, 10, 23, 30, 0, 0, ny), report.StatePresent},
		{"fall back includes last hour", "2024-11-03", time.Date(2024, 11, 3, 23, 30, 0, 0, ny), report.StatePresent},
		{"fall back excludes next day", "2024-11-03", time.Date(2024, 11, 4, 0, 0, 0, 0, ny), report.StateAbsent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := memstore.NewMembers(model.Member{StudentID: "S00001", Name: "Ava Brown", Grade: "3", Status: model.StatusActive})
			att := memstore.NewAttendance(model.AttendanceRecord{StudentID: "S00001", Name: "Ava Brown", Timestamp: tt.checkIn})
			e := report.NewEngine(att, members, report.WithLocation(ny))

			p, err := e.Generate(context.Background(), "daily_attendance", map[string]string{"date": tt.date})
			require.NoError(t, err)
			require.Len(t, p.Rows, 1)
			assert.Equal(t, []any{tt.want}, column(p, "status"))
		})
	}
}

func TestAttendanceSummary(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "attendance_summary", map[string]string{
		"start_date": "2024-01-15", "end_date": "2024-01-16",
	})
	require.NoError(t, err)

	assert.Equal(t, "Attendance Summary (2024-01-15 to 2024-01-16)", p.Title)
	assert.Equal(t, []any{"S00001", "S00002", "S00003", "S00001"}, column(p, "student_id"))
	assert.Equal(t, []any{"08:00:00", "09:00:00", "10:00:00", "23:59:59"}, column(p, "time"))
	assert.Equal(t, []any{"2024-01-15", "2024-01-15", "2024-01-16", "2024-01-16"}, column(p, "date"))
	for _, r := range p.Rows {
		assert.Equal(t, []string{"student_id", "name", "grade", "date", "time"}, r.Keys())
	}
	assert.Equal(t, 4, summaryValue(t, p, "total_records"))
	assert.Equal(t, 3, summaryValue(t, p, "unique_students"))
	assert.Equal(t, "2024-01-15 to 2024-01-16", summaryValue(t, p, "date_range"))
}

func TestAttendanceSummaryGradeFilterAndSingleDay(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), "attendance_summary", map[string]string{
		"start_date": "2024-01-16", "end_date": "2024-01-16", "grade": "3",
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"S00003", "S00001"}, column(p, "student_id"))
	assert.Equal(t, 2, summaryValue(t, p, "unique_students"))
}

func TestAttendanceSummaryErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
	}{
		{"end before start", map[string]string{"start_date": "2024-01-16", "end_date": "2024-01-15"}},
		{"missing end", map[string]string{"start_date": "2024-01-16"}},
		{"malformed", map[string]string{"start_date": "2024-1-16", "end_date": "2024-01-17"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newEngine().Generate(context.Background(), "attendance_summary", tt.raw)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestMemberIDCards(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), report.MemberIDCards, map[string]string{
		"cards_per_page": "8", "include_qr_code": "false",
	})
	require.NoError(t, err)

	assert.True(t, p.IsCards())
	assert.Equal(t, "Member ID Cards - 2024-2025", p.Title)
	require.Len(t, p.Cards, 2)
	assert.Equal(t, "S00001", p.Cards[0].StudentID)
	assert.Equal(t, "2024-2025", p.Cards[0].AcademicYear)
	assert.False(t, p.Cards[0].IncludeQRCode)
	assert.Equal(t, 8, p.CardsPerPage)
	assert.Equal(t, 1, p.EstimatedPages)
	assert.Equal(t, 2, summaryValue(t, p, "total_cards"))
}

func TestMemberIDCardsNoMatches(t *testing.T) {
	p, err := newEngine().Generate(context.Background(), report.MemberIDCards, map[string]string{"status": "Alumni"})
	require.NoError(t, err)
	assert.Empty(t, p.Cards)
	assert.Equal(t, 10, p.CardsPerPage)
	assert.Equal(t, 0, p.EstimatedPages)
}

func TestMemberIDCardsRejectsPageSize(t *testing.T) {
	_, err := newEngine().Generate(context.Background(), report.MemberIDCards, map[string]string{"cards_per_page": "7"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUnknownReport(t *testing.T) {
	_, err := newEngine().Generate(context.Background(), "enrollment_statistics", nil)
	assert.True(t, errors.Is(err, apperr.ErrNotImplemented))

	_, ok := newEngine().Definition("enrollment_statistics")
	assert.False(t, ok)
	def, ok := newEngine().Definition(report.MemberIDCards)
	require.True(t, ok)
	assert.Equal(t, []model.OutputFormat{model.FormatPDF}, def.OutputFormats)
}
