package attendance

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

const (
	dateLayout     = "2006-01-02"
	defaultHistory = 50
	trendDays      = 7
)

// RangeQuery selects check-ins between two calendar dates, inclusive.
type RangeQuery struct {
	StartDate string
	EndDate   string
	// Grade limits results to members of one grade; empty or "All" keeps all.
	Grade string
}

// RangeSummary describes a range result.
type RangeSummary struct {
	TotalRecords   int    `json:"total_records"`
	UniqueStudents int    `json:"unique_students"`
	DateRange      string `json:"date_range"`
	GradeFilter    string `json:"grade_filter,omitempty"`
}

// RangeResult holds check-ins newest first.
type RangeResult struct {
	Records []model.AttendanceRecord `json:"data"`
	Summary RangeSummary             `json:"summary"`
}

// Range returns the check-ins between q's dates.
func (s *Service) Range(ctx context.Context, q RangeQuery) (RangeResult, error) {
	if q.StartDate == "" || q.EndDate == "" {
		return RangeResult{}, fmt.Errorf("%w: start_date and end_date are required", apperr.ErrValidation)
	}
	from, to, err := s.dates(q.StartDate, q.EndDate)
	if err != nil {
		return RangeResult{}, err
	}
	recs, err := s.store.AttendanceBetween(ctx, from, to)
	if err != nil {
		return RangeResult{}, err
	}

	sum := RangeSummary{DateRange: from.Format(dateLayout) + " to " + to.Format(dateLayout)}
	if q.Grade != "" && q.Grade != model.FilterAll {
		inGrade, err := s.members.List(ctx, model.MemberFilter{Grade: q.Grade})
		if err != nil {
			return RangeResult{}, fmt.Errorf("load members: %w", err)
		}
		keep := make(map[string]bool, len(inGrade))
		for _, m := range inGrade {
			keep[m.StudentID] = true
		}
		filtered := recs[:0]
		for _, r := range recs {
			if keep[r.StudentID] {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
		sum.GradeFilter = q.Grade
	}

	reverse(recs)
	sum.TotalRecords = len(recs)
	sum.UniqueStudents = uniqueMembers(recs)
	if recs == nil {
		recs = []model.AttendanceRecord{}
	}
	return RangeResult{Records: recs, Summary: sum}, nil
}

// DayTotal is today's check-ins against the active membership.
type DayTotal struct {
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// PeriodTotal is the members seen in a period against the active membership.
type PeriodTotal struct {
	UniqueStudents int `json:"unique_students"`
	Percentage     int `json:"percentage"`
}

// DayCount is the number of check-ins on one date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats is the attendance dashboard.
type Stats struct {
	Today               DayTotal    `json:"today"`
	ThisWeek            PeriodTotal `json:"this_week"`
	ThisMonth           PeriodTotal `json:"this_month"`
	TotalActiveStudents int         `json:"total_active_students"`
	Last7Days           []DayCount  `json:"last_7_days_trend"`
}

// Stats reports today's check-ins, unique members this week (from Sunday)
// and this month, and a daily trend for the last seven days.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	active, err := s.members.List(ctx, model.MemberFilter{Status: model.StatusActive})
	if err != nil {
		return Stats{}, fmt.Errorf("load members: %w", err)
	}
	total := len(active)

	todayStart, todayEnd := s.day(s.now())
	weekStart := todayStart.AddDate(0, 0, -int(todayStart.Weekday()))
	monthStart := time.Date(todayStart.Year(), todayStart.Month(), 1, 0, 0, 0, 0, s.loc)
	trendStart := todayStart.AddDate(0, 0, -(trendDays - 1))

	from := monthStart
	if trendStart.Before(from) {
		from = trendStart
	}
	if weekStart.Before(from) {
		from = weekStart
	}
	recs, err := s.store.AttendanceBetween(ctx, from, todayEnd)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{TotalActiveStudents: total}
	week, month := map[string]bool{}, map[string]bool{}
	perDay := map[string]int{}
	for _, r := range recs {
		ts := r.Timestamp.In(s.loc)
		if !ts.Before(todayStart) {
			st.Today.Count++
		}
		if !ts.Before(weekStart) {
			week[r.StudentID] = true
		}
		if !ts.Before(monthStart) {
			month[r.StudentID] = true
		}
		perDay[ts.Format(dateLayout)]++
	}
	st.Today.Percentage = percent(st.Today.Count, total)
	st.ThisWeek = PeriodTotal{UniqueStudents: len(week), Percentage: percent(len(week), total)}
	st.ThisMonth = PeriodTotal{UniqueStudents: len(month), Percentage: percent(len(month), total)}

	for i := 0; i < trendDays; i++ {
		date := trendStart.AddDate(0, 0, i).Format(dateLayout)
		st.Last7Days = append(st.Last7Days, DayCount{Date: date, Count: perDay[date]})
	}
	return st, nil
}

// HistoryQuery narrows a member's history. Dates apply only when both are set.
type HistoryQuery struct {
	StartDate string
	EndDate   string
	Limit     int
}

// HistorySummary covers all of a member's check-ins, not just those returned.
type HistorySummary struct {
	TotalAttendance int        `json:"total_attendance"`
	FirstAttendance *time.Time `json:"first_attendance"`
	LastAttendance  *time.Time `json:"last_attendance"`
	RecordsReturned int        `json:"records_returned"`
}

// History is one member's check-ins, newest first.
type History struct {
	Student model.Member             `json:"student"`
	Records []model.AttendanceRecord `json:"attendance_records"`
	Summary HistorySummary           `json:"summary"`
}

// History returns up to q.Limit of a member's check-ins, 50 by default.
func (s *Service) History(ctx context.Context, studentID string, q HistoryQuery) (History, error) {
	m, err := s.members.Get(ctx, studentID)
	if err != nil {
		return History{}, fmt.Errorf("member %s: %w", studentID, err)
	}
	if q.Limit < 0 {
		return History{}, fmt.Errorf("%w: limit must not be negative", apperr.ErrValidation)
	}
	if q.Limit == 0 {
		q.Limit = defaultHistory
	}
	all, err := s.store.ForMember(ctx, m.StudentID)
	if err != nil {
		return History{}, err
	}

	h := History{Student: m, Records: []model.AttendanceRecord{}}
	h.Summary.TotalAttendance = len(all)
	if len(all) > 0 {
		first, last := all[0].Timestamp, all[len(all)-1].Timestamp
		h.Summary.FirstAttendance, h.Summary.LastAttendance = &first, &last
	}

	from, to := time.Time{}, time.Time{}
	if q.StartDate != "" && q.EndDate != "" {
		if from, to, err = s.dates(q.StartDate, q.EndDate); err != nil {
			return History{}, err
		}
	}
	for i := len(all) - 1; i >= 0 && len(h.Records) < q.Limit; i-- {
		ts := all[i].Timestamp
		if !from.IsZero() && (ts.Before(from) || ts.After(to)) {
			continue
		}
		h.Records = append(h.Records, all[i])
	}
	h.Summary.RecordsReturned = len(h.Records)
	return h, nil
}

// BulkEntry is one check-in to import.
type BulkEntry struct {
	StudentID string    `json:"student_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BulkFailure is an entry that could not be recorded.
type BulkFailure struct {
	Entry BulkEntry `json:"entry"`
	Error string    `json:"error"`
}

// BulkDuplicate is an entry whose member already checked in that day.
type BulkDuplicate struct {
	Entry             BulkEntry `json:"entry"`
	ExistingTimestamp time.Time `json:"existing_timestamp"`
}

// BulkResult sorts every entry into exactly one outcome.
type BulkResult struct {
	Successful []model.AttendanceRecord `json:"successful"`
	Failed     []BulkFailure            `json:"failed"`
	Duplicates []BulkDuplicate          `json:"duplicates"`
}

// BulkCheckIn records historical check-ins, keeping the one-per-day rule for
// the day of each entry's timestamp. Entries are applied in order, so a
// second entry for the same member and day is a duplicate of the first.
func (s *Service) BulkCheckIn(ctx context.Context, entries []BulkEntry) (BulkResult, error) {
	if len(entries) == 0 {
		return BulkResult{}, fmt.Errorf("%w: at least one entry is required", apperr.ErrValidation)
	}
	res := BulkResult{
		Successful: []model.AttendanceRecord{},
		Failed:     []BulkFailure{},
		Duplicates: []BulkDuplicate{},
	}
	for _, e := range entries {
		e.StudentID = strings.TrimSpace(e.StudentID)
		if e.StudentID == "" || e.Timestamp.IsZero() {
			res.Failed = append(res.Failed, BulkFailure{Entry: e, Error: "student_id and timestamp are required"})
			continue
		}
		m, err := s.members.Get(ctx, e.StudentID)
		if err != nil {
			res.Failed = append(res.Failed, BulkFailure{Entry: e, Error: err.Error()})
			continue
		}

		from, to := s.day(e.Timestamp)
		sameDay, err := s.store.AttendanceBetween(ctx, from, to)
		if err != nil {
			return res, err
		}
		if prev, ok := firstFor(sameDay, m.StudentID); ok {
			res.Duplicates = append(res.Duplicates, BulkDuplicate{Entry: e, ExistingTimestamp: prev.Timestamp})
			continue
		}

		rec := model.AttendanceRecord{StudentID: m.StudentID, Name: m.Name, Timestamp: e.Timestamp.UTC()}
		if err := s.store.Insert(ctx, rec); err != nil {
			res.Failed = append(res.Failed, BulkFailure{Entry: e, Error: err.Error()})
			continue
		}
		res.Successful = append(res.Successful, rec)
	}
	return res, nil
}

// dates parses an inclusive date range in the service location.
func (s *Service) dates(start, end string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation(dateLayout, start, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", apperr.ErrValidation)
	}
	last, err := time.ParseInLocation(dateLayout, end, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", apperr.ErrValidation)
	}
	if last.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date is before start_date", apperr.ErrValidation)
	}
	return from, last.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func firstFor(recs []model.AttendanceRecord, studentID string) (model.AttendanceRecord, bool) {
	for _, r := range recs {
		if r.StudentID == studentID {
			return r, true
		}
	}
	return model.AttendanceRecord{}, false
}

func uniqueMembers(recs []model.AttendanceRecord) int {
	seen := map[string]bool{}
	for _, r := range recs {
		seen[r.StudentID] = true
	}
	return len(seen)
}

func reverse(recs []model.AttendanceRecord) {
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
