package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

// Store persists check-ins.
type Store interface {
	Insert(ctx context.Context, rec model.AttendanceRecord) error
	LatestSince(ctx context.Context, studentID string, since time.Time) (*model.AttendanceRecord, error)
	AttendanceBetween(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error)
	ForMember(ctx context.Context, studentID string) ([]model.AttendanceRecord, error)
}

// MemberLookup resolves the member checking in and the members behind
// grade filters and percentages.
type MemberLookup interface {
	Get(ctx context.Context, studentID string) (model.Member, error)
	List(ctx context.Context, filter model.MemberFilter) ([]model.Member, error)
}

// Summary aggregates one member's check-ins.
type Summary struct {
	StudentID     string     `json:"student_id"`
	Name          string     `json:"name"`
	TotalCheckIns int        `json:"total_checkins"`
	FirstCheckIn  *time.Time `json:"first_checkin,omitempty"`
	LastCheckIn   *time.Time `json:"last_checkin,omitempty"`
}

// Service coordinates check-ins and the one-per-day rule.
type Service struct {
	store   Store
	members MemberLookup
	loc     *time.Location
	now     func() time.Time
}

// NewService creates a service. Calendar days are computed in loc.
func NewService(store Store, members MemberLookup, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, members: members, loc: loc, now: time.Now}
}

// CheckIn records a check-in. A second check-in on the same day returns the
// first one together with apperr.ErrConflict.
func (s *Service) CheckIn(ctx context.Context, studentID string) (model.AttendanceRecord, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return model.AttendanceRecord{}, fmt.Errorf("%w: student_id is required", apperr.ErrValidation)
	}
	m, err := s.members.Get(ctx, studentID)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("member %s: %w", studentID, err)
	}

	now := s.now()
	dayStart, _ := s.day(now)
	if recent, err := s.store.LatestSince(ctx, studentID, dayStart); err != nil {
		return model.AttendanceRecord{}, err
	} else if recent != nil {
		return *recent, fmt.Errorf("%w: %s already checked in today", apperr.ErrConflict, studentID)
	}

	rec := model.AttendanceRecord{StudentID: m.StudentID, Name: m.Name, Timestamp: now.UTC()}
	if err := s.store.Insert(ctx, rec); err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("record check-in: %w", err)
	}
	return rec, nil
}

// Today returns today's check-ins, newest first.
func (s *Service) Today(ctx context.Context) ([]model.AttendanceRecord, error) {
	from, to := s.day(s.now())
	recs, err := s.store.AttendanceBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	reverse(recs)
	return recs, nil
}

// MemberSummary returns the count and span of a member's check-ins.
func (s *Service) MemberSummary(ctx context.Context, studentID string) (Summary, error) {
	m, err := s.members.Get(ctx, studentID)
	if err != nil {
		return Summary{}, fmt.Errorf("member %s: %w", studentID, err)
	}
	recs, err := s.store.ForMember(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{StudentID: m.StudentID, Name: m.Name, TotalCheckIns: len(recs)}
	if len(recs) > 0 {
		first, last := recs[0].Timestamp, recs[len(recs)-1].Timestamp
		sum.FirstCheckIn, sum.LastCheckIn = &first, &last
	}
	return sum, nil
}

// day returns the inclusive bounds of the calendar day containing t.
func (s *Service) day(t time.Time) (time.Time, time.Time) {
	l := t.In(s.loc)
	start := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
