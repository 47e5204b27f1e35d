// Package member manages registered members and their ids.
package member

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/logger"
	"memberreports/internal/model"
)

// Id prefixes by member type.
const (
	PrefixStudent = "S"
	PrefixTeacher = "T"
	PrefixParent  = "P"
	PrefixOther   = "O"
)

const (
	maxSequence = 99999
	maxGradeLen = 20
)

var idPattern = regexp.MustCompile(`^[STPO]\d{5}$`)

// Store persists members. Create and Update return apperr.ErrConflict when
// the id, name or email is taken.
type Store interface {
	Create(ctx context.Context, m model.Member) error
	Get(ctx context.Context, studentID string) (model.Member, error)
	Update(ctx context.Context, m model.Member) error
	Delete(ctx context.Context, studentID string) error
	ListMembers(ctx context.Context, filter model.MemberFilter) ([]model.Member, error)
	MembersByIDs(ctx context.Context, ids []string) ([]model.Member, error)
	// MaxSequence returns the highest numeric suffix used with prefix, or 0.
	MaxSequence(ctx context.Context, prefix string) (int, error)
}

// Input carries the writable member fields.
type Input struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Grade      string `json:"grade"`
	Status     string `json:"status"`
	ParentName string `json:"parent_name"`
	Contact    string `json:"contact"`
	Email      string `json:"email"`
}

// IDCheck reports whether an id is free.
type IDCheck struct {
	StudentID   string        `json:"student_id"`
	Available   bool          `json:"available"`
	Existing    *model.Member `json:"existing_member"`
	Suggestions []string      `json:"suggestions"`
}

// Service validates member writes and assigns ids.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a member service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// PrefixForGrade maps a grade to the id prefix of its member type.
func PrefixForGrade(grade string) string {
	g := strings.ToLower(strings.TrimSpace(grade))
	switch g {
	case "pre-k", "prek", "k", "kindergarten":
		return PrefixStudent
	case "teacher", "instructor", "staff", "admin":
		return PrefixTeacher
	case "parent", "guardian":
		return PrefixParent
	}
	if _, err := strconv.Atoi(g); err == nil {
		return PrefixStudent
	}
	return PrefixOther
}

// NextID returns the next free id for grade's prefix. Sequences are kept
// per prefix, so S00002 follows S00001 regardless of any T ids in between.
func (s *Service) NextID(ctx context.Context, grade string) (string, error) {
	return s.nextIDs(ctx, PrefixForGrade(grade), 1)
}

func (s *Service) nextIDs(ctx context.Context, prefix string, offset int) (string, error) {
	seq, err := s.store.MaxSequence(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("read %s sequence: %w", prefix, err)
	}
	next := seq + offset
	if next > maxSequence {
		return "", fmt.Errorf("%w: %s id sequence exhausted", apperr.ErrConflict, prefix)
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}

// Create validates in and stores a new member, generating an id when none
// is given.
func (s *Service) Create(ctx context.Context, in Input) (model.Member, error) {
	m, err := normalize(in)
	if err != nil {
		return model.Member{}, err
	}
	if m.StudentID == "" {
		if m.StudentID, err = s.NextID(ctx, m.Grade); err != nil {
			return model.Member{}, err
		}
	} else if !idPattern.MatchString(m.StudentID) {
		return model.Member{}, fmt.Errorf("%w: student_id must be S, T, P or O followed by 5 digits", apperr.ErrValidation)
	}
	now := s.now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	if err := s.store.Create(ctx, m); err != nil {
		return model.Member{}, fmt.Errorf("create member %s: %w", m.StudentID, err)
	}
	logger.Info("member created", "student_id", m.StudentID, "grade", m.Grade)
	return m, nil
}

// Get returns a member by id.
func (s *Service) Get(ctx context.Context, studentID string) (model.Member, error) {
	m, err := s.store.Get(ctx, studentID)
	if err != nil {
		return model.Member{}, fmt.Errorf("member %s: %w", studentID, err)
	}
	return m, nil
}

// List returns members matching filter, sorted by grade then name.
func (s *Service) List(ctx context.Context, filter model.MemberFilter) ([]model.Member, error) {
	return s.store.ListMembers(ctx, filter)
}

// Update replaces the writable fields of an existing member. The id never
// changes.
func (s *Service) Update(ctx context.Context, studentID string, in Input) (model.Member, error) {
	current, err := s.Get(ctx, studentID)
	if err != nil {
		return model.Member{}, err
	}
	if in.StudentID != "" && in.StudentID != studentID {
		return model.Member{}, fmt.Errorf("%w: student_id cannot be changed", apperr.ErrValidation)
	}
	m, err := normalize(in)
	if err != nil {
		return model.Member{}, err
	}
	m.StudentID = studentID
	m.CreatedAt = current.CreatedAt
	m.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, m); err != nil {
		return model.Member{}, fmt.Errorf("update member %s: %w", studentID, err)
	}
	return m, nil
}

// Delete removes a member.
func (s *Service) Delete(ctx context.Context, studentID string) error {
	if err := s.store.Delete(ctx, studentID); err != nil {
		return fmt.Errorf("delete member %s: %w", studentID, err)
	}
	return nil
}

// CheckID reports whether id is free. A taken id comes with up to three
// free ids from the same prefix.
func (s *Service) CheckID(ctx context.Context, id string) (IDCheck, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return IDCheck{}, fmt.Errorf("%w: student_id is required", apperr.ErrValidation)
	}
	res := IDCheck{StudentID: id, Suggestions: []string{}}
	existing, err := s.store.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		res.Available = true
		return res, nil
	}
	if err != nil {
		return IDCheck{}, err
	}
	res.Existing = &existing

	prefix := PrefixForGrade(existing.Grade)
	if idPattern.MatchString(id) {
		prefix = id[:1]
	}
	for i := 1; i <= 3; i++ {
		next, err := s.nextIDs(ctx, prefix, i)
		if err != nil {
			break
		}
		res.Suggestions = append(res.Suggestions, next)
	}
	return res, nil
}

func normalize(in Input) (model.Member, error) {
	m := model.Member{
		StudentID:  strings.ToUpper(strings.TrimSpace(in.StudentID)),
		Name:       strings.TrimSpace(in.Name),
		Grade:      strings.TrimSpace(in.Grade),
		Status:     strings.TrimSpace(in.Status),
		ParentName: strings.TrimSpace(in.ParentName),
		Contact:    strings.TrimSpace(in.Contact),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
	}
	if m.Name == "" {
		return model.Member{}, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	// Grade is optional; "All" is reserved for filters that match every grade.
	if strings.EqualFold(m.Grade, model.FilterAll) {
		return model.Member{}, fmt.Errorf("%w: grade %q is reserved", apperr.ErrValidation, m.Grade)
	}
	if len(m.Grade) > maxGradeLen {
		return model.Member{}, fmt.Errorf("%w: grade must be at most %d characters", apperr.ErrValidation, maxGradeLen)
	}
	switch m.Status {
	case "":
		m.Status = model.StatusActive
	case model.StatusActive, model.StatusInactive, model.StatusAlumni:
	default:
		return model.Member{}, fmt.Errorf("%w: status must be Active, Inactive or Alumni", apperr.ErrValidation)
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return model.Member{}, fmt.Errorf("%w: invalid email %q", apperr.ErrValidation, m.Email)
	}
	return m, nil
}
