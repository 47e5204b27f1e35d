package model

import "time"

// Member statuses used by the reports.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusAlumni   = "Alumni"
)

// FilterAll disables a status or grade filter.
const FilterAll = "All"

// Member is a student, teacher, parent or other registered person.
type Member struct {
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	Grade      string    `json:"grade"`
	Status     string    `json:"status"`
	ParentName string    `json:"parent_name"`
	Contact    string    `json:"contact"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MemberFilter selects members by status and grade. Empty or "All" means
// no filter on that field.
type MemberFilter struct {
	Status string
	Grade  string
}

// Matches reports whether m passes the filter.
func (f MemberFilter) Matches(m Member) bool {
	if f.Status != "" && f.Status != FilterAll && m.Status != f.Status {
		return false
	}
	if f.Grade != "" && f.Grade != FilterAll && m.Grade != f.Grade {
		return false
	}
	return true
}

// AttendanceRecord is one check-in.
type AttendanceRecord struct {
	StudentID string    `json:"student_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}
