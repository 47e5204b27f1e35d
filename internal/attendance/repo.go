package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"memberreports/internal/model"
)

// Repository persists check-ins in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a check-in.
func (r *Repository) Insert(ctx context.Context, rec model.AttendanceRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (student_id, name, timestamp)
		VALUES ($1, $2, $3)
	`, rec.StudentID, rec.Name, rec.Timestamp)
	return err
}

// LatestSince returns the member's most recent check-in at or after since,
// or nil when there is none.
func (r *Repository) LatestSince(ctx context.Context, studentID string, since time.Time) (*model.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, name, timestamp
		FROM attendance
		WHERE student_id = $1 AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT 1
	`, studentID, since)
	var rec model.AttendanceRecord
	if err := row.Scan(&rec.StudentID, &rec.Name, &rec.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// AttendanceBetween returns check-ins with from <= timestamp <= to, oldest
// first.
func (r *Repository) AttendanceBetween(ctx context.Context, from, to time.Time) ([]model.AttendanceRecord, error) {
	return r.list(ctx, `
		SELECT student_id, name, timestamp FROM attendance
		WHERE timestamp >= $1 AND timestamp <= $2
		ORDER BY timestamp
	`, from, to)
}

// ForMember returns all check-ins of one member, oldest first.
func (r *Repository) ForMember(ctx context.Context, studentID string) ([]model.AttendanceRecord, error) {
	return r.list(ctx, `
		SELECT student_id, name, timestamp FROM attendance
		WHERE student_id = $1
		ORDER BY timestamp
	`, studentID)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.StudentID, &rec.Name, &rec.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
