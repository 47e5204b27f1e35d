package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

// Repository persists members in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectMembers = `SELECT student_id, name, grade, status, parent_name, contact, email, created_at, updated_at FROM members`

func (r *Repository) Create(ctx context.Context, m model.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (student_id, name, grade, status, parent_name, contact, email, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7, ''),$8,$9)
	`, m.StudentID, m.Name, m.Grade, m.Status, m.ParentName, m.Contact, m.Email, m.CreatedAt, m.UpdatedAt)
	return mapUnique(err)
}

func (r *Repository) Get(ctx context.Context, studentID string) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, selectMembers+` WHERE student_id = $1`, studentID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, apperr.ErrNotFound
	}
	return m, err
}

func (r *Repository) Update(ctx context.Context, m model.Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET name = $2, grade = $3, status = $4, parent_name = $5, contact = $6, email = NULLIF($7, ''), updated_at = $8
		WHERE student_id = $1
	`, m.StudentID, m.Name, m.Grade, m.Status, m.ParentName, m.Contact, m.Email, m.UpdatedAt)
	if err != nil {
		return mapUnique(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, studentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE student_id = $1`, studentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListMembers filters by status and grade unless they are empty or "All".
func (r *Repository) ListMembers(ctx context.Context, filter model.MemberFilter) ([]model.Member, error) {
	query := selectMembers
	args := []any{}
	clauses := []string{}
	if filter.Status != "" && filter.Status != model.FilterAll {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Grade != "" && filter.Grade != model.FilterAll {
		args = append(args, filter.Grade)
		clauses = append(clauses, fmt.Sprintf("grade = $%d", len(args)))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY grade, name"
	return r.list(ctx, query, args...)
}

func (r *Repository) MembersByIDs(ctx context.Context, ids []string) ([]model.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, selectMembers+` WHERE student_id = ANY($1) ORDER BY grade, name`, ids)
}

func (r *Repository) MaxSequence(ctx context.Context, prefix string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(student_id FROM 2) AS INTEGER)), 0)
		FROM members
		WHERE student_id ~ ('^' || $1 || '[0-9]{5}$')
	`, prefix).Scan(&n)
	return n, err
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(s scanner) (model.Member, error) {
	var (
		m     model.Member
		email sql.NullString
	)
	if err := s.Scan(&m.StudentID, &m.Name, &m.Grade, &m.Status, &m.ParentName, &m.Contact, &email, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return model.Member{}, err
	}
	m.Email = email.String
	return m, nil
}

// mapUnique turns a unique_violation into apperr.ErrConflict.
func mapUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
