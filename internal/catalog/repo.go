package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

// Repository persists report definitions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectReports = `SELECT report_id, title, description, category, is_active, parameters, output_format, estimated_time, created_at, updated_at FROM reports`

// Count returns the number of definitions.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
	return n, err
}

// Insert writes def unless a definition with the same id exists.
func (r *Repository) Insert(ctx context.Context, def model.ReportDefinition) (bool, error) {
	params, err := json.Marshal(def.Parameters)
	if err != nil {
		return false, fmt.Errorf("marshal parameters: %w", err)
	}
	formats, err := json.Marshal(def.OutputFormats)
	if err != nil {
		return false, fmt.Errorf("marshal output formats: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (report_id, title, description, category, is_active, parameters, output_format, estimated_time, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (report_id) DO NOTHING
	`, def.ReportID, def.Title, def.Description, def.Category, def.IsActive, params, formats, def.EstimatedTime, def.CreatedAt, def.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// List returns definitions with optional category and active filters.
func (r *Repository) List(ctx context.Context, category string, activeOnly bool) ([]model.ReportDefinition, error) {
	query := selectReports
	args := []any{}
	clauses := []string{}
	if activeOnly {
		clauses = append(clauses, "is_active = TRUE")
	}
	if category != "" {
		args = append(args, category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY category, title"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []model.ReportDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Get returns a definition by id.
func (r *Repository) Get(ctx context.Context, reportID string) (model.ReportDefinition, error) {
	row := r.db.QueryRowContext(ctx, selectReports+` WHERE report_id = $1`, reportID)
	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReportDefinition{}, apperr.ErrNotFound
	}
	return def, err
}

// SetActive toggles is_active.
func (r *Repository) SetActive(ctx context.Context, reportID string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reports SET is_active = $2, updated_at = NOW() WHERE report_id = $1`, reportID, active)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(s scanner) (model.ReportDefinition, error) {
	var (
		def             model.ReportDefinition
		params, formats []byte
	)
	if err := s.Scan(&def.ReportID, &def.Title, &def.Description, &def.Category, &def.IsActive,
		&params, &formats, &def.EstimatedTime, &def.CreatedAt, &def.UpdatedAt); err != nil {
		return model.ReportDefinition{}, err
	}
	if err := json.Unmarshal(params, &def.Parameters); err != nil {
		return model.ReportDefinition{}, fmt.Errorf("decode parameters of %s: %w", def.ReportID, err)
	}
	if err := json.Unmarshal(formats, &def.OutputFormats); err != nil {
		return model.ReportDefinition{}, fmt.Errorf("decode output formats of %s: %w", def.ReportID, err)
	}
	return def, nil
}
