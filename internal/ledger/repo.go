package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"memberreports/internal/apperr"
	"memberreports/internal/model"
)

// Repository stores ledger entries in the generated_reports table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectFiles = `SELECT file_id, report_id, filename, file_path, parameters, output_format, generated_at, generated_by, expires_at, file_size, download_count FROM generated_reports`

func (r *Repository) Insert(ctx context.Context, f model.GeneratedFile) error {
	params, err := json.Marshal(f.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO generated_reports (file_id, report_id, filename, file_path, parameters, output_format, generated_at, generated_by, expires_at, file_size, download_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, f.FileID, f.ReportID, f.Filename, f.FilePath, params, string(f.OutputFormat), f.GeneratedAt, f.GeneratedBy, f.ExpiresAt, f.FileSize, f.DownloadCount)
	return err
}

func (r *Repository) Get(ctx context.Context, fileID string) (model.GeneratedFile, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, selectFiles+` WHERE file_id = $1`, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.GeneratedFile{}, apperr.ErrNotFound
	}
	return f, err
}

func (r *Repository) IncrementDownloads(ctx context.Context, fileID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`UPDATE generated_reports SET download_count = download_count + 1 WHERE file_id = $1 RETURNING download_count`,
		fileID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.ErrNotFound
	}
	return n, err
}

func (r *Repository) ListByOwner(ctx context.Context, owner string, liveAt time.Time) ([]model.GeneratedFile, error) {
	return r.list(ctx, selectFiles+` WHERE generated_by = $1 AND expires_at >= $2 ORDER BY generated_at DESC`, owner, liveAt)
}

func (r *Repository) ListExpired(ctx context.Context, now time.Time) ([]model.GeneratedFile, error) {
	return r.list(ctx, selectFiles+` WHERE expires_at < $1 ORDER BY expires_at`, now)
}

func (r *Repository) Delete(ctx context.Context, fileID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM generated_reports WHERE file_id = $1`, fileID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]model.GeneratedFile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []model.GeneratedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (model.GeneratedFile, error) {
	var (
		f      model.GeneratedFile
		params []byte
		format string
	)
	if err := s.Scan(&f.FileID, &f.ReportID, &f.Filename, &f.FilePath, &params, &format,
		&f.GeneratedAt, &f.GeneratedBy, &f.ExpiresAt, &f.FileSize, &f.DownloadCount); err != nil {
		return model.GeneratedFile{}, err
	}
	f.OutputFormat = model.OutputFormat(format)
	if err := json.Unmarshal(params, &f.Parameters); err != nil {
		return model.GeneratedFile{}, fmt.Errorf("decode parameters of %s: %w", f.FileID, err)
	}
	return f, nil
}
