package store

import (
	"context"
	"database/sql"
)

// schema creates the tables the repositories expect. The unique index on
// reports.report_id makes catalog seeding an upsert.
const schema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id      TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL,
	is_active      BOOLEAN NOT NULL DEFAULT TRUE,
	parameters     JSONB NOT NULL DEFAULT '[]',
	output_format  JSONB NOT NULL DEFAULT '[]',
	estimated_time TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS members (
	student_id  TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	grade       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'Active',
	parent_name TEXT NOT NULL DEFAULT '',
	contact     TEXT NOT NULL DEFAULT '',
	email       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_members_email ON members(email) WHERE email IS NOT NULL AND email <> '';
CREATE INDEX IF NOT EXISTS idx_members_grade ON members(grade);

CREATE TABLE IF NOT EXISTS attendance (
	id         BIGSERIAL PRIMARY KEY,
	student_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);
CREATE INDEX IF NOT EXISTS idx_attendance_time ON attendance(timestamp);

CREATE TABLE IF NOT EXISTS generated_reports (
	file_id        TEXT PRIMARY KEY,
	report_id      TEXT NOT NULL,
	filename       TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	parameters     JSONB NOT NULL DEFAULT '{}',
	output_format  TEXT NOT NULL,
	generated_at   TIMESTAMPTZ NOT NULL,
	generated_by   TEXT NOT NULL,
	expires_at     TIMESTAMPTZ NOT NULL,
	file_size      BIGINT NOT NULL,
	download_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_generated_reports_owner ON generated_reports(generated_by, generated_at DESC);
CREATE INDEX IF NOT EXISTS idx_generated_reports_expiry ON generated_reports(expires_at);
`

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
