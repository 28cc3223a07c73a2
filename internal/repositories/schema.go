// Package repositories persists videos, overlay jobs and overlay records in
// Postgres.
package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS videos (
		id                TEXT PRIMARY KEY,
		original_filename TEXT NOT NULL,
		saved_filename    TEXT NOT NULL,
		object_key        TEXT NOT NULL,
		size              BIGINT,
		duration          DOUBLE PRECISION,
		upload_time       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS trimmed_videos (
		id               TEXT PRIMARY KEY,
		original_file_id TEXT NOT NULL REFERENCES videos(id),
		saved_filename   TEXT NOT NULL,
		object_key       TEXT NOT NULL,
		start_time       DOUBLE PRECISION NOT NULL,
		end_time         DOUBLE PRECISION NOT NULL,
		upload_time      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS overlay_jobs (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL,
		payload     JSONB NOT NULL,
		result      TEXT,
		error_text  TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		started_at  TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS overlays (
		job_id           TEXT PRIMARY KEY,
		overlay_filename TEXT NOT NULL,
		object_key       TEXT NOT NULL,
		overlay          JSONB NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
