package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DefaultRunLimit bounds Runs when the caller passes no positive limit.
const DefaultRunLimit = 20

// BeginRun records a run as started.
func (db *DB) BeginRun(ctx context.Context, id, trigger string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO runs (id, trigger_name, status, started_at)
		VALUES (?, ?, ?, ?)
	`, id, trigger, StatusRunning, at.UTC())
	if err != nil {
		return fmt.Errorf("ledger: begin run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run. A nil runErr marks it succeeded.
func (db *DB) FinishRun(ctx context.Context, id string, at time.Time, counts Counts, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := db.conn.ExecContext(ctx, `
		UPDATE runs SET
			status           = ?,
			archived         = ?,
			created          = ?,
			updated          = ?,
			content_replaced = ?,
			error            = ?,
			finished_at      = ?
		WHERE id = ?
	`, status, counts.Archived, counts.Created, counts.Updated, counts.ContentReplaced, msg, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("ledger: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ledger: finish run: unknown run %q", id)
	}
	return nil
}

// Runs returns the most recent runs, newest first.
func (db *DB) Runs(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, trigger_name, status, archived, created, updated, content_replaced, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Trigger, &r.Status,
			&r.Counts.Archived, &r.Counts.Created, &r.Counts.Updated, &r.Counts.ContentReplaced,
			&r.Error, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Checksum returns the content checksum recorded for an identity key.
func (db *DB) Checksum(ctx context.Context, key string) (string, bool, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM pages WHERE identity_key = ?`, key).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ledger: checksum: %w", err)
	}
	return cs, true, nil
}

// RecordPage stores the checksum of the content just written to a page.
func (db *DB) RecordPage(ctx context.Context, key, pageID, sum string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO pages (identity_key, page_id, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(identity_key) DO UPDATE SET
			page_id    = excluded.page_id,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, key, pageID, sum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ledger: record page: %w", err)
	}
	return nil
}

// ForgetPage drops the record of an archived page.
func (db *DB) ForgetPage(ctx context.Context, pageID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM pages WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("ledger: forget page: %w", err)
	}
	return nil
}

// Pages returns every recorded page ordered by identity key.
func (db *DB) Pages(ctx context.Context) ([]PageRow, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT identity_key, page_id, checksum, updated_at FROM pages ORDER BY identity_key`)
	if err != nil {
		return nil, fmt.Errorf("ledger: pages: %w", err)
	}
	defer rows.Close()

	var out []PageRow
	for rows.Next() {
		var p PageRow
		if err := rows.Scan(&p.IdentityKey, &p.PageID, &p.Checksum, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
