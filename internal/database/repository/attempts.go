package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttemptRepo handles the attempts table.
type AttemptRepo struct {
	db *sql.DB
}

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{db: db} }

// Record inserts a, filling ID and CreatedAt when empty, and returns the stored row.
func (r *AttemptRepo) Record(ctx context.Context, a Attempt) (Attempt, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO attempts(id, account, pin_length, success, reason, created_at)
	VALUES (?, ?, ?, ?, ?, ?);
	`, a.ID, a.Account, a.PINLength, a.Success, a.Reason, a.CreatedAt.UTC())
	if err != nil {
		return Attempt{}, fmt.Errorf("record attempt: %w", err)
	}
	return a, nil
}

// ListRecent returns the newest attempts for account, newest first.
func (r *AttemptRepo) ListRecent(ctx context.Context, account string, limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, account, pin_length, success, reason, created_at
	FROM attempts WHERE account = ?
	ORDER BY created_at DESC, rowid DESC LIMIT ?`, account, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.Account, &a.PINLength, &a.Success, &a.Reason, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountFailuresSince counts failed attempts for account at or after since that
// happened after the last success.
func (r *AttemptRepo) CountFailuresSince(ctx context.Context, account string, since time.Time) (int, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM attempts
	WHERE account = ? AND success = 0 AND created_at >= ?
	  AND created_at >= COALESCE(
	    (SELECT MAX(created_at) FROM attempts WHERE account = ? AND success = 1), ?)`,
		account, since.UTC(), account, since.UTC())
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count failures: %w", err)
	}
	return n, nil
}

// Purge deletes attempts older than before and reports how many went.
func (r *AttemptRepo) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attempts WHERE created_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge attempts: %w", err)
	}
	return res.RowsAffected()
}
