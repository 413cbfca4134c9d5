package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type ViewStore struct {
	db *sql.DB
}

func NewViewStore(db *sql.DB) *ViewStore {
	return &ViewStore{db: db}
}

// Record stores one view per (list, viewer) and bumps the list's counter the
// first time. It reports whether the view was new.
func (s *ViewStore) Record(ctx context.Context, listID, profileID string, now time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO views (list_id, profile_id, created_at) VALUES (?, ?, ?)`,
		listID, profileID, now.UTC())
	if err != nil {
		return false, fmt.Errorf("insert view: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := incrementViews(ctx, tx, listID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit view: %w", err)
	}
	return true, nil
}
