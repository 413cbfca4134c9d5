package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

// Vote actions reported by Cast.
const (
	VoteAdded   = "added"
	VoteUpdated = "updated"
	VoteRemoved = "removed"
)

type VoteStore struct {
	db *sql.DB
}

func NewVoteStore(db *sql.DB) *VoteStore {
	return &VoteStore{db: db}
}

// Cast toggles a profile's vote on a list: a first vote is inserted, a
// different value replaces the old one and repeating the same value removes it.
func (s *VoteStore) Cast(ctx context.Context, listID, profileID string, value int, now time.Time) (string, model.VoteTally, error) {
	var tally model.VoteTally

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", tally, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT vote FROM votes WHERE list_id = ? AND profile_id = ?`, listID, profileID,
	).Scan(&current)

	var action string
	switch {
	case err == sql.ErrNoRows:
		action = VoteAdded
		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (list_id, profile_id, vote, created_at) VALUES (?, ?, ?, ?)`,
			listID, profileID, value, now.UTC())
	case err != nil:
		return "", tally, fmt.Errorf("get vote: %w", err)
	case current == value:
		action = VoteRemoved
		_, err = tx.ExecContext(ctx, `DELETE FROM votes WHERE list_id = ? AND profile_id = ?`, listID, profileID)
	default:
		action = VoteUpdated
		_, err = tx.ExecContext(ctx,
			`UPDATE votes SET vote = ?, created_at = ? WHERE list_id = ? AND profile_id = ?`,
			value, now.UTC(), listID, profileID)
	}
	if err != nil {
		return "", tally, fmt.Errorf("%s vote: %w", action, err)
	}

	tally, err = tallyVotes(ctx, tx, listID, profileID)
	if err != nil {
		return "", tally, err
	}

	if err := tx.Commit(); err != nil {
		return "", tally, fmt.Errorf("commit vote: %w", err)
	}
	return action, tally, nil
}

// Tally counts the list's votes and reports profileID's own vote.
func (s *VoteStore) Tally(ctx context.Context, listID, profileID string) (model.VoteTally, error) {
	return tallyVotes(ctx, s.db, listID, profileID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func tallyVotes(ctx context.Context, q queryRower, listID, profileID string) (model.VoteTally, error) {
	var t model.VoteTally
	err := q.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN vote = 1 THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN vote = -1 THEN 1 ELSE 0 END), 0),
		   COALESCE(MAX(CASE WHEN profile_id = ? THEN vote END), 0)
		 FROM votes WHERE list_id = ?`,
		profileID, listID,
	).Scan(&t.Real, &t.Fake, &t.Mine)
	if err != nil {
		return t, fmt.Errorf("tally votes: %w", err)
	}
	return t, nil
}
