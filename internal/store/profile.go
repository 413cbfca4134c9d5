package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileCols = `id, username, email, points, avatar_url, created_at`

func scanProfile(s scanner) (*model.Profile, error) {
	var p model.Profile
	if err := s.Scan(&p.ID, &p.Username, &p.Email, &p.Points, &p.AvatarURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

// Ensure creates the profile on first sight and returns the stored row.
// Existing profiles are left untouched.
func (s *ProfileStore) Ensure(ctx context.Context, id, username, email string) (*model.Profile, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, username, email, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, username, email, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ProfileStore) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) Update(ctx context.Context, id, username, email string) (*model.Profile, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE profiles SET username = ?, email = ? WHERE id = ?`, username, email, id)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ProfileStore) SetAvatar(ctx context.Context, id, url string) (*model.Profile, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE profiles SET avatar_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return s.GetByID(ctx, id)
}

// CompletionStats counts the profile's completed lists, lists that expired
// before completion, and the total.
func (s *ProfileStore) CompletionStats(ctx context.Context, id string, now time.Time) (model.CompletionStats, error) {
	var cs model.CompletionStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN is_completed = 1 THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN is_completed = 0 AND expires_at IS NOT NULL AND expires_at <= ? THEN 1 ELSE 0 END), 0),
		   COUNT(*)
		 FROM lists WHERE profile_id = ?`,
		now.UTC(), id,
	).Scan(&cs.Completed, &cs.Failed, &cs.Total)
	if err != nil {
		return cs, fmt.Errorf("completion stats: %w", err)
	}
	return cs, nil
}

// Leaderboard sort keys.
const (
	SortPoints    = "points"
	SortReal      = "real"
	SortFake      = "fake"
	SortCompleted = "completed"
	SortFailed    = "failed"
)

var leaderboardOrder = map[string]string{
	SortPoints:    "points DESC",
	SortReal:      "real_votes DESC, points DESC",
	SortFake:      "fake_votes DESC, points DESC",
	SortCompleted: "completed_lists DESC, points DESC",
	SortFailed:    "failed_lists DESC, points DESC",
}

// ValidLeaderboardSort reports whether sort is a known leaderboard ordering.
func ValidLeaderboardSort(sort string) bool {
	_, ok := leaderboardOrder[sort]
	return ok
}

// Leaderboard ranks profiles by the given key. Unknown keys fall back to points.
func (s *ProfileStore) Leaderboard(ctx context.Context, sort string, limit int, now time.Time) ([]model.LeaderboardEntry, error) {
	order, ok := leaderboardOrder[sort]
	if !ok {
		order = leaderboardOrder[SortPoints]
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, avatar_url, points, real_votes, fake_votes, completed_lists, failed_lists, total_lists
		 FROM (
		   SELECT p.id, p.username, p.avatar_url, p.points, p.created_at,
		     (SELECT COUNT(*) FROM votes v JOIN lists l ON l.id = v.list_id WHERE l.profile_id = p.id AND v.vote = 1) AS real_votes,
		     (SELECT COUNT(*) FROM votes v JOIN lists l ON l.id = v.list_id WHERE l.profile_id = p.id AND v.vote = -1) AS fake_votes,
		     (SELECT COUNT(*) FROM lists l WHERE l.profile_id = p.id AND l.is_completed = 1) AS completed_lists,
		     (SELECT COUNT(*) FROM lists l WHERE l.profile_id = p.id AND l.is_completed = 0
		        AND l.expires_at IS NOT NULL AND l.expires_at <= ?) AS failed_lists,
		     (SELECT COUNT(*) FROM lists l WHERE l.profile_id = p.id) AS total_lists
		   FROM profiles p
		 )
		 ORDER BY `+order+`, created_at ASC
		 LIMIT ?`,
		now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ProfileID, &e.Username, &e.AvatarURL, &e.Points, &e.RealVotes, &e.FakeVotes,
			&e.CompletedLists, &e.FailedLists, &e.TotalLists); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Position = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
