package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/model"
)

type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

const statsCols = `profile_id, strength, endurance, speed, perception, intelligence, luck`

type execQuerier interface {
	queryRower
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getStats(ctx context.Context, q execQuerier, profileID string) (*model.Stats, error) {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO stats (profile_id) VALUES (?) ON CONFLICT(profile_id) DO NOTHING`, profileID,
	); err != nil {
		return nil, fmt.Errorf("ensure stats: %w", err)
	}

	var st model.Stats
	err := q.QueryRowContext(ctx, `SELECT `+statsCols+` FROM stats WHERE profile_id = ?`, profileID).Scan(
		&st.ProfileID, &st.Strength, &st.Endurance, &st.Speed, &st.Perception, &st.Intelligence, &st.Luck,
	)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &st, nil
}

// Get returns the profile's stats, creating them at level zero on first use.
func (s *StatsStore) Get(ctx context.Context, profileID string) (*model.Stats, error) {
	return getStats(ctx, s.db, profileID)
}

// Upgrade raises one stat by a level and deducts its cost from the balance.
// Returns ErrInsufficientPoints when the balance cannot cover the cost.
func (s *StatsStore) Upgrade(ctx context.Context, profileID, stat string) (*model.Stats, int, error) {
	if !model.ValidStat(stat) {
		return nil, 0, fmt.Errorf("unknown stat %q", stat)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	st, err := getStats(ctx, tx, profileID)
	if err != nil {
		return nil, 0, err
	}
	cost := lifecycle.UpgradeCost(st.Level(stat))

	result, err := tx.ExecContext(ctx,
		`UPDATE profiles SET points = points - ? WHERE id = ? AND points >= ?`, cost, profileID, cost)
	if err != nil {
		return nil, 0, fmt.Errorf("deduct points: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, 0, ErrInsufficientPoints
	}

	// stat is whitelisted by ValidStat above.
	if _, err := tx.ExecContext(ctx,
		`UPDATE stats SET `+stat+` = `+stat+` + 1 WHERE profile_id = ?`, profileID,
	); err != nil {
		return nil, 0, fmt.Errorf("upgrade stat: %w", err)
	}

	st, err = getStats(ctx, tx, profileID)
	if err != nil {
		return nil, 0, err
	}
	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT points FROM profiles WHERE id = ?`, profileID).Scan(&balance); err != nil {
		return nil, 0, fmt.Errorf("read balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit upgrade: %w", err)
	}
	return st, balance, nil
}

// Reset zeroes every stat and refunds everything spent on them.
func (s *StatsStore) Reset(ctx context.Context, profileID string) (*model.Stats, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	st, err := getStats(ctx, tx, profileID)
	if err != nil {
		return nil, 0, err
	}
	refund := 0
	for _, level := range st.Levels() {
		refund += lifecycle.Refund(level)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE stats SET strength = 0, endurance = 0, speed = 0, perception = 0, intelligence = 0, luck = 0
		 WHERE profile_id = ?`, profileID,
	); err != nil {
		return nil, 0, fmt.Errorf("reset stats: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE profiles SET points = points + ? WHERE id = ?`, refund, profileID); err != nil {
		return nil, 0, fmt.Errorf("refund points: %w", err)
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT points FROM profiles WHERE id = ?`, profileID).Scan(&balance); err != nil {
		return nil, 0, fmt.Errorf("read balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit reset: %w", err)
	}
	return &model.Stats{ProfileID: profileID}, balance, nil
}
