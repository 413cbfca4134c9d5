package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/model"
)

type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

const listCols = `id, profile_id, title, type, is_public, is_completed, reward, punishment,
	completed_at, expires_at, points_awarded, settled_at, view_count, created_at`

func scanList(s scanner) (*model.List, error) {
	var l model.List
	var completedAt, expiresAt, settledAt sql.NullTime
	err := s.Scan(
		&l.ID, &l.ProfileID, &l.Title, &l.Type, &l.IsPublic, &l.IsCompleted, &l.Reward, &l.Punishment,
		&completedAt, &expiresAt, &l.PointsAwarded, &settledAt, &l.ViewCount, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.CompletedAt = timePtr(completedAt)
	l.ExpiresAt = timePtr(expiresAt)
	l.SettledAt = timePtr(settledAt)
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}

const taskCols = `id, list_id, description, is_completed, created_at`

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	if err := s.Scan(&t.ID, &t.ListID, &t.Description, &t.IsCompleted, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

// CreateWithTasks inserts the list and one task per description in a single
// transaction. IDs are assigned here; l.CreatedAt must be set by the caller.
func (s *ListStore) CreateWithTasks(ctx context.Context, l *model.List, descriptions []string) (*model.List, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	created := *l
	created.ID = uuid.NewString()
	created.CreatedAt = l.CreatedAt.UTC()
	created.IsPublic = false
	created.IsCompleted = false
	created.CompletedAt = nil

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lists (id, profile_id, title, type, reward, punishment, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.ProfileID, created.Title, created.Type, created.Reward, created.Punishment,
		nullTime(created.ExpiresAt), created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}

	created.Tasks = make([]model.Task, 0, len(descriptions))
	for i, d := range descriptions {
		t := model.Task{ID: uuid.NewString(), ListID: created.ID, Description: d, CreatedAt: created.CreatedAt}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, list_id, description, sort_order, created_at) VALUES (?, ?, ?, ?, ?)`,
			t.ID, t.ListID, t.Description, i, t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("insert task: %w", err)
		}
		created.Tasks = append(created.Tasks, t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit list: %w", err)
	}
	return &created, nil
}

// CountCreatedSince implements lifecycle.ListCounter.
func (s *ListStore) CountCreatedSince(ctx context.Context, profileID string, period model.PeriodType, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lists WHERE profile_id = ? AND type = ? AND created_at >= ?`,
		profileID, period, since.UTC(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count lists: %w", err)
	}
	return n, nil
}

// GetByID returns the list with its tasks, or nil if it does not exist.
func (s *ListStore) GetByID(ctx context.Context, id string) (*model.List, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listCols+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	lists := []model.List{*l}
	if err := s.attachTasks(ctx, lists); err != nil {
		return nil, err
	}
	return &lists[0], nil
}

// ListByProfile returns a profile's lists with tasks, newest first.
func (s *ListStore) ListByProfile(ctx context.Context, profileID string) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM lists WHERE profile_id = ? ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list lists by profile: %w", err)
	}
	lists, err := collectLists(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachTasks(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func collectLists(rows *sql.Rows) ([]model.List, error) {
	defer rows.Close()

	lists := []model.List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *ListStore) attachTasks(ctx context.Context, lists []model.List) error {
	if len(lists) == 0 {
		return nil
	}

	index := make(map[string]int, len(lists))
	args := make([]any, len(lists))
	for i := range lists {
		index[lists[i].ID] = i
		args[i] = lists[i].ID
		lists[i].Tasks = []model.Task{}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(lists)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks WHERE list_id IN (`+placeholders+`) ORDER BY sort_order ASC`, args...)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return fmt.Errorf("scan task: %w", err)
		}
		i := index[t.ListID]
		lists[i].Tasks = append(lists[i].Tasks, *t)
	}
	return rows.Err()
}

// ListPublic returns the community feed, most recently completed first.
func (s *ListStore) ListPublic(ctx context.Context, limit int) ([]model.PublicList, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.profile_id, l.title, l.type, l.is_public, l.is_completed, l.reward, l.punishment,
		        l.completed_at, l.expires_at, l.points_awarded, l.settled_at, l.view_count, l.created_at,
		        p.username,
		        (SELECT COUNT(*) FROM votes v WHERE v.list_id = l.id AND v.vote = 1),
		        (SELECT COUNT(*) FROM votes v WHERE v.list_id = l.id AND v.vote = -1)
		 FROM lists l JOIN profiles p ON p.id = l.profile_id
		 WHERE l.is_public = 1
		 ORDER BY COALESCE(l.completed_at, l.expires_at, l.created_at) DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list public lists: %w", err)
	}
	defer rows.Close()

	feed := []model.PublicList{}
	for rows.Next() {
		var pl model.PublicList
		var completedAt, expiresAt, settledAt sql.NullTime
		err := rows.Scan(
			&pl.ID, &pl.ProfileID, &pl.Title, &pl.Type, &pl.IsPublic, &pl.IsCompleted, &pl.Reward, &pl.Punishment,
			&completedAt, &expiresAt, &pl.PointsAwarded, &settledAt, &pl.ViewCount, &pl.CreatedAt,
			&pl.OwnerName, &pl.RealVotes, &pl.FakeVotes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan public list: %w", err)
		}
		pl.CompletedAt = timePtr(completedAt)
		pl.ExpiresAt = timePtr(expiresAt)
		pl.SettledAt = timePtr(settledAt)
		feed = append(feed, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(feed) == 0 {
		return feed, nil
	}
	lists := make([]model.List, len(feed))
	for i := range feed {
		lists[i] = feed[i].List
	}
	if err := s.attachTasks(ctx, lists); err != nil {
		return nil, err
	}
	for i := range feed {
		feed[i].Tasks = lists[i].Tasks
	}
	return feed, nil
}

// SetTaskCompletion updates one task and recomputes the parent list's
// completion flag from all of its tasks inside the same transaction.
// JustFinished is true only on the false to true transition of the list.
// Returns nil if the task does not exist.
func (s *ListStore) SetTaskCompletion(ctx context.Context, profileID, taskID string, completed bool, now time.Time) (*model.TaskToggle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var listID, owner string
	var wasCompleted bool
	err = tx.QueryRowContext(ctx,
		`SELECT t.list_id, l.profile_id, l.is_completed FROM tasks t JOIN lists l ON l.id = t.list_id WHERE t.id = ?`,
		taskID,
	).Scan(&listID, &owner, &wasCompleted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task owner: %w", err)
	}
	if owner != profileID {
		return nil, ErrForbidden
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET is_completed = ? WHERE id = ?`, completed, taskID); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	var total, done int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_completed), 0) FROM tasks WHERE list_id = ?`, listID,
	).Scan(&total, &done)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	allDone := total > 0 && done == total

	toggle := &model.TaskToggle{TaskID: taskID, Completed: completed}
	switch {
	case allDone && !wasCompleted:
		_, err = tx.ExecContext(ctx,
			`UPDATE lists SET is_completed = 1, completed_at = ? WHERE id = ?`, now.UTC(), listID)
		toggle.JustFinished = true
	case !allDone && wasCompleted:
		_, err = tx.ExecContext(ctx,
			`UPDATE lists SET is_completed = 0, completed_at = NULL WHERE id = ?`, listID)
	}
	if err != nil {
		return nil, fmt.Errorf("update list completion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}

	toggle.List, err = s.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	return toggle, nil
}

// Settle records the owner's publish-or-keep-private decision. Publishing sets
// the public flag. A completed list is awarded points at most once; the award
// and the profile's balance change commit together. Returns nil if the list
// does not exist.
func (s *ListStore) Settle(ctx context.Context, profileID, listID string, public bool, now time.Time) (*model.Settlement, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var owner string
	var period model.PeriodType
	var isPublic, isCompleted bool
	var settledAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT profile_id, type, is_public, is_completed, settled_at FROM lists WHERE id = ?`, listID,
	).Scan(&owner, &period, &isPublic, &isCompleted, &settledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list for settlement: %w", err)
	}
	if owner != profileID {
		return nil, ErrForbidden
	}

	result := &model.Settlement{ListID: listID, Public: isPublic || public}

	if public && !isPublic {
		if _, err := tx.ExecContext(ctx, `UPDATE lists SET is_public = 1 WHERE id = ?`, listID); err != nil {
			return nil, fmt.Errorf("publish list: %w", err)
		}
	}

	if isCompleted && !settledAt.Valid {
		result.Points = lifecycle.Award(period, public)
		if _, err := tx.ExecContext(ctx,
			`UPDATE lists SET points_awarded = ?, settled_at = ? WHERE id = ?`,
			result.Points, now.UTC(), listID,
		); err != nil {
			return nil, fmt.Errorf("record award: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET points = points + ? WHERE id = ?`, result.Points, profileID,
		); err != nil {
			return nil, fmt.Errorf("award points: %w", err)
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT points FROM profiles WHERE id = ?`, profileID).Scan(&result.Balance); err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}
	return result, nil
}

// ListExpiringBetween returns incomplete lists whose deadline falls in (from, to].
func (s *ListStore) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listCols+` FROM lists
		 WHERE is_completed = 0 AND expires_at > ? AND expires_at <= ?
		 ORDER BY expires_at ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expiring lists: %w", err)
	}
	return collectLists(rows)
}

// incrementViews adds one to the list's view counter inside tx.
func incrementViews(ctx context.Context, tx *sql.Tx, listID string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE lists SET view_count = view_count + 1 WHERE id = ?`, listID); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}
