package tasklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/websocket"
)

// Kinds of RewardPunishment entries.
const (
	KindReward     = "reward"
	KindPunishment = "punishment"
)

// RewardPunishment is a wager attached to a new list.
type RewardPunishment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CreateResult reports the outcome of a list creation. Validation and quota
// failures come back as Success=false with a user-facing message.
type CreateResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	List    *model.List      `json:"list,omitempty"`
	Quota   *lifecycle.Quota `json:"quota,omitempty"`
}

const (
	msgCreated        = "Lista creata con successo!"
	msgMissingFields  = "Compila tutti i campi"
	msgCreateFailed   = "Errore nella creazione lista"
	msgSelectPeriod   = "Seleziona un tipo di lista"
	msgQuotaReached   = "Hai raggiunto il limite di liste %s per oggi"
	msgNotEnoughTasks = "Servono almeno %d task per una lista %s"
)

func firstText(entries []RewardPunishment, kind string) string {
	for _, e := range entries {
		if e.Type == kind {
			return e.Text
		}
	}
	return ""
}

// CanCreateList reports whether the profile may create another list of the
// period today. The status is QuotaIndeterminate when err is non-nil.
func (s *Service) CanCreateList(ctx context.Context, profileID string, period model.PeriodType) (lifecycle.Quota, error) {
	return s.calendar.CheckQuota(ctx, s.lists, profileID, period, s.now())
}

// SubmitList runs the full creation flow: minimum task count, daily quota,
// deadline, then CreateList. err is non-nil only for storage failures,
// including an indeterminate quota.
func (s *Service) SubmitList(ctx context.Context, profileID string, period model.PeriodType, tasks []string, wagers []RewardPunishment) (CreateResult, error) {
	if !period.Valid() {
		return CreateResult{Message: msgSelectPeriod}, nil
	}
	if need := lifecycle.MinTasks(period); len(tasks) < need {
		return CreateResult{Message: fmt.Sprintf(msgNotEnoughTasks, need, period)}, nil
	}

	q, err := s.CanCreateList(ctx, profileID, period)
	if err != nil {
		return CreateResult{Message: msgCreateFailed, Quota: &q}, err
	}
	if !q.Allowed() {
		return CreateResult{Message: fmt.Sprintf(msgQuotaReached, period), Quota: &q}, nil
	}

	exp, err := s.calendar.Expiration(period, s.now())
	if err != nil {
		return CreateResult{Message: msgSelectPeriod}, nil
	}

	res, err := s.CreateList(ctx, profileID, period, tasks, wagers, &exp)
	res.Quota = &q
	return res, err
}

// CreateList stores a new private, incomplete list with its tasks in one
// transaction and schedules the check-in nudge. It does not check the minimum
// task count or the quota.
func (s *Service) CreateList(ctx context.Context, profileID string, period model.PeriodType, tasks []string, wagers []RewardPunishment, expiresAt *time.Time) (CreateResult, error) {
	if period == "" {
		return CreateResult{Message: msgMissingFields}, nil
	}
	if !period.Valid() {
		return CreateResult{Message: msgSelectPeriod}, nil
	}
	descriptions := make([]string, len(tasks))
	for i, t := range tasks {
		descriptions[i] = strings.TrimSpace(t)
		if descriptions[i] == "" {
			return CreateResult{Message: msgMissingFields}, nil
		}
	}

	now := s.now()
	list, err := s.lists.CreateWithTasks(ctx, &model.List{
		ProfileID:  profileID,
		Title:      fmt.Sprintf("Lista %s", period),
		Type:       period,
		Reward:     firstText(wagers, KindReward),
		Punishment: firstText(wagers, KindPunishment),
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}, descriptions)
	if err != nil {
		return CreateResult{Message: msgCreateFailed}, err
	}

	s.logger.Info("list created", "list_id", list.ID, "profile_id", profileID, "type", period, "tasks", len(list.Tasks))

	if s.jobs != nil {
		if err := s.jobs.Schedule(ctx, now.Add(CheckInDelay), profileID, push.ListCheckIn(list.ID, period)); err != nil {
			s.logger.Warn("schedule check-in notification", "list_id", list.ID, "error", err)
		}
	}
	s.sendTo(profileID, websocket.NewMessage(websocket.EntityList, "created", list.ID, nil))

	return CreateResult{Success: true, Message: msgCreated, List: list}, nil
}
