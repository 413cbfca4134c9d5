package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

// QuotaStatus is the outcome of a quota check.
type QuotaStatus string

const (
	QuotaAllowed       QuotaStatus = "allowed"
	QuotaDenied        QuotaStatus = "denied"
	QuotaIndeterminate QuotaStatus = "indeterminate"
)

// Quota describes how many lists of a period a profile created today.
type Quota struct {
	Status QuotaStatus `json:"status"`
	Count  int         `json:"count"`
	Limit  int         `json:"limit"`
	Since  time.Time   `json:"since"`
}

func (q Quota) Allowed() bool { return q.Status == QuotaAllowed }

// ListCounter counts lists of one period type a profile created at or after since.
type ListCounter interface {
	CountCreatedSince(ctx context.Context, profileID string, period model.PeriodType, since time.Time) (int, error)
}

// DailyLimit returns how many lists of the period may be created per local day.
func DailyLimit(period model.PeriodType) int {
	switch period {
	case model.PeriodDaily:
		return 2
	case model.PeriodWeekly, model.PeriodMonthly:
		return 1
	}
	return 0
}

// CheckQuota counts the profile's lists of the period created since the start
// of the current local day. On a storage error the returned Quota is
// QuotaIndeterminate and the error is returned alongside it.
func (c Calendar) CheckQuota(ctx context.Context, counter ListCounter, profileID string, period model.PeriodType, now time.Time) (Quota, error) {
	q := Quota{Status: QuotaIndeterminate, Since: c.DayStart(now), Limit: DailyLimit(period)}
	if !period.Valid() {
		return q, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	n, err := counter.CountCreatedSince(ctx, profileID, period, q.Since)
	if err != nil {
		return q, fmt.Errorf("count lists: %w", err)
	}

	q.Count = n
	if n < q.Limit {
		q.Status = QuotaAllowed
	} else {
		q.Status = QuotaDenied
	}
	return q, nil
}
