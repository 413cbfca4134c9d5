// Package lifecycle holds the date, quota and points rules for task lists.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

const (
	// DefaultOffset is the UTC offset treated as the users' local time.
	DefaultOffset = 2 * time.Hour

	// MinValidity is the shortest lifetime a new list may have.
	MinValidity = 3 * time.Hour
)

var ErrInvalidPeriod = errors.New("invalid period type")

// Calendar anchors list deadlines to local midnight at a fixed UTC offset.
type Calendar struct {
	Offset      time.Duration
	MinValidity time.Duration
}

// DefaultCalendar returns a Calendar using DefaultOffset and MinValidity.
func DefaultCalendar() Calendar {
	return Calendar{Offset: DefaultOffset, MinValidity: MinValidity}
}

// midnightAfter returns local midnight at the end of the UTC calendar day of t,
// expressed in UTC. With the default offset this is 22:00 UTC.
func (c Calendar) midnightAfter(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(24*time.Hour - c.Offset)
}

func (c Calendar) tooSoon(candidate, now time.Time) bool {
	return candidate.Sub(now) <= c.MinValidity
}

// Expiration returns the deadline for a list of the given period created at now.
//
//   - daily: the next local midnight, or the one after if fewer than
//     MinValidity remain.
//   - weekly: local midnight seven days out, pushed a further week if needed.
//   - monthly: local midnight on the last day of the month, or of the
//     following month when the current one is too close.
func (c Calendar) Expiration(period model.PeriodType, now time.Time) (time.Time, error) {
	now = now.UTC()

	switch period {
	case model.PeriodDaily:
		exp := c.midnightAfter(now)
		for c.tooSoon(exp, now) {
			exp = exp.AddDate(0, 0, 1)
		}
		return exp, nil

	case model.PeriodWeekly:
		exp := c.midnightAfter(now).AddDate(0, 0, 7)
		for c.tooSoon(exp, now) {
			exp = exp.AddDate(0, 0, 7)
		}
		return exp, nil

	case model.PeriodMonthly:
		for months := 1; ; months++ {
			// Day 0 of the month after next is the last day of the target month.
			lastDay := time.Date(now.Year(), now.Month()+time.Month(months), 0, 0, 0, 0, 0, time.UTC)
			exp := c.midnightAfter(lastDay)
			if !c.tooSoon(exp, now) {
				return exp, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
}

// DayStart returns the start of the local day containing now, in UTC.
func (c Calendar) DayStart(now time.Time) time.Time {
	local := now.UTC().Add(c.Offset)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(-c.Offset)
}
