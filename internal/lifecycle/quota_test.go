package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

type fakeCounter struct {
	created []model.List
	err     error
}

func (f *fakeCounter) CountCreatedSince(_ context.Context, profileID string, period model.PeriodType, since time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, l := range f.created {
		if l.ProfileID == profileID && l.Type == period && !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func TestCheckQuotaLimits(t *testing.T) {
	cal := DefaultCalendar()
	ctx := context.Background()
	now := utc(2025, 3, 10, 12, 0)
	today := utc(2025, 3, 10, 9, 0)
	yesterday := utc(2025, 3, 9, 12, 0)

	counter := &fakeCounter{}
	add := func(period model.PeriodType, at time.Time) {
		counter.created = append(counter.created, model.List{ProfileID: "p1", Type: period, CreatedAt: at})
	}

	check := func(period model.PeriodType, want QuotaStatus) {
		t.Helper()
		q, err := cal.CheckQuota(ctx, counter, "p1", period, now)
		if err != nil {
			t.Fatalf("CheckQuota(%s): %v", period, err)
		}
		if q.Status != want {
			t.Errorf("CheckQuota(%s) = %s (count %d), want %s", period, q.Status, q.Count, want)
		}
	}

	add(model.PeriodDaily, yesterday)
	add(model.PeriodDaily, yesterday)
	check(model.PeriodDaily, QuotaAllowed)

	add(model.PeriodDaily, today)
	check(model.PeriodDaily, QuotaAllowed)

	add(model.PeriodDaily, today)
	check(model.PeriodDaily, QuotaDenied)

	check(model.PeriodWeekly, QuotaAllowed)
	add(model.PeriodWeekly, today)
	check(model.PeriodWeekly, QuotaDenied)

	check(model.PeriodMonthly, QuotaAllowed)
	add(model.PeriodMonthly, today)
	check(model.PeriodMonthly, QuotaDenied)
}

func TestCheckQuotaOtherProfile(t *testing.T) {
	counter := &fakeCounter{created: []model.List{
		{ProfileID: "p2", Type: model.PeriodWeekly, CreatedAt: utc(2025, 3, 10, 9, 0)},
	}}

	q, err := DefaultCalendar().CheckQuota(context.Background(), counter, "p1", model.PeriodWeekly, utc(2025, 3, 10, 12, 0))
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if !q.Allowed() {
		t.Errorf("Status = %s, want allowed", q.Status)
	}
}

func TestCheckQuotaIndeterminate(t *testing.T) {
	boom := errors.New("disk on fire")
	counter := &fakeCounter{err: boom}

	q, err := DefaultCalendar().CheckQuota(context.Background(), counter, "p1", model.PeriodDaily, time.Now())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if q.Status != QuotaIndeterminate {
		t.Errorf("Status = %s, want indeterminate", q.Status)
	}
	if q.Allowed() {
		t.Error("indeterminate quota reported as allowed")
	}
}

func TestCheckQuotaInvalidPeriod(t *testing.T) {
	_, err := DefaultCalendar().CheckQuota(context.Background(), &fakeCounter{}, "p1", "", time.Now())
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
}
