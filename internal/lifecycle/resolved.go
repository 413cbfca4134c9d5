package lifecycle

import (
	"time"

	"github.com/dukerupert/tasklevel/internal/model"
)

// IsExpired reports whether the list's deadline is at or before now.
func IsExpired(l model.List, now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// IsResolved reports whether a list awaits the publish-or-keep-private
// decision: it is completed or past its deadline.
func IsResolved(l model.List, now time.Time) bool {
	return l.IsCompleted || IsExpired(l, now)
}

// ActiveView returns the lists the owner should still see in the foreground:
// open lists, and resolved lists that are not public yet. Lists for which
// hidden returns true are dropped. hidden may be nil.
func ActiveView(lists []model.List, now time.Time, hidden func(id string) bool) []model.List {
	active := make([]model.List, 0, len(lists))
	for _, l := range lists {
		if hidden != nil && hidden(l.ID) {
			continue
		}
		if IsResolved(l, now) && l.IsPublic {
			continue
		}
		active = append(active, l)
	}
	return active
}

// HiddenSet builds a hidden predicate for ActiveView from a list of ids.
func HiddenSet(ids []string) func(string) bool {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}
