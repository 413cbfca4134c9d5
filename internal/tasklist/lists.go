package tasklist

import (
	"context"
	"fmt"

	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/websocket"
)

// ListDetail is a single list as shown on its page.
type ListDetail struct {
	*model.List
	OwnerName string          `json:"owner_name"`
	Votes     model.VoteTally `json:"votes"`
	Resolved  bool            `json:"is_resolved"`
}

// Lists returns every list of the profile, newest first.
func (s *Service) Lists(ctx context.Context, profileID string) ([]model.List, error) {
	return s.lists.ListByProfile(ctx, profileID)
}

// ActiveLists returns the lists the owner still has to act on. hidden is the
// caller's transient set of lists already dealt with in this session.
func (s *Service) ActiveLists(ctx context.Context, profileID string, hidden func(id string) bool) ([]model.List, error) {
	lists, err := s.lists.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return lifecycle.ActiveView(lists, s.now(), hidden), nil
}

// PublicLists returns the community feed.
func (s *Service) PublicLists(ctx context.Context, limit int) ([]model.PublicList, error) {
	return s.lists.ListPublic(ctx, limit)
}

// visibleList loads a list the viewer may see: their own, or a public one.
func (s *Service) visibleList(ctx context.Context, viewerID, listID string) (*model.List, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l == nil || (!l.IsPublic && l.ProfileID != viewerID) {
		return nil, ErrNotFound
	}
	return l, nil
}

// GetList returns a list with its owner's name and vote tally.
func (s *Service) GetList(ctx context.Context, viewerID, listID string) (*ListDetail, error) {
	l, err := s.visibleList(ctx, viewerID, listID)
	if err != nil {
		return nil, err
	}

	detail := &ListDetail{List: l, Resolved: lifecycle.IsResolved(*l, s.now())}
	owner, err := s.profiles.GetByID(ctx, l.ProfileID)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		detail.OwnerName = owner.Username
	}
	if detail.Votes, err = s.votes.Tally(ctx, l.ID, viewerID); err != nil {
		return nil, err
	}
	return detail, nil
}

// SetTaskCompletion changes one task's flag and recomputes the list's
// completion. The owner is notified once when the list becomes complete.
func (s *Service) SetTaskCompletion(ctx context.Context, profileID, taskID string, completed bool) (*model.TaskToggle, error) {
	toggle, err := s.lists.SetTaskCompletion(ctx, profileID, taskID, completed, s.now())
	if err != nil {
		return nil, err
	}
	if toggle == nil {
		return nil, ErrNotFound
	}

	if toggle.JustFinished {
		l := toggle.List
		s.logger.Info("list completed", "list_id", l.ID, "profile_id", profileID)
		s.notify(ctx, profileID, push.ListCompleted(l.ID, l.Title))
		s.sendTo(profileID, websocket.NewMessage(websocket.EntityList, "completed", l.ID, nil))
	}
	return toggle, nil
}

// ownList loads a list and checks it belongs to profileID.
func (s *Service) ownList(ctx context.Context, profileID, listID string) (*model.List, error) {
	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if l.ProfileID != profileID {
		return nil, ErrForbidden
	}
	return l, nil
}

// MakePublic publishes a resolved list. A completed list earns the full award
// unless it was already settled.
func (s *Service) MakePublic(ctx context.Context, profileID, listID string) (*model.Settlement, error) {
	l, err := s.ownList(ctx, profileID, listID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.IsResolved(*l, s.now()) {
		return nil, ErrNotResolved
	}
	return s.settle(ctx, profileID, listID, true)
}

// HideList keeps a list private. A completed list earns half the award; an
// incomplete one earns nothing.
func (s *Service) HideList(ctx context.Context, profileID, listID string) (*model.Settlement, error) {
	if _, err := s.ownList(ctx, profileID, listID); err != nil {
		return nil, err
	}
	return s.settle(ctx, profileID, listID, false)
}

func (s *Service) settle(ctx context.Context, profileID, listID string, public bool) (*model.Settlement, error) {
	res, err := s.lists.Settle(ctx, profileID, listID, public, s.now())
	if err != nil {
		return nil, fmt.Errorf("settle list: %w", err)
	}
	if res == nil {
		return nil, ErrNotFound
	}

	s.logger.Info("list settled", "list_id", listID, "profile_id", profileID, "public", public, "points", res.Points)

	if public {
		s.broadcast(websocket.NewMessage(websocket.EntityList, "published", listID, nil))
	}
	if res.Points > 0 {
		s.broadcast(websocket.NewMessage(websocket.EntityLeaderboard, "changed", "", nil))
	}
	return res, nil
}

// RecordView counts the viewer once per list.
func (s *Service) RecordView(ctx context.Context, viewerID, listID string) (bool, error) {
	if _, err := s.visibleList(ctx, viewerID, listID); err != nil {
		return false, err
	}
	return s.views.Record(ctx, listID, viewerID, s.now())
}
