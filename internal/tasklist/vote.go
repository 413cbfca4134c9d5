package tasklist

import (
	"context"

	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/store"
	"github.com/dukerupert/tasklevel/internal/websocket"
)

// VoteResult is the outcome of a vote toggle.
type VoteResult struct {
	Action string          `json:"action"`
	Votes  model.VoteTally `json:"votes"`
}

// Vote casts, switches or withdraws the voter's vote on a public list. The
// owner is notified of new or changed votes from other profiles.
func (s *Service) Vote(ctx context.Context, voterID, listID string, value int) (*VoteResult, error) {
	if value != model.VoteReal && value != model.VoteFake {
		return nil, ErrInvalidVote
	}

	l, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrNotFound
	}
	if !l.IsPublic {
		return nil, ErrNotPublic
	}

	action, tally, err := s.votes.Cast(ctx, listID, voterID, value, s.now())
	if err != nil {
		return nil, err
	}

	if action != store.VoteRemoved && voterID != l.ProfileID {
		voterName := "Qualcuno"
		if voter, err := s.profiles.GetByID(ctx, voterID); err != nil {
			s.logger.Warn("load voter profile", "profile_id", voterID, "error", err)
		} else if voter != nil && voter.Username != "" {
			voterName = voter.Username
		}
		s.notify(ctx, l.ProfileID, push.VoteReceived(voterName, l.ID, l.Title, value))
	}

	s.broadcast(websocket.NewMessage(websocket.EntityVote, "changed", listID, map[string]any{
		"real": tally.Real,
		"fake": tally.Fake,
	}))
	s.broadcast(websocket.NewMessage(websocket.EntityLeaderboard, "changed", "", nil))

	return &VoteResult{Action: action, Votes: tally}, nil
}

// Votes returns the tally of a visible list and the viewer's own vote.
func (s *Service) Votes(ctx context.Context, viewerID, listID string) (model.VoteTally, error) {
	if _, err := s.visibleList(ctx, viewerID, listID); err != nil {
		return model.VoteTally{}, err
	}
	return s.votes.Tally(ctx, listID, viewerID)
}
