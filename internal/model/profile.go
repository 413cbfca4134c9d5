package model

import "time"

type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Points    int       `json:"points"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletionStats summarises a profile's lists. Failed counts lists that
// expired without being completed.
type CompletionStats struct {
	Completed int `json:"completed_lists"`
	Failed    int `json:"failed_lists"`
	Total     int `json:"total_lists"`
}

type LeaderboardEntry struct {
	Position       int    `json:"position"`
	ProfileID      string `json:"id"`
	Username       string `json:"username"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Points         int    `json:"points"`
	RealVotes      int    `json:"real_votes"`
	FakeVotes      int    `json:"fake_votes"`
	CompletedLists int    `json:"completed_lists"`
	FailedLists    int    `json:"failed_lists"`
	TotalLists     int    `json:"total_lists"`
}
