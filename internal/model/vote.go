package model

import "time"

const (
	VoteReal = 1
	VoteFake = -1
)

type Vote struct {
	ID        int64     `json:"id"`
	ListID    string    `json:"list_id"`
	ProfileID string    `json:"user_id"`
	Value     int       `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteTally counts the votes on a list. Mine is the caller's own vote, 0 if none.
type VoteTally struct {
	Real int `json:"real"`
	Fake int `json:"fake"`
	Mine int `json:"mine"`
}
