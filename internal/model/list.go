package model

import "time"

// PeriodType is the cadence of a list.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// Valid reports whether p is one of the known period types.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type List struct {
	ID            string     `json:"id"`
	ProfileID     string     `json:"user_id"`
	Title         string     `json:"title"`
	Type          PeriodType `json:"type"`
	IsPublic      bool       `json:"is_public"`
	IsCompleted   bool       `json:"is_completed"`
	Reward        string     `json:"reward"`
	Punishment    string     `json:"punishment"`
	CompletedAt   *time.Time `json:"completed_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
	PointsAwarded int        `json:"points_awarded"`
	SettledAt     *time.Time `json:"settled_at"`
	ViewCount     int        `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	Tasks         []Task     `json:"tasks"`
}

type Task struct {
	ID          string    `json:"id"`
	ListID      string    `json:"list_id"`
	Description string    `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublicList is a list as shown in the community feed.
type PublicList struct {
	List
	OwnerName string `json:"owner_name"`
	RealVotes int    `json:"real_votes"`
	FakeVotes int    `json:"fake_votes"`
}

// TaskToggle is the outcome of changing a task's completion flag.
type TaskToggle struct {
	List         *List  `json:"list"`
	TaskID       string `json:"task_id"`
	Completed    bool   `json:"completed"`
	JustFinished bool   `json:"just_finished"`
}

// Settlement is the outcome of publishing or privately keeping a list.
type Settlement struct {
	ListID  string `json:"list_id"`
	Public  bool   `json:"is_public"`
	Points  int    `json:"points_awarded"`
	Balance int    `json:"balance"`
}
