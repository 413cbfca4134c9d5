package lifecycle

import "github.com/dukerupert/tasklevel/internal/model"

// BasePoints returns the full award for completing a list of the period.
func BasePoints(period model.PeriodType) int {
	switch period {
	case model.PeriodDaily:
		return 10
	case model.PeriodWeekly:
		return 30
	case model.PeriodMonthly:
		return 100
	}
	return 0
}

// Award returns the points for a completed list. Lists kept private earn half,
// rounded down.
func Award(period model.PeriodType, public bool) int {
	if public {
		return BasePoints(period)
	}
	return BasePoints(period) / 2
}

// MinTasks returns the minimum number of tasks a new list of the period needs.
func MinTasks(period model.PeriodType) int {
	switch period {
	case model.PeriodDaily:
		return 4
	case model.PeriodWeekly:
		return 7
	case model.PeriodMonthly:
		return 10
	}
	return 1
}

// UpgradeCost is the price in points of raising a stat from level to level+1.
func UpgradeCost(level int) int {
	return (level + 1) * 2
}

// Refund is the total spent raising a stat from zero to level.
func Refund(level int) int {
	return level * (level + 1)
}
