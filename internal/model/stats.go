package model

// StatNames lists the character stats in display order.
var StatNames = []string{"strength", "endurance", "speed", "perception", "intelligence", "luck"}

// ValidStat reports whether name is a known stat.
func ValidStat(name string) bool {
	for _, s := range StatNames {
		if s == name {
			return true
		}
	}
	return false
}

type Stats struct {
	ProfileID    string `json:"user_id"`
	Strength     int    `json:"strength"`
	Endurance    int    `json:"endurance"`
	Speed        int    `json:"speed"`
	Perception   int    `json:"perception"`
	Intelligence int    `json:"intelligence"`
	Luck         int    `json:"luck"`
}

// Level returns the level of the named stat.
func (s Stats) Level(name string) int {
	switch name {
	case "strength":
		return s.Strength
	case "endurance":
		return s.Endurance
	case "speed":
		return s.Speed
	case "perception":
		return s.Perception
	case "intelligence":
		return s.Intelligence
	case "luck":
		return s.Luck
	}
	return 0
}

// Levels returns every stat level in StatNames order.
func (s Stats) Levels() []int {
	levels := make([]int, len(StatNames))
	for i, name := range StatNames {
		levels[i] = s.Level(name)
	}
	return levels
}
