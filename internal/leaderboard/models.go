package leaderboard

import "time"

type Board string

const (
	Global Board = "global"
	Weekly Board = "weekly"
)

func ParseBoard(s string) (Board, bool) {
	switch Board(s) {
	case Global, Weekly:
		return Board(s), true
	}
	return "", false
}

type Entry struct {
	Rank          int     `json:"rank"`
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	Avatar        string  `json:"avatar"`
	Points        int     `json:"points"`
	CO2SavedKg    float64 `json:"co2_saved_kg"`
	Streak        int     `json:"streak"`
	Trips         int     `json:"trips,omitempty"`
	IsCurrentUser bool    `json:"is_current_user,omitempty"`
}

// Credit is one scoring event. Trip marks a finished race, which also
// counts towards the weekly trip tally.
type Credit struct {
	UserID     string
	Name       string
	Avatar     string
	Points     int
	CO2SavedKg float64
	Streak     int
	Trip       bool
	At         time.Time
}

type Standing struct {
	Board  Board `json:"board"`
	Rank   int   `json:"rank"`
	Total  int   `json:"total"`
	Points int   `json:"points"`
}
