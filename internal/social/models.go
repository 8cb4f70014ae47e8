package social

import "time"

type Follow struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityItem is a recent lap by someone the user follows.
type ActivityItem struct {
	LapID      string    `json:"lap_id"`
	UserID     string    `json:"user_id"`
	Track      string    `json:"track"`
	LapTime    string    `json:"lap_time"`
	Points     int       `json:"points"`
	CO2SavedKg float64   `json:"co2_saved_kg"`
	FinishedAt time.Time `json:"finished_at"`
}
