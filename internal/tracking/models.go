package tracking

import (
	"time"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
)

// Race is the snapshot returned by every call and pushed to stream
// subscribers after each change.
type Race struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Track          string       `json:"track"`
	State          race.State   `json:"state"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
	LapTime        string       `json:"lap_time"`
	DistanceKm     float64      `json:"distance_km"`
	SpeedKmh       float64      `json:"speed_kmh"`
	EcoBonus       float64      `json:"eco_bonus"`
	CreatedAt      time.Time    `json:"created_at"`
	Result         *race.Result `json:"result,omitempty"`
	LapID          string       `json:"lap_id,omitempty"`
	Unlocked       []string     `json:"unlocked,omitempty"`
}

type CreateRequest struct {
	Track    string  `json:"track"`
	EcoBonus float64 `json:"eco_bonus"`
}

// TickRequest is one second of travel. Either DistanceKm or a Lat/Lng
// fix must be set; a fix is turned into a distance from the previous one.
// A missing speed is derived from the distance.
type TickRequest struct {
	SpeedKmh   *float64 `json:"speed_kmh"`
	DistanceKm *float64 `json:"distance_km"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

type fix struct {
	lat, lng float64
}
