package trip

import "time"

// Lap is one finished race as stored in the history.
type Lap struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Track          string    `json:"track"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	LapTime        string    `json:"lap_time"`
	DistanceKm     float64   `json:"distance_km"`
	AvgSpeedKmh    float64   `json:"avg_speed_kmh"`
	CO2SavedKg     float64   `json:"co2_saved_kg"`
	EcoBonus       float64   `json:"eco_bonus"`
	Points         int       `json:"points"`
	FinishedAt     time.Time `json:"finished_at"`
}

type Stats struct {
	TotalTrips      int     `json:"total_trips"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalCO2Kg      float64 `json:"total_co2_saved_kg"`
	TotalPoints     int     `json:"total_points"`
	AvgLapSeconds   int     `json:"avg_lap_seconds"`
	AvgLapTime      string  `json:"avg_lap_time"`
	BestLapSeconds  int     `json:"best_lap_seconds"`
	BestLapTime     string  `json:"best_lap_time"`
}

// DayTotal aggregates the laps finished on one calendar day (UTC).
type DayTotal struct {
	Day        time.Time `json:"day"`
	Trips      int       `json:"trips"`
	Points     int       `json:"points"`
	CO2SavedKg float64   `json:"co2_saved_kg"`
	DistanceKm float64   `json:"distance_km"`
}

type TrackRecord struct {
	Track               string `json:"track"`
	Attempts            int    `json:"attempts"`
	PersonalBestSeconds int    `json:"personal_best_seconds"`
	PersonalBest        string `json:"personal_best"`
	TrackBestSeconds    int    `json:"track_best_seconds"`
	TrackBest           string `json:"track_best"`
}
