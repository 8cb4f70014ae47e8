package race

import (
	"fmt"
	"math"
)

const (
	co2KgPerKm  = 0.12
	pointsPerKm = 45
)

type Result struct {
	LapTime        string  `json:"lap_time"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	DistanceKm     float64 `json:"distance_km"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh"`
	CO2SavedKg     float64 `json:"co2_saved_kg"`
	BasePoints     int     `json:"base_points"`
	EcoBonus       float64 `json:"eco_bonus"`
	TotalPoints    int     `json:"total_points"`
	Position       int     `json:"position"`
	TotalRacers    int     `json:"total_racers"`
}

// Compute derives the lap figures from the accumulated counters.
func Compute(elapsedSeconds int, distanceKm, ecoBonus float64) Result {
	r := Result{
		LapTime:        FormatLapTime(elapsedSeconds),
		ElapsedSeconds: elapsedSeconds,
		DistanceKm:     distanceKm,
		CO2SavedKg:     distanceKm * co2KgPerKm,
		EcoBonus:       ecoBonus,
	}
	if elapsedSeconds > 0 {
		r.AvgSpeedKmh = distanceKm / (float64(elapsedSeconds) / 3600)
	}
	r.BasePoints = int(math.Floor(distanceKm * pointsPerKm))
	r.TotalPoints = int(math.Floor(float64(r.BasePoints) * ecoBonus))
	return r
}

// FormatLapTime renders seconds as M:SS. Minutes are not wrapped into hours.
func FormatLapTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
