package profile

import "time"

const (
	StartingPoints = 100
	pointsPerLevel = 1000
	dayLayout      = "2006-01-02"
)

// Profile is the per-user state document stored as JSONB.
type Profile struct {
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Avatar           string    `json:"avatar"`
	Vehicle          string    `json:"vehicle"`
	Onboarded        bool      `json:"onboarded"`
	Points           int       `json:"points"`
	Level            int       `json:"level"`
	CO2SavedKg       float64   `json:"co2_saved_kg"`
	DistanceKm       float64   `json:"distance_km"`
	Laps             int       `json:"laps"`
	StreakDays       int       `json:"streak_days"`
	BestStreak       int       `json:"best_streak"`
	LastActiveDay    string    `json:"last_active_day,omitempty"`
	CompletedQuizzes []string  `json:"completed_quizzes"`
	Achievements     []string  `json:"achievements"`
	CreatedAt        time.Time `json:"created_at"`
	Version          int       `json:"version"`
}

type OnboardRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=40"`
	Avatar  string `json:"avatar" validate:"required,max=16"`
	Vehicle string `json:"vehicle" validate:"required,oneof=bike e-scooter bus train electric-car walk"`
}

type UpdateRequest struct {
	Name    string `json:"name" validate:"omitempty,min=2,max=40"`
	Avatar  string `json:"avatar" validate:"omitempty,max=16"`
	Vehicle string `json:"vehicle" validate:"omitempty,oneof=bike e-scooter bus train electric-car walk"`
}

// LapCredit is what a finished race adds to the profile.
type LapCredit struct {
	Points     int
	CO2SavedKg float64
	DistanceKm float64
	At         time.Time
}

type AchievementStatus struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Earned      bool    `json:"earned"`
	Progress    float64 `json:"progress"`
}

// LevelFor is 1 for every started block of 1000 points, beginning at 0.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return 1 + points/pointsPerLevel
}

// NextLevelAt is the points total at which the following level starts.
func NextLevelAt(points int) int {
	return LevelFor(points) * pointsPerLevel
}
