package trip

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/db"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Service struct {
	db db.Querier
}

// FreeRide is the track recorded for races not bound to a named course.
const FreeRide = "free-ride"

func NewService(q db.Querier) *Service {
	return &Service{db: db.OrUnavailable(q)}
}

// SaveLap stores a finished race.
func (s *Service) SaveLap(ctx context.Context, userID, track string, r race.Result) (Lap, error) {
	if userID == "" {
		return Lap{}, fmt.Errorf("trip: user required: %w", fault.ErrInvalidArgument)
	}
	if track == "" {
		track = FreeRide
	}
	lap := Lap{
		ID:             uuid.NewString(),
		UserID:         userID,
		Track:          track,
		ElapsedSeconds: r.ElapsedSeconds,
		LapTime:        race.FormatLapTime(r.ElapsedSeconds),
		DistanceKm:     r.DistanceKm,
		AvgSpeedKmh:    r.AvgSpeedKmh,
		CO2SavedKg:     r.CO2SavedKg,
		EcoBonus:       r.EcoBonus,
		Points:         r.TotalPoints,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO laps (id, user_id, track, elapsed_seconds, distance_km, avg_speed_kmh, co2_saved_kg, eco_bonus, points)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING finished_at
	`, lap.ID, lap.UserID, lap.Track, lap.ElapsedSeconds, lap.DistanceKm, lap.AvgSpeedKmh, lap.CO2SavedKg, lap.EcoBonus, lap.Points)
	if err := row.Scan(&lap.FinishedAt); err != nil {
		return Lap{}, err
	}
	return lap, nil
}

// Laps returns the most recent laps of a user, newest first.
func (s *Service) Laps(ctx context.Context, userID string, limit int) ([]Lap, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, track, elapsed_seconds, distance_km, avg_speed_kmh, co2_saved_kg, eco_bonus, points, finished_at
		FROM laps WHERE user_id=$1
		ORDER BY finished_at DESC
		LIMIT $2
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	laps := []Lap{}
	for rows.Next() {
		var l Lap
		if err := rows.Scan(&l.ID, &l.UserID, &l.Track, &l.ElapsedSeconds, &l.DistanceKm, &l.AvgSpeedKmh, &l.CO2SavedKg, &l.EcoBonus, &l.Points, &l.FinishedAt); err != nil {
			return nil, err
		}
		l.LapTime = race.FormatLapTime(l.ElapsedSeconds)
		laps = append(laps, l)
	}
	return laps, rows.Err()
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(distance_km),0), COALESCE(SUM(co2_saved_kg),0), COALESCE(SUM(points),0),
			COALESCE(AVG(elapsed_seconds),0), COALESCE(MIN(elapsed_seconds) FILTER (WHERE elapsed_seconds > 0),0)
		FROM laps WHERE user_id=$1
	`, userID)
	var (
		st  Stats
		avg float64
	)
	if err := row.Scan(&st.TotalTrips, &st.TotalDistanceKm, &st.TotalCO2Kg, &st.TotalPoints, &avg, &st.BestLapSeconds); err != nil {
		return Stats{}, err
	}
	st.AvgLapSeconds = int(math.Round(avg))
	st.AvgLapTime = race.FormatLapTime(st.AvgLapSeconds)
	st.BestLapTime = race.FormatLapTime(st.BestLapSeconds)
	return st, nil
}

// Daily returns one total per day with at least one lap since the given
// instant, oldest first.
func (s *Service) Daily(ctx context.Context, userID string, since time.Time) ([]DayTotal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT date_trunc('day', finished_at AT TIME ZONE 'UTC') AS day, COUNT(*), SUM(points), SUM(co2_saved_kg), SUM(distance_km)
		FROM laps WHERE user_id=$1 AND finished_at >= $2
		GROUP BY day
		ORDER BY day
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []DayTotal{}
	for rows.Next() {
		var d DayTotal
		if err := rows.Scan(&d.Day, &d.Trips, &d.Points, &d.CO2SavedKg, &d.DistanceKm); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Today returns the totals of the current UTC day, zero when nothing was
// ridden yet.
func (s *Service) Today(ctx context.Context, userID string, now time.Time) (DayTotal, error) {
	start := StartOfDay(now)
	days, err := s.Daily(ctx, userID, start)
	if err != nil {
		return DayTotal{}, err
	}
	for _, d := range days {
		if d.Day.Equal(start) {
			return d, nil
		}
	}
	return DayTotal{Day: start}, nil
}

func (s *Service) TrackRecord(ctx context.Context, userID, track string) (TrackRecord, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE user_id=$1),
			COALESCE(MIN(elapsed_seconds) FILTER (WHERE user_id=$1 AND elapsed_seconds > 0),0),
			COALESCE(MIN(elapsed_seconds) FILTER (WHERE elapsed_seconds > 0),0)
		FROM laps WHERE track=$2
	`, userID, track)
	rec := TrackRecord{Track: track}
	if err := row.Scan(&rec.Attempts, &rec.PersonalBestSeconds, &rec.TrackBestSeconds); err != nil {
		return TrackRecord{}, err
	}
	rec.PersonalBest = race.FormatLapTime(rec.PersonalBestSeconds)
	rec.TrackBest = race.FormatLapTime(rec.TrackBestSeconds)
	return rec, nil
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
