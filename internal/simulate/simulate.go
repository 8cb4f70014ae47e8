// Package simulate produces the periodic samples that drive a race when
// no real sensor is attached.
package simulate

import (
	"context"
	"math/rand"
	"time"
)

const (
	MinSpeedKmh     = 10.0
	MaxSpeedKmh     = 40.0
	MaxIncrementKm  = 0.05
	DefaultInterval = time.Second
)

// Sample is one tick worth of travel.
type Sample struct {
	SpeedKmh   float64
	DistanceKm float64
}

type Source interface {
	Next() Sample
}

// Ticker consumes samples. *race.Session satisfies it.
type Ticker interface {
	Tick(speedKmh, distanceIncrementKm float64) error
}

// RandomSource draws speeds uniformly from [MinSpeedKmh, MaxSpeedKmh) and
// distance increments from [0, MaxIncrementKm).
type RandomSource struct {
	rng *rand.Rand
}

func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomSource) Next() Sample {
	return Sample{
		SpeedKmh:   MinSpeedKmh + r.rng.Float64()*(MaxSpeedKmh-MinSpeedKmh),
		DistanceKm: r.rng.Float64() * MaxIncrementKm,
	}
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() Sample

func (f SourceFunc) Next() Sample { return f() }

// Drive feeds n samples from src into t, one per interval. n <= 0 runs
// until ctx is done. It returns the number of ticks delivered and the
// first Tick error, or ctx.Err() when cancelled before n ticks.
func Drive(ctx context.Context, t Ticker, src Source, interval time.Duration, n int) (int, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()

	done := 0
	for n <= 0 || done < n {
		select {
		case <-ctx.Done():
			return done, ctx.Err()
		case <-tk.C:
			s := src.Next()
			if err := t.Tick(s.SpeedKmh, s.DistanceKm); err != nil {
				return done, err
			}
			done++
		}
	}
	return done, nil
}
