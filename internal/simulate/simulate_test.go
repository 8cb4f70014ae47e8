package simulate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

func TestRandomSourceBounds(t *testing.T) {
	src := NewRandomSource(42)
	for i := 0; i < 1000; i++ {
		s := src.Next()
		assert.GreaterOrEqual(t, s.SpeedKmh, MinSpeedKmh)
		assert.Less(t, s.SpeedKmh, MaxSpeedKmh)
		assert.GreaterOrEqual(t, s.DistanceKm, 0.0)
		assert.Less(t, s.DistanceKm, MaxIncrementKm)
	}
}

func TestRandomSourceIsSeeded(t *testing.T) {
	a, b := NewRandomSource(7), NewRandomSource(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestDriveFeedsSession(t *testing.T) {
	s := race.NewSession()
	require.NoError(t, s.Start())

	src := SourceFunc(func() Sample { return Sample{SpeedKmh: 30, DistanceKm: 0.05} })
	n, err := Drive(context.Background(), s, src, time.Millisecond, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	require.NoError(t, s.Stop())
	r, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, 9, r.ElapsedSeconds)
	assert.Equal(t, 30, r.TotalPoints)
}

func TestDriveStopsOnCancel(t *testing.T) {
	s := race.NewSession()
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	n, err := Drive(ctx, s, NewRandomSource(1), time.Millisecond, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, s.ElapsedSeconds(), n)
}

func TestDriveReturnsTickError(t *testing.T) {
	s := race.NewSession()
	n, err := Drive(context.Background(), s, NewRandomSource(1), time.Millisecond, 3)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, fault.ErrInvalidState)
}
