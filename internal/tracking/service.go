package tracking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/leaderboard"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/profile"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/geo"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/trip"
)

var (
	ErrRaceNotFound   = fmt.Errorf("tracking: race not found: %w", fault.ErrNotFound)
	ErrRaceInProgress = fmt.Errorf("tracking: a race is already running: %w", fault.ErrInvalidState)
	ErrBadTick        = fmt.Errorf("tracking: tick needs distance_km or lat and lng: %w", fault.ErrInvalidArgument)
	ErrBadFix         = fmt.Errorf("tracking: fix outside WGS84 bounds: %w", fault.ErrInvalidArgument)
)

type LapStore interface {
	SaveLap(ctx context.Context, userID, track string, r race.Result) (trip.Lap, error)
}

type ProfileCreditor interface {
	RecordLap(ctx context.Context, userID string, credit profile.LapCredit) (profile.Profile, []string, error)
}

type Ranker interface {
	AddPoints(ctx context.Context, c leaderboard.Credit) error
	Rank(ctx context.Context, board leaderboard.Board, userID string) (leaderboard.Standing, error)
}

type Publisher interface {
	Publish(raceID string, v any) error
}

type live struct {
	mu sync.Mutex
	// running mirrors session.State() == race.Running for readers that
	// must not wait on mu.
	running atomic.Bool

	id        string
	userID    string
	track     string
	session   *race.Session
	createdAt time.Time
	last      *fix
	lapID     string
	unlocked  []string
}

type Service struct {
	ecoBonus float64
	laps     LapStore
	profiles ProfileCreditor
	board    Ranker
	pub      Publisher
	now      func() time.Time
	logger   *zap.Logger

	mu     sync.RWMutex
	races  map[string]*live
	byUser map[string]string
}

type Option func(*Service)

func WithProfiles(p ProfileCreditor) Option {
	return func(s *Service) { s.profiles = p }
}

func WithLeaderboard(r Ranker) Option {
	return func(s *Service) { s.board = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithDefaultEcoBonus sets the multiplier for races created without one.
func WithDefaultEcoBonus(m float64) Option {
	return func(s *Service) { s.ecoBonus = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(laps LapStore, opts ...Option) *Service {
	s := &Service{
		laps:   laps,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.Default().Named("tracking"),
		races:  map[string]*live{},
		byUser: map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens an Idle race for userID. A user holds one race at a time:
// a previous idle or finished race is dropped, a running one is a conflict.
func (s *Service) Create(userID string, req CreateRequest) (Race, error) {
	if userID == "" {
		return Race{}, fmt.Errorf("tracking: user id required: %w", fault.ErrInvalidArgument)
	}
	if req.EcoBonus < 0 {
		return Race{}, fmt.Errorf("tracking: eco bonus must be positive: %w", fault.ErrInvalidArgument)
	}
	bonus := req.EcoBonus
	if bonus == 0 {
		bonus = s.ecoBonus
	}
	track := req.Track
	if track == "" {
		track = trip.FreeRide
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prevID, ok := s.byUser[userID]; ok {
		if s.races[prevID].running.Load() {
			return Race{}, ErrRaceInProgress
		}
		delete(s.races, prevID)
	}

	lr := &live{
		id:        uuid.NewString(),
		userID:    userID,
		track:     track,
		session:   race.NewSession(race.WithEcoBonus(bonus)),
		createdAt: s.now(),
	}
	s.races[lr.id] = lr
	s.byUser[userID] = lr.id
	s.logger.Debug("race created", zap.String("race_id", lr.id), zap.String("user_id", userID), zap.String("track", track))
	return lr.snapshot(), nil
}

func (s *Service) Get(userID, raceID string) (Race, error) {
	lr, err := s.get(userID, raceID)
	if err != nil {
		return Race{}, err
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.snapshot(), nil
}

// Current returns the user's race, whatever its state.
func (s *Service) Current(userID string) (Race, error) {
	s.mu.RLock()
	id, ok := s.byUser[userID]
	s.mu.RUnlock()
	if !ok {
		return Race{}, ErrRaceNotFound
	}
	return s.Get(userID, id)
}

func (s *Service) Start(userID, raceID string) (Race, error) {
	return s.apply(userID, raceID, func(lr *live) error {
		if err := lr.session.Start(); err != nil {
			return err
		}
		lr.last = nil
		lr.lapID = ""
		lr.unlocked = nil
		return nil
	})
}

func (s *Service) Tick(userID, raceID string, req TickRequest) (Race, error) {
	return s.apply(userID, raceID, func(lr *live) error {
		if lr.session.State() != race.Running {
			return lr.session.Tick(0, 0)
		}
		speed, inc, next, err := sample(lr.last, req)
		if err != nil {
			return err
		}
		if err := lr.session.Tick(speed, inc); err != nil {
			return err
		}
		if next != nil {
			lr.last = next
		}
		return nil
	})
}

// Stop finishes the race and persists the lap. The race stays running
// when the lap cannot be stored, so the call can be retried. Profile and
// leaderboard credit follow outside the race lock on a best-effort basis.
func (s *Service) Stop(ctx context.Context, userID, raceID string) (Race, error) {
	lr, err := s.get(userID, raceID)
	if err != nil {
		return Race{}, err
	}

	var (
		result race.Result
		lap    trip.Lap
	)
	finished, err := lr.update(func(lr *live) error {
		if lr.session.State() != race.Running {
			return lr.session.Stop()
		}
		result = race.Compute(lr.session.ElapsedSeconds(), lr.session.DistanceKm(), lr.session.EcoBonus())
		saved, err := s.laps.SaveLap(ctx, lr.userID, lr.track, result)
		if err != nil {
			return fmt.Errorf("save lap: %w", err)
		}
		if err := lr.session.Stop(); err != nil {
			return err
		}
		lr.lapID = saved.ID
		lap = saved
		return nil
	})
	if err != nil {
		return Race{}, err
	}
	s.publish(finished)
	s.logger.Info("race finished",
		zap.String("race_id", lr.id), zap.String("user_id", lr.userID),
		zap.Int("elapsed_seconds", result.ElapsedSeconds), zap.Float64("distance_km", result.DistanceKm),
		zap.Int("points", result.TotalPoints))

	unlocked, standing := s.credit(ctx, lr, result, lap.FinishedAt)

	attached := false
	credited, _ := lr.update(func(lr *live) error {
		// a reset or restart while crediting owns the race now
		if lr.lapID != lap.ID {
			return nil
		}
		lr.unlocked = unlocked
		if standing != nil {
			lr.session.SetStanding(standing.Rank, standing.Total)
		}
		attached = true
		return nil
	})
	if !attached {
		return finished, nil
	}
	s.publish(credited)
	return credited, nil
}

func (s *Service) Result(userID, raceID string) (race.Result, error) {
	lr, err := s.get(userID, raceID)
	if err != nil {
		return race.Result{}, err
	}
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.session.Result()
}

func (s *Service) Reset(userID, raceID string) (Race, error) {
	return s.apply(userID, raceID, func(lr *live) error {
		if err := lr.session.Reset(); err != nil {
			return err
		}
		lr.last = nil
		lr.lapID = ""
		lr.unlocked = nil
		return nil
	})
}

// Discard drops the race without recording anything.
func (s *Service) Discard(userID, raceID string) error {
	if _, err := s.get(userID, raceID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.races, raceID)
	if s.byUser[userID] == raceID {
		delete(s.byUser, userID)
	}
	s.mu.Unlock()
	return nil
}

// Active is the number of races currently held in memory.
func (s *Service) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.races)
}

func (s *Service) get(userID, raceID string) (*live, error) {
	s.mu.RLock()
	lr, ok := s.races[raceID]
	s.mu.RUnlock()
	if !ok || lr.userID != userID {
		return nil, ErrRaceNotFound
	}
	return lr, nil
}

// apply runs fn under the race lock and publishes the resulting snapshot.
func (s *Service) apply(userID, raceID string, fn func(*live) error) (Race, error) {
	lr, err := s.get(userID, raceID)
	if err != nil {
		return Race{}, err
	}
	snap, err := lr.update(fn)
	if err != nil {
		return Race{}, err
	}
	s.publish(snap)
	return snap, nil
}

// update runs fn under the race lock and returns the resulting snapshot.
func (lr *live) update(fn func(*live) error) (Race, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	defer func() { lr.running.Store(lr.session.State() == race.Running) }()

	if err := fn(lr); err != nil {
		return Race{}, err
	}
	return lr.snapshot(), nil
}

// credit records the finished lap on the profile and leaderboard. It
// returns the achievements unlocked and the resulting global standing,
// each nil when its update failed.
func (s *Service) credit(ctx context.Context, lr *live, r race.Result, at time.Time) ([]string, *leaderboard.Standing) {
	if at.IsZero() {
		at = s.now()
	}
	c := leaderboard.Credit{
		UserID:     lr.userID,
		Points:     r.TotalPoints,
		CO2SavedKg: r.CO2SavedKg,
		Trip:       true,
		At:         at,
	}
	var unlocked []string
	if s.profiles != nil {
		p, u, err := s.profiles.RecordLap(ctx, lr.userID, profile.LapCredit{
			Points:     r.TotalPoints,
			CO2SavedKg: r.CO2SavedKg,
			DistanceKm: r.DistanceKm,
			At:         at,
		})
		if err != nil {
			s.logger.Warn("profile credit failed", zap.String("race_id", lr.id), log.ErrorField(err))
		} else {
			unlocked = u
			c.Name, c.Avatar, c.Streak = p.Name, p.Avatar, p.StreakDays
		}
	}
	if s.board == nil {
		return unlocked, nil
	}
	if err := s.board.AddPoints(ctx, c); err != nil {
		s.logger.Warn("leaderboard credit failed", zap.String("race_id", lr.id), log.ErrorField(err))
		return unlocked, nil
	}
	st, err := s.board.Rank(ctx, leaderboard.Global, lr.userID)
	if err != nil {
		s.logger.Warn("leaderboard rank failed", zap.String("race_id", lr.id), log.ErrorField(err))
		return unlocked, nil
	}
	return unlocked, &st
}

func (s *Service) publish(r Race) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(r.ID, r); err != nil {
		s.logger.Debug("publish snapshot failed", zap.String("race_id", r.ID), log.ErrorField(err))
	}
}

func (lr *live) snapshot() Race {
	r := Race{
		ID:             lr.id,
		UserID:         lr.userID,
		Track:          lr.track,
		State:          lr.session.State(),
		ElapsedSeconds: lr.session.ElapsedSeconds(),
		LapTime:        race.FormatLapTime(lr.session.ElapsedSeconds()),
		DistanceKm:     lr.session.DistanceKm(),
		EcoBonus:       lr.session.EcoBonus(),
		CreatedAt:      lr.createdAt,
		LapID:          lr.lapID,
		Unlocked:       lr.unlocked,
	}
	if r.State == race.Running {
		r.SpeedKmh = lr.session.SpeedKmh()
	}
	if res, err := lr.session.Result(); err == nil {
		r.Result = &res
	}
	return r
}

// sample turns a tick request into the speed and distance the session
// accumulates. next is the fix to remember, if the request carried one.
func sample(prev *fix, req TickRequest) (speed, inc float64, next *fix, err error) {
	switch {
	case req.Lat != nil && req.Lng != nil:
		if !geo.ValidFix(*req.Lat, *req.Lng) {
			return 0, 0, nil, ErrBadFix
		}
		next = &fix{lat: *req.Lat, lng: *req.Lng}
		if prev != nil {
			inc = geo.HaversineKm(prev.lat, prev.lng, next.lat, next.lng)
		}
	case req.Lat != nil || req.Lng != nil:
		return 0, 0, nil, ErrBadTick
	case req.DistanceKm != nil:
		inc = *req.DistanceKm
	default:
		return 0, 0, nil, ErrBadTick
	}
	// one tick is one second
	speed = inc * 3600
	if req.SpeedKmh != nil {
		speed = *req.SpeedKmh
	}
	return speed, inc, next, nil
}
