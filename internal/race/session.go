// Package race implements the trip ("race") state machine: a pure
// accumulator driven by an external tick source.
//
// A Session is not safe for concurrent use. Hosts that share one across
// goroutines must serialise calls themselves.
package race

import (
	"errors"
	"fmt"
	"math"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

type State int

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for c := Idle; c <= Finished; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("race: unknown state %q", b)
}

// DefaultEcoBonus rewards sustainable transport with +50% points.
const DefaultEcoBonus = 1.5

var ErrInvalidSample = fault.Precondition(errors.New("race: sample must be a non-negative number"))

type Session struct {
	state       State
	elapsed     int
	distanceKm  float64
	speedKmh    float64
	ecoBonus    float64
	position    int
	totalRacers int
	result      Result
}

type Option func(*Session)

// WithEcoBonus sets the points multiplier. Non-positive values are ignored.
func WithEcoBonus(m float64) Option {
	return func(s *Session) {
		if m > 0 && !math.IsInf(m, 0) {
			s.ecoBonus = m
		}
	}
}

func WithStanding(position, total int) Option {
	return func(s *Session) {
		s.SetStanding(position, total)
	}
}

func NewSession(opts ...Option) *Session {
	s := &Session{state: Idle, ecoBonus: DefaultEcoBonus}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a new lap from Idle or Finished, zeroing the counters.
func (s *Session) Start() error {
	if s.state == Running {
		return s.invalid("start")
	}
	s.elapsed = 0
	s.distanceKm = 0
	s.speedKmh = 0
	s.result = Result{}
	s.state = Running
	return nil
}

// Tick records one second of travel. The sample is produced by the
// caller (sensor, GPS feed or simulation).
func (s *Session) Tick(speedKmh, distanceIncrementKm float64) error {
	if s.state != Running {
		return s.invalid("tick")
	}
	if !validSample(speedKmh) || !validSample(distanceIncrementKm) {
		return ErrInvalidSample
	}
	s.elapsed++
	s.distanceKm += distanceIncrementKm
	s.speedKmh = speedKmh
	return nil
}

func (s *Session) Stop() error {
	if s.state != Running {
		return s.invalid("stop")
	}
	s.state = Finished
	s.result = Compute(s.elapsed, s.distanceKm, s.ecoBonus)
	return nil
}

// Result returns the figures cached by Stop together with the current
// standing.
func (s *Session) Result() (Result, error) {
	if s.state != Finished {
		return Result{}, s.invalid("result")
	}
	r := s.result
	r.Position = s.position
	r.TotalRacers = s.totalRacers
	return r, nil
}

func (s *Session) Reset() error {
	if s.state != Finished {
		return s.invalid("reset")
	}
	s.elapsed = 0
	s.distanceKm = 0
	s.speedKmh = 0
	s.result = Result{}
	s.state = Idle
	return nil
}

// SetStanding records the leaderboard position shown next to the result.
func (s *Session) SetStanding(position, total int) {
	if position < 0 {
		position = 0
	}
	if total < position {
		total = position
	}
	s.position = position
	s.totalRacers = total
}

func (s *Session) State() State { return s.state }

func (s *Session) ElapsedSeconds() int { return s.elapsed }

func (s *Session) DistanceKm() float64 { return s.distanceKm }

// SpeedKmh is the most recent sample; it only means something while Running.
func (s *Session) SpeedKmh() float64 { return s.speedKmh }

func (s *Session) EcoBonus() float64 { return s.ecoBonus }

func (s *Session) invalid(op string) error {
	return &fault.InvalidStateError{Machine: "race", Op: op, State: s.state.String()}
}

func validSample(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
