package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/db"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/validate"
)

const maxUpdateAttempts = 3

var (
	ErrAlreadyOnboarded = fmt.Errorf("profile: already onboarded: %w", fault.ErrInvalidState)
	ErrConcurrentUpdate = fmt.Errorf("profile: concurrent update, retry later: %w", fault.ErrUnavailable)
)

// FriendCounter supplies the friend count for the Social Butterfly
// achievement.
type FriendCounter interface {
	FriendCount(ctx context.Context, userID string) (int, error)
}

type Service struct {
	db           db.Querier
	friends      FriendCounter
	quizzesTotal int
	now          func() time.Time
	logger       *zap.Logger
}

type Option func(*Service)

func WithFriendCounter(f FriendCounter) Option {
	return func(s *Service) { s.friends = f }
}

// WithQuizzesTotal sets the academy catalog size used by Green Guru.
func WithQuizzesTotal(n int) Option {
	return func(s *Service) { s.quizzesTotal = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(q db.Querier, opts ...Option) *Service {
	s := &Service{
		db:     db.OrUnavailable(q),
		now:    time.Now,
		logger: log.Default().Named("profile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT doc FROM profiles WHERE user_id=$1`, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, fault.ErrNotFound)
	}
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(doc, &p); err != nil {
		return Profile{}, fmt.Errorf("profile %s: decode: %w", userID, err)
	}
	return p, nil
}

// Onboard fills in the display fields of a new user. A profile created
// implicitly by an earlier race keeps its counters.
func (s *Service) Onboard(ctx context.Context, userID string, req OnboardRequest) (Profile, error) {
	if err := validate.Struct(req); err != nil {
		return Profile{}, err
	}
	p := s.fresh(userID)
	p.Name, p.Avatar, p.Vehicle, p.Onboarded = req.Name, req.Avatar, req.Vehicle, true
	created, err := s.insert(ctx, p)
	if err != nil {
		return Profile{}, err
	}
	if created {
		s.logger.Info("user onboarded", zap.String("user_id", userID))
		return p, nil
	}
	return s.mutate(ctx, userID, func(p *Profile) error {
		if p.Onboarded {
			return ErrAlreadyOnboarded
		}
		p.Name, p.Avatar, p.Vehicle, p.Onboarded = req.Name, req.Avatar, req.Vehicle, true
		return nil
	})
}

func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (Profile, error) {
	if err := validate.Struct(req); err != nil {
		return Profile{}, err
	}
	return s.mutate(ctx, userID, func(p *Profile) error {
		if req.Name != "" {
			p.Name = req.Name
		}
		if req.Avatar != "" {
			p.Avatar = req.Avatar
		}
		if req.Vehicle != "" {
			p.Vehicle = req.Vehicle
		}
		return nil
	})
}

// RecordLap credits a finished race and advances the daily streak. It
// returns the updated profile and any achievements it unlocked.
func (s *Service) RecordLap(ctx context.Context, userID string, credit LapCredit) (Profile, []string, error) {
	if credit.Points < 0 || credit.CO2SavedKg < 0 || credit.DistanceKm < 0 {
		return Profile{}, nil, fmt.Errorf("profile: negative lap credit: %w", fault.ErrInvalidArgument)
	}
	at := credit.At
	if at.IsZero() {
		at = s.now()
	}
	friends := s.friendCount(ctx, userID)
	var unlocked []string
	p, err := s.mutate(ctx, userID, func(p *Profile) error {
		p.Points += credit.Points
		p.CO2SavedKg += credit.CO2SavedKg
		p.DistanceKm += credit.DistanceKm
		p.Laps++
		advanceStreak(p, at)
		unlocked = unlock(p, progressOf(*p, s.quizzesTotal, friends))
		return nil
	})
	if err != nil {
		return Profile{}, nil, err
	}
	return p, unlocked, nil
}

// RecordQuiz marks quizID completed and adds points. A quiz already
// completed earns nothing further; awarded reports whether points were added.
func (s *Service) RecordQuiz(ctx context.Context, userID, quizID string, points int) (p Profile, awarded bool, err error) {
	if quizID == "" || points < 0 {
		return Profile{}, false, fmt.Errorf("profile: invalid quiz credit: %w", fault.ErrInvalidArgument)
	}
	friends := s.friendCount(ctx, userID)
	p, err = s.mutate(ctx, userID, func(p *Profile) error {
		awarded = false
		if slices.Contains(p.CompletedQuizzes, quizID) {
			return nil
		}
		p.CompletedQuizzes = append(p.CompletedQuizzes, quizID)
		p.Points += points
		awarded = true
		unlock(p, progressOf(*p, s.quizzesTotal, friends))
		return nil
	})
	return p, awarded, err
}

func (s *Service) Achievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Evaluate(progressOf(p, s.quizzesTotal, s.friendCount(ctx, userID)), p.Achievements), nil
}

func (s *Service) fresh(userID string) Profile {
	return Profile{
		UserID:           userID,
		Points:           StartingPoints,
		Level:            LevelFor(StartingPoints),
		CompletedQuizzes: []string{},
		Achievements:     []string{},
		CreatedAt:        s.now().UTC(),
	}
}

func (s *Service) insert(ctx context.Context, p Profile) (bool, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO profiles (user_id, doc, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID, doc)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// mutate applies fn under optimistic concurrency on the document version.
// A missing profile is created with the starting balance first.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*Profile) error) (Profile, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		p, err := s.Get(ctx, userID)
		if errors.Is(err, fault.ErrNotFound) {
			if _, err := s.insert(ctx, s.fresh(userID)); err != nil {
				return Profile{}, err
			}
			continue
		}
		if err != nil {
			return Profile{}, err
		}

		if err := fn(&p); err != nil {
			return Profile{}, err
		}
		prev := p.Version
		p.Version++
		p.Level = LevelFor(p.Points)
		doc, err := json.Marshal(p)
		if err != nil {
			return Profile{}, err
		}
		tag, err := s.db.Exec(ctx, `
			UPDATE profiles SET doc=$2, updated_at=now()
			WHERE user_id=$1 AND (doc->>'version')::int=$3
		`, userID, doc, prev)
		if err != nil {
			return Profile{}, err
		}
		if tag.RowsAffected() == 1 {
			return p, nil
		}
		s.logger.Debug("profile version conflict", zap.String("user_id", userID), zap.Int("attempt", attempt+1))
	}
	return Profile{}, ErrConcurrentUpdate
}

func (s *Service) friendCount(ctx context.Context, userID string) int {
	if s.friends == nil {
		return 0
	}
	n, err := s.friends.FriendCount(ctx, userID)
	if err != nil {
		s.logger.Warn("friend count unavailable", zap.String("user_id", userID), log.ErrorField(err))
		return 0
	}
	return n
}

// advanceStreak: same day leaves the streak, the following day extends
// it, any longer gap restarts it at 1.
func advanceStreak(p *Profile, at time.Time) {
	today := at.UTC().Format(dayLayout)
	switch {
	case p.LastActiveDay == today:
		return
	case p.LastActiveDay == at.UTC().AddDate(0, 0, -1).Format(dayLayout):
		p.StreakDays++
	default:
		p.StreakDays = 1
	}
	p.LastActiveDay = today
	if p.StreakDays > p.BestStreak {
		p.BestStreak = p.StreakDays
	}
}
