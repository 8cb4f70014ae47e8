package academy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/leaderboard"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/profile"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/quiz"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

var (
	ErrNoAttempt   = fmt.Errorf("academy: no active quiz: %w", fault.ErrNotFound)
	ErrUnknownQuiz = fmt.Errorf("academy: unknown quiz: %w", fault.ErrNotFound)
)

// QuizRecorder credits a completed quiz to the user's profile.
type QuizRecorder interface {
	RecordQuiz(ctx context.Context, userID, quizID string, points int) (profile.Profile, bool, error)
}

// PointsAdder mirrors quiz credit onto the leaderboard.
type PointsAdder interface {
	AddPoints(ctx context.Context, c leaderboard.Credit) error
}

// Attempt is what a client sees of a running quiz. The correct answer
// only appears inside Reveal, after the question was submitted.
type Attempt struct {
	QuizID        string         `json:"quiz_id"`
	Title         string         `json:"title"`
	Phase         quiz.Phase     `json:"phase"`
	Index         int            `json:"index"`
	Total         int            `json:"total"`
	Score         int            `json:"score"`
	Question      *quiz.Question `json:"question,omitempty"`
	Selected      *int           `json:"selected,omitempty"`
	Reveal        *quiz.Reveal   `json:"reveal,omitempty"`
	Complete      bool           `json:"complete"`
	PointsAwarded int            `json:"points_awarded"`
	StartedAt     time.Time      `json:"started_at"`
}

type attempt struct {
	quiz      Quiz
	session   *quiz.Session
	startedAt time.Time
	credited  bool
	awarded   int
}

type Service struct {
	catalog  *Catalog
	recorder QuizRecorder
	board    PointsAdder
	logger   *zap.Logger

	mu       sync.Mutex
	attempts map[string]*attempt
}

type Option func(*Service)

func WithLeaderboard(b PointsAdder) Option {
	return func(s *Service) { s.board = b }
}

func NewService(catalog *Catalog, recorder QuizRecorder, opts ...Option) *Service {
	s := &Service{
		catalog:  catalog,
		recorder: recorder,
		logger:   log.Default().Named("academy"),
		attempts: map[string]*attempt{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Catalog() *Catalog { return s.catalog }

// StartQuiz begins (or restarts) the user's attempt at quizID, replacing
// any other attempt in progress.
func (s *Service) StartQuiz(userID, quizID string) (Attempt, error) {
	q, ok := s.catalog.Quiz(quizID)
	if !ok {
		return Attempt{}, fmt.Errorf("%w: %s", ErrUnknownQuiz, quizID)
	}
	sess := quiz.NewSession()
	if err := sess.Start(q.Questions); err != nil {
		return Attempt{}, err
	}
	a := &attempt{quiz: q, session: sess, startedAt: time.Now().UTC()}

	s.mu.Lock()
	s.attempts[userID] = a
	s.mu.Unlock()
	s.logger.Debug("quiz started", zap.String("user_id", userID), zap.String("quiz_id", quizID))
	return view(a), nil
}

func (s *Service) Current(userID string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[userID]
	if !ok {
		return Attempt{}, ErrNoAttempt
	}
	return view(a), nil
}

func (s *Service) Select(userID string, index int) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[userID]
	if !ok {
		return Attempt{}, ErrNoAttempt
	}
	if err := a.session.SelectAnswer(index); err != nil {
		return Attempt{}, err
	}
	return view(a), nil
}

func (s *Service) Submit(userID string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[userID]
	if !ok {
		return Attempt{}, ErrNoAttempt
	}
	if _, err := a.session.Submit(); err != nil {
		return Attempt{}, err
	}
	return view(a), nil
}

// Advance moves to the next question. Finishing the last one credits the
// profile with the share of the quiz points matching the score.
func (s *Service) Advance(ctx context.Context, userID string) (Attempt, error) {
	s.mu.Lock()
	a, ok := s.attempts[userID]
	if !ok {
		s.mu.Unlock()
		return Attempt{}, ErrNoAttempt
	}
	if err := a.session.Advance(); err != nil {
		s.mu.Unlock()
		return Attempt{}, err
	}
	credit := a.session.IsComplete() && !a.credited
	if credit {
		a.credited = true
	}
	score, total := a.session.Score(), a.session.Total()
	s.mu.Unlock()

	if credit {
		awarded := s.credit(ctx, userID, a.quiz, score, total)
		s.mu.Lock()
		a.awarded = awarded
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return view(a), nil
}

func (s *Service) Abandon(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[userID]; !ok {
		return ErrNoAttempt
	}
	delete(s.attempts, userID)
	return nil
}

// credit records the quiz once per user. A run without a single correct
// answer is not recorded so the quiz stays open for a later attempt.
func (s *Service) credit(ctx context.Context, userID string, q Quiz, score, total int) int {
	points := Award(q.Points, score, total)
	if s.recorder == nil || score == 0 {
		return 0
	}
	p, awarded, err := s.recorder.RecordQuiz(ctx, userID, q.ID, points)
	if err != nil {
		s.logger.Warn("quiz credit failed", zap.String("user_id", userID), zap.String("quiz_id", q.ID), log.ErrorField(err))
		return 0
	}
	if !awarded {
		return 0
	}
	s.logger.Info("quiz completed", zap.String("user_id", userID), zap.String("quiz_id", q.ID),
		zap.Int("score", score), zap.Int("total", total), zap.Int("points", points))
	if s.board != nil {
		err := s.board.AddPoints(ctx, leaderboard.Credit{
			UserID: userID,
			Name:   p.Name,
			Avatar: p.Avatar,
			Points: points,
			Streak: p.StreakDays,
		})
		if err != nil {
			s.logger.Warn("leaderboard credit failed", zap.String("user_id", userID), log.ErrorField(err))
		}
	}
	return points
}

// Award is floor(points × score / total).
func Award(points, score, total int) int {
	if total <= 0 || score <= 0 || points <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	return points * score / total
}

func view(a *attempt) Attempt {
	v := Attempt{
		QuizID:        a.quiz.ID,
		Title:         a.quiz.Title,
		Phase:         a.session.Phase(),
		Index:         a.session.Index(),
		Total:         a.session.Total(),
		Score:         a.session.Score(),
		Complete:      a.session.IsComplete(),
		PointsAwarded: a.awarded,
		StartedAt:     a.startedAt,
	}
	if q, err := a.session.CurrentQuestion(); err == nil {
		v.Question = &q
	}
	if idx, ok := a.session.Selected(); ok && !v.Complete {
		v.Selected = &idx
	}
	if r, err := a.session.LastReveal(); err == nil {
		v.Reveal = &r
	}
	return v
}
