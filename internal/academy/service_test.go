package academy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/leaderboard"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/profile"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

type recorded struct {
	userID, quizID string
	points         int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
	done  map[string]bool
	err   error
}

func (f *fakeRecorder) RecordQuiz(_ context.Context, userID, quizID string, points int) (profile.Profile, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return profile.Profile{}, false, f.err
	}
	f.calls = append(f.calls, recorded{userID, quizID, points})
	if f.done == nil {
		f.done = map[string]bool{}
	}
	key := userID + "/" + quizID
	if f.done[key] {
		return profile.Profile{}, false, nil
	}
	f.done[key] = true
	return profile.Profile{}, true, nil
}

func newTestService(t *testing.T, rec QuizRecorder, opts ...Option) *Service {
	t.Helper()
	c, err := LoadCatalog("")
	require.NoError(t, err)
	return NewService(c, rec, opts...)
}

type fakeBoard struct {
	credits []leaderboard.Credit
}

func (f *fakeBoard) AddPoints(_ context.Context, c leaderboard.Credit) error {
	f.credits = append(f.credits, c)
	return nil
}

func play(t *testing.T, svc *Service, userID string, answers []int) Attempt {
	t.Helper()
	var a Attempt
	var err error
	for _, ans := range answers {
		_, err = svc.Select(userID, ans)
		require.NoError(t, err)
		_, err = svc.Submit(userID)
		require.NoError(t, err)
		a, err = svc.Advance(context.Background(), userID)
		require.NoError(t, err)
	}
	return a
}

func TestAttemptFlowCreditsProfile(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(t, rec)

	a, err := svc.StartQuiz("user-1", "lane-change-safety")
	require.NoError(t, err)
	assert.Equal(t, 3, a.Total)
	require.NotNil(t, a.Question)
	assert.Equal(t, "What's the safest way to change lanes?", a.Question.Prompt)
	assert.Nil(t, a.Reveal)

	_, err = svc.Select("user-1", 0)
	require.NoError(t, err)
	a, err = svc.Submit("user-1")
	require.NoError(t, err)
	require.NotNil(t, a.Reveal)
	assert.True(t, a.Reveal.Correct)
	assert.Equal(t, 1, a.Score)

	a, err = svc.Advance(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Index)
	assert.Nil(t, a.Selected)

	a = play(t, svc, "user-1", []int{2, 3})
	assert.True(t, a.Complete)
	assert.Nil(t, a.Question)
	assert.Equal(t, 2, a.Score)
	assert.Equal(t, 100, a.PointsAwarded)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, recorded{"user-1", "lane-change-safety", 100}, rec.calls[0])

	_, err = svc.Advance(context.Background(), "user-1")
	assert.ErrorIs(t, err, fault.ErrInvalidState)
	require.Len(t, rec.calls, 1)
}

func TestRetakeIsNotCreditedTwice(t *testing.T) {
	rec := &fakeRecorder{}
	board := &fakeBoard{}
	svc := newTestService(t, rec, WithLeaderboard(board))

	_, err := svc.StartQuiz("user-1", "fuel-efficiency-basics")
	require.NoError(t, err)
	a := play(t, svc, "user-1", []int{1, 2})
	assert.Equal(t, 100, a.PointsAwarded)

	_, err = svc.StartQuiz("user-1", "fuel-efficiency-basics")
	require.NoError(t, err)
	a = play(t, svc, "user-1", []int{1, 2})
	assert.Zero(t, a.PointsAwarded)

	require.Len(t, board.credits, 1)
	assert.Equal(t, "user-1", board.credits[0].UserID)
	assert.Equal(t, 100, board.credits[0].Points)
	assert.False(t, board.credits[0].Trip)
}

func TestZeroScoreIsNotRecorded(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(t, rec)

	_, err := svc.StartQuiz("user-1", "fuel-efficiency-basics")
	require.NoError(t, err)
	a := play(t, svc, "user-1", []int{0, 0})
	assert.True(t, a.Complete)
	assert.Zero(t, a.PointsAwarded)
	assert.Empty(t, rec.calls)
}

func TestCreditFailureIsLogged(t *testing.T) {
	svc := newTestService(t, &fakeRecorder{err: errors.New("db down")})
	_, err := svc.StartQuiz("user-1", "fuel-efficiency-basics")
	require.NoError(t, err)
	a := play(t, svc, "user-1", []int{1, 2})
	assert.True(t, a.Complete)
	assert.Zero(t, a.PointsAwarded)
}

func TestAttemptErrors(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.StartQuiz("user-1", "nope")
	assert.ErrorIs(t, err, fault.ErrNotFound)

	_, err = svc.Current("user-1")
	assert.ErrorIs(t, err, ErrNoAttempt)
	_, err = svc.Select("user-1", 0)
	assert.ErrorIs(t, err, ErrNoAttempt)
	_, err = svc.Submit("user-1")
	assert.ErrorIs(t, err, ErrNoAttempt)
	_, err = svc.Advance(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNoAttempt)
	assert.ErrorIs(t, svc.Abandon("user-1"), ErrNoAttempt)

	_, err = svc.StartQuiz("user-1", "fuel-efficiency-basics")
	require.NoError(t, err)
	_, err = svc.Submit("user-1")
	assert.ErrorIs(t, err, fault.ErrInvalidState)
	_, err = svc.Select("user-1", 9)
	assert.ErrorIs(t, err, fault.ErrInvalidArgument)

	require.NoError(t, svc.Abandon("user-1"))
	_, err = svc.Current("user-1")
	assert.ErrorIs(t, err, ErrNoAttempt)
}

func TestAttemptsAreIsolatedPerUser(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.StartQuiz("user-1", "lane-change-safety")
	require.NoError(t, err)
	_, err = svc.StartQuiz("user-2", "fuel-efficiency-basics")
	require.NoError(t, err)

	_, err = svc.Select("user-1", 0)
	require.NoError(t, err)
	a, err := svc.Current("user-2")
	require.NoError(t, err)
	assert.Nil(t, a.Selected)
	assert.Equal(t, "fuel-efficiency-basics", a.QuizID)
}

func TestAward(t *testing.T) {
	assert.Equal(t, 150, Award(150, 3, 3))
	assert.Equal(t, 100, Award(150, 2, 3))
	assert.Equal(t, 50, Award(150, 1, 3))
	assert.Equal(t, 50, Award(100, 1, 2))
	assert.Zero(t, Award(100, 0, 2))
	assert.Zero(t, Award(100, 1, 0))
	assert.Equal(t, 100, Award(100, 5, 2))
}
