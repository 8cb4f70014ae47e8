package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

const (
	keyGlobal  = "lb:global"
	keyNames   = "lb:names"
	keyAvatars = "lb:avatars"
	keyCO2     = "lb:co2"
	keyStreak  = "lb:streak"

	// weekly keys outlive their week so last week's board can still be read
	weeklyTTL = 14 * 24 * time.Hour

	MaxLimit = 100
)

var ErrNoRedis = fmt.Errorf("leaderboard: redis not configured: %w", fault.ErrUnavailable)

type Service struct {
	redis *redis.Client
	now   func() time.Time
}

func NewService(rdb *redis.Client) *Service {
	return &Service{redis: rdb, now: time.Now}
}

// AddPoints applies a credit to both boards and the per-user side data in
// one MULTI/EXEC.
func (s *Service) AddPoints(ctx context.Context, c Credit) error {
	if s.redis == nil {
		return ErrNoRedis
	}
	if c.UserID == "" || c.Points < 0 {
		return fmt.Errorf("leaderboard: invalid credit: %w", fault.ErrInvalidArgument)
	}
	at := c.At
	if at.IsZero() {
		at = s.now()
	}
	week := weekKey(at)
	trips := tripsKey(at)

	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZIncrBy(ctx, keyGlobal, float64(c.Points), c.UserID)
		p.ZIncrBy(ctx, week, float64(c.Points), c.UserID)
		p.Expire(ctx, week, weeklyTTL)
		if c.Name != "" {
			p.HSet(ctx, keyNames, c.UserID, c.Name)
		}
		if c.Avatar != "" {
			p.HSet(ctx, keyAvatars, c.UserID, c.Avatar)
		}
		if c.CO2SavedKg > 0 {
			p.HIncrByFloat(ctx, keyCO2, c.UserID, c.CO2SavedKg)
		}
		if c.Streak > 0 {
			p.HSet(ctx, keyStreak, c.UserID, c.Streak)
		}
		if c.Trip {
			p.HIncrBy(ctx, trips, c.UserID, 1)
			p.Expire(ctx, trips, weeklyTTL)
		}
		return nil
	})
	return err
}

// Top returns the first limit entries of a board, best first.
func (s *Service) Top(ctx context.Context, board Board, limit int) ([]Entry, error) {
	if s.redis == nil {
		return nil, ErrNoRedis
	}
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	zs, err := s.redis.ZRevRangeWithScores(ctx, s.boardKey(board), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := lo.Map(zs, func(z redis.Z, i int) Entry {
		id, _ := z.Member.(string)
		return Entry{Rank: i + 1, UserID: id, Points: int(z.Score)}
	})
	if err := s.decorate(ctx, board, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Rank reports the 1-based position of userID. Rank is 0 when the user
// has not scored on the board yet.
func (s *Service) Rank(ctx context.Context, board Board, userID string) (Standing, error) {
	if s.redis == nil {
		return Standing{}, ErrNoRedis
	}
	key := s.boardKey(board)
	pipe := s.redis.Pipeline()
	card := pipe.ZCard(ctx, key)
	rank := pipe.ZRevRank(ctx, key, userID)
	score := pipe.ZScore(ctx, key, userID)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Standing{}, err
	}

	st := Standing{Board: board, Total: int(card.Val())}
	if errors.Is(rank.Err(), redis.Nil) {
		return st, nil
	}
	st.Rank = int(rank.Val()) + 1
	st.Points = int(score.Val())
	return st, nil
}

// Friends ranks userID among friendIDs on the global board.
func (s *Service) Friends(ctx context.Context, userID string, friendIDs []string) ([]Entry, error) {
	if s.redis == nil {
		return nil, ErrNoRedis
	}
	ids := lo.Uniq(append(lo.Compact(friendIDs), userID))
	scores, err := s.redis.ZMScore(ctx, keyGlobal, ids...).Result()
	if err != nil {
		return nil, err
	}
	entries := lo.Map(ids, func(id string, i int) Entry {
		return Entry{UserID: id, Points: int(scores[i]), IsCurrentUser: id == userID}
	})
	slices.SortStableFunc(entries, func(a, b Entry) int { return b.Points - a.Points })
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if err := s.decorate(ctx, Global, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// decorate fills names, avatars, CO2, streaks and weekly trips.
func (s *Service) decorate(ctx context.Context, board Board, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := lo.Map(entries, func(e Entry, _ int) string { return e.UserID })

	pipe := s.redis.Pipeline()
	names := pipe.HMGet(ctx, keyNames, ids...)
	avatars := pipe.HMGet(ctx, keyAvatars, ids...)
	co2 := pipe.HMGet(ctx, keyCO2, ids...)
	streaks := pipe.HMGet(ctx, keyStreak, ids...)
	var trips *redis.SliceCmd
	if board == Weekly {
		trips = pipe.HMGet(ctx, tripsKey(s.now()), ids...)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	for i := range entries {
		entries[i].Name = str(names.Val(), i)
		entries[i].Avatar = str(avatars.Val(), i)
		entries[i].CO2SavedKg, _ = strconv.ParseFloat(str(co2.Val(), i), 64)
		entries[i].Streak, _ = strconv.Atoi(str(streaks.Val(), i))
		if trips != nil {
			entries[i].Trips, _ = strconv.Atoi(str(trips.Val(), i))
		}
	}
	return nil
}

func (s *Service) boardKey(board Board) string {
	if board == Weekly {
		return weekKey(s.now())
	}
	return keyGlobal
}

func weekKey(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("lb:weekly:%d-W%02d", y, w)
}

func tripsKey(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("lb:trips:%d-W%02d", y, w)
}

func str(vals []any, i int) string {
	if i >= len(vals) {
		return ""
	}
	v, _ := vals[i].(string)
	return v
}
