package social

import (
	"context"
	"fmt"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/db"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/race"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

const maxActivity = 50

var ErrSelfFollow = fmt.Errorf("social: cannot follow yourself: %w", fault.ErrInvalidArgument)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: db.OrUnavailable(q)}
}

func (s *Service) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == "" || followingID == "" {
		return fmt.Errorf("social: follower and following required: %w", fault.ErrInvalidArgument)
	}
	if followerID == followingID {
		return ErrSelfFollow
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, followerID, followingID)
	return err
}

func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM user_follows WHERE follower_id=$1 AND following_id=$2
	`, followerID, followingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("social: %s does not follow %s: %w", followerID, followingID, fault.ErrNotFound)
	}
	return nil
}

// Following lists the users userID follows, oldest first. These are the
// "friends" of the friends leaderboard.
func (s *Service) Following(ctx context.Context, userID string) ([]Follow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT follower_id, following_id, created_at
		FROM user_follows WHERE follower_id=$1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	follows := []Follow{}
	for rows.Next() {
		var f Follow
		if err := rows.Scan(&f.FollowerID, &f.FollowingID, &f.CreatedAt); err != nil {
			return nil, err
		}
		follows = append(follows, f)
	}
	return follows, rows.Err()
}

// FollowingIDs is Following reduced to the followed user IDs.
func (s *Service) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	follows, err := s.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(follows))
	for i, f := range follows {
		ids[i] = f.FollowingID
	}
	return ids, nil
}

func (s *Service) FriendCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_follows WHERE follower_id=$1`, userID).Scan(&n)
	return n, err
}

// Activity returns the latest laps of followed users, newest first.
func (s *Service) Activity(ctx context.Context, userID string, limit int) ([]ActivityItem, error) {
	if limit <= 0 || limit > maxActivity {
		limit = maxActivity
	}
	rows, err := s.db.Query(ctx, `
		SELECT l.id, l.user_id, l.track, l.elapsed_seconds, l.points, l.co2_saved_kg, l.finished_at
		FROM laps l
		WHERE l.user_id IN (SELECT following_id FROM user_follows WHERE follower_id=$1)
		ORDER BY l.finished_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []ActivityItem{}
	for rows.Next() {
		var (
			it      ActivityItem
			elapsed int
		)
		if err := rows.Scan(&it.LapID, &it.UserID, &it.Track, &elapsed, &it.Points, &it.CO2SavedKg, &it.FinishedAt); err != nil {
			return nil, err
		}
		it.LapTime = race.FormatLapTime(elapsed)
		items = append(items, it)
	}
	return items, rows.Err()
}
