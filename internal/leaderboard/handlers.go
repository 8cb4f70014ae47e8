package leaderboard

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

// FriendLister resolves the users a player follows.
type FriendLister interface {
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

func RegisterRoutes(r fiber.Router, svc *Service, friends FriendLister, authMiddleware fiber.Handler) {
	r.Get("/friends", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		ids, err := friends.FollowingIDs(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		entries, err := svc.Friends(c.Context(), userID, ids)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(entries)
	})

	r.Get("/:board", func(c *fiber.Ctx) error {
		board, ok := ParseBoard(c.Params("board"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown board")
		}
		entries, err := svc.Top(c.Context(), board, c.QueryInt("limit", 50))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(entries)
	})

	r.Get("/:board/me", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		board, ok := ParseBoard(c.Params("board"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown board")
		}
		st, err := svc.Rank(c.Context(), board, userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(st)
	})
}
