package social

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/follow", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var body struct {
			FollowingID string `json:"following_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.FollowingID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "following_id required")
		}
		if err := svc.Follow(c.Context(), userID, body.FollowingID); err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	r.Delete("/follow/:userID", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		if err := svc.Unfollow(c.Context(), userID, c.Params("userID")); err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/following", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		follows, err := svc.Following(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(follows)
	})

	r.Get("/activity", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		items, err := svc.Activity(c.Context(), userID, c.QueryInt("limit", 20))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(items)
	})
}
