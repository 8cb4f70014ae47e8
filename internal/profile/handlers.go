package profile

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		p, err := svc.Get(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(fiber.Map{"profile": p, "next_level_at": NextLevelAt(p.Points)})
	})

	r.Post("/onboard", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var req OnboardRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Onboard(c.Context(), userID, req)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Patch("/", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Update(c.Context(), userID, req)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(p)
	})

	r.Get("/achievements", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		list, err := svc.Achievements(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(list)
	})

	r.Get("/:userID", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("userID"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(public(p))
	})
}

// public strips the fields only the owner sees.
func public(p Profile) fiber.Map {
	return fiber.Map{
		"user_id":      p.UserID,
		"name":         p.Name,
		"avatar":       p.Avatar,
		"level":        p.Level,
		"points":       p.Points,
		"co2_saved_kg": p.CO2SavedKg,
		"streak_days":  p.StreakDays,
		"achievements": p.Achievements,
	}
}
