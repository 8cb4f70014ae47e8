package trip

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
)

const maxDailyWindow = 31

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/laps", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		laps, err := svc.Laps(c.Context(), userID, c.QueryInt("limit", DefaultLimit))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(laps)
	})

	r.Get("/stats", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		stats, err := svc.Stats(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(stats)
	})

	r.Get("/daily", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		days := c.QueryInt("days", 7)
		if days < 1 || days > maxDailyWindow {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 31")
		}
		since := StartOfDay(time.Now()).AddDate(0, 0, -(days - 1))
		totals, err := svc.Daily(c.Context(), userID, since)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(totals)
	})

	r.Get("/today", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		total, err := svc.Today(c.Context(), userID, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(total)
	})

	r.Get("/tracks/:track", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		rec, err := svc.TrackRecord(c.Context(), userID, c.Params("track"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(rec)
	})
}
