package academy

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/topics", func(c *fiber.Ctx) error {
		return c.JSON(svc.Catalog().Topics)
	})

	r.Get("/topics/:topic/quizzes", func(c *fiber.Ctx) error {
		topic := c.Params("topic")
		if !svc.Catalog().HasTopic(topic) {
			return fiber.NewError(fiber.StatusNotFound, "unknown topic")
		}
		return c.JSON(svc.Catalog().QuizzesFor(topic))
	})

	r.Post("/quizzes/:id/start", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		a, err := svc.StartQuiz(userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	})

	r.Get("/attempt", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		a, err := svc.Current(userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(a)
	})

	r.Post("/attempt/answer", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var body struct {
			Index *int `json:"index"`
		}
		if err := c.BodyParser(&body); err != nil || body.Index == nil {
			return fiber.NewError(fiber.StatusBadRequest, "index required")
		}
		a, err := svc.Select(userID, *body.Index)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(a)
	})

	r.Post("/attempt/submit", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		a, err := svc.Submit(userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(a)
	})

	r.Post("/attempt/next", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		a, err := svc.Advance(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(a)
	})

	r.Delete("/attempt", authMiddleware, func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		if err := svc.Abandon(userID); err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
