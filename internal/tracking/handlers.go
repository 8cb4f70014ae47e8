package tracking

import (
	"github.com/gofiber/fiber/v2"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var req CreateRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		race, err := svc.Create(userID, req)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(race)
	})

	r.Get("/current", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		race, err := svc.Current(userID)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(race)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		race, err := svc.Get(userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(race)
	})

	r.Post("/:id/start", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		race, err := svc.Start(userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(race)
	})

	r.Post("/:id/tick", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		var req TickRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		race, err := svc.Tick(userID, c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(race)
	})

	r.Post("/:id/stop", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		race, err := svc.Stop(c.Context(), userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(race)
	})

	r.Get("/:id/result", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		res, err := svc.Result(userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(res)
	})

	r.Post("/:id/reset", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		race, err := svc.Reset(userID, c.Params("id"))
		if err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.JSON(race)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		userID, err := auth.RequireUser(c)
		if err != nil {
			return err
		}
		if err := svc.Discard(userID, c.Params("id")); err != nil {
			return fiber.NewError(fault.Status(err), err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
