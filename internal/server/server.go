package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/academy"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/auth"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/config"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/db"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/leaderboard"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/profile"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/social"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/stream"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/tracking"
	"github.com/HollowedMumbler/Absolute-Cinema/internal/trip"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub

	Tracking *tracking.Service
	Academy  *academy.Service
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client) (*Server, error) {
	catalog, err := academy.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("academy catalog: %w", err)
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pg,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s, catalog)
	return s, nil
}

// Shutdown stops the stream relay. The pools belong to the caller.
func (s *Server) Shutdown() error {
	return s.Stream.Close()
}

func registerRoutes(s *Server, catalog *academy.Catalog) {
	// laps, profiles and accounts all live in postgres
	s.App.Get("/health", func(c *fiber.Ctx) error {
		status, code := "ok", fiber.StatusOK
		if s.DB == nil {
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"postgres": s.DB != nil,
			"redis":    s.Redis != nil,
		})
	})

	// a nil pool must stay a nil interface
	var q db.Querier
	if s.DB != nil {
		q = s.DB
	}

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	socialSvc := social.NewService(q)
	profileSvc := profile.NewService(q,
		profile.WithFriendCounter(socialSvc),
		profile.WithQuizzesTotal(catalog.QuizCount()),
	)
	board := leaderboard.NewService(s.Redis)
	tripSvc := trip.NewService(q)

	s.Tracking = tracking.NewService(tripSvc,
		tracking.WithProfiles(profileSvc),
		tracking.WithLeaderboard(board),
		tracking.WithPublisher(s.Stream),
		tracking.WithDefaultEcoBonus(s.Cfg.EcoBonus),
	)
	s.Academy = academy.NewService(catalog, profileSvc, academy.WithLeaderboard(board))

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, q))
	profile.RegisterRoutes(s.App.Group("/profile"), profileSvc, jwtMiddleware)
	trip.RegisterRoutes(s.App.Group("/trips"), tripSvc, jwtMiddleware)
	tracking.RegisterRoutes(s.App.Group("/tracking/races"), s.Tracking, jwtMiddleware)
	leaderboard.RegisterRoutes(s.App.Group("/leaderboard"), board, socialSvc, jwtMiddleware)
	social.RegisterRoutes(s.App.Group("/social"), socialSvc, jwtMiddleware)
	academy.RegisterRoutes(s.App.Group("/academy"), s.Academy, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
