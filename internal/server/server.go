package server

import (
	"context"
	"strings"

	"restreamer/internal/config"
	"restreamer/internal/media"
	"restreamer/internal/platform"
	"restreamer/internal/storage"
	"restreamer/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/pkg/errors"
)

type FiberServer struct {
	*fiber.App
	cfg *config.Config

	registry     *stream.Registry
	supervisor   *stream.Supervisor
	mediaService *media.Service
	storage      *storage.Service
	platforms    *platform.Service
}

func New(cfg *config.Config) (*FiberServer, error) {
	app := fiber.New(fiber.Config{
		ServerHeader: "restreamer",
		AppName:      "restreamer",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	registry := stream.NewRegistry()
	supervisor := stream.NewSupervisor(registry, cfg.Media.Root, cfg.Stream.FFmpegPath, cfg.Stream.LogLines)

	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "initializing storage client")
	}

	mediaService, err := media.NewService(cfg.Media.Root, cfg.Media.VideoExts, registry, store)
	if err != nil {
		return nil, errors.Wrap(err, "initializing media service")
	}

	server := &FiberServer{
		App:          app,
		cfg:          cfg,
		registry:     registry,
		supervisor:   supervisor,
		mediaService: mediaService,
		storage:      store,
		platforms:    platform.NewService(cfg.Media.ChannelsFile),
	}
	server.applyMiddleware()

	return server, nil
}

// Supervisor exposes the process supervisor so main can stop all sessions on
// shutdown.
func (s *FiberServer) Supervisor() *stream.Supervisor {
	return s.supervisor
}

func (s *FiberServer) applyMiddleware() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(s.cfg.Security.CORSOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.App.Use(limiter.New(limiter.Config{
		Max:        s.cfg.Security.RateLimit,
		Expiration: s.cfg.Security.RateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // limit by IP address
		},
	}))
}
