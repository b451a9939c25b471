package server

import (
	"restreamer/internal/media"
	"restreamer/internal/platform"
	"restreamer/internal/storage"
	"restreamer/internal/stream"

	"github.com/gofiber/fiber/v2"
)

func (s *FiberServer) RegisterRoutes() {
	s.App.Get("/health", s.healthHandler)

	// Destination catalog
	platformHandler := platform.NewHandler(s.platforms)
	s.App.Get("/platforms", platformHandler.ListPlatforms)

	// Local media library
	mediaHandler := media.NewHandler(s.mediaService)
	s.App.Get("/videos", mediaHandler.ListVideos)
	s.App.Post("/download", mediaHandler.Download)
	s.App.Post("/delete", mediaHandler.DeleteVideo)

	// Streaming sessions
	streamHandler := stream.NewHandler(s.supervisor)
	s.App.Post("/stream/start", streamHandler.StartStream)
	s.App.Post("/stream/stop", streamHandler.StopStream)
	s.App.Post("/stream/stop-all", streamHandler.StopAllStreams)
	s.App.Get("/stream/status", streamHandler.GetStreamStatus)
	s.App.Get("/stream/logs", streamHandler.GetStreamLogs)

	// Bucket file manager
	storageHandler := storage.NewHandler(s.storage)
	s.App.Get("/storage/objects", storageHandler.ListObjects)
	s.App.Get("/storage/stats", storageHandler.GetStats)
	s.App.Post("/storage/folder", storageHandler.CreateFolder)
	s.App.Post("/storage/rename", storageHandler.RenameObject)
	s.App.Post("/storage/delete", storageHandler.DeleteObject)
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":        "ok",
		"activeStreams": s.registry.Len(),
	})
}
