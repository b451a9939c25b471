package media

import (
	"restreamer/internal/storage"
	"restreamer/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.service.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(videos)
}

func (h *Handler) DeleteVideo(c *fiber.Ctx) error {
	var req struct {
		FileName string `json:"fileName"`
	}
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "fileName is required",
		})
	}

	if err := h.service.Delete(req.FileName); err != nil {
		switch {
		case errors.Is(err, stream.ErrFileInUse):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, stream.ErrFileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":  "File deleted",
		"fileName": req.FileName,
	})
}

func (h *Handler) Download(c *fiber.Ctx) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Key is required",
		})
	}

	fileName, err := h.service.Fetch(c.Context(), req.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": storage.ErrNotInitialized.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Download complete",
		"fileName": fileName,
	})
}
