package stream

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type Handler struct {
	supervisor *Supervisor
}

func NewHandler(supervisor *Supervisor) *Handler {
	return &Handler{supervisor: supervisor}
}

func (h *Handler) StartStream(c *fiber.Ctx) error {
	var req StartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.FileName == "" || req.StreamKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "fileName and streamKey are required",
		})
	}

	if err := h.supervisor.Start(req); err != nil {
		switch {
		case errors.Is(err, ErrFileNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, ErrAlreadyStreaming), errors.Is(err, ErrInvalidDestination):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to start stream",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":  "Stream started",
		"fileName": req.FileName,
		"channel":  req.Channel,
	})
}

func (h *Handler) StopStream(c *fiber.Ctx) error {
	var req struct {
		StreamKey string `json:"streamKey"`
	}
	if err := c.BodyParser(&req); err != nil || req.StreamKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "streamKey is required",
		})
	}

	if err := h.supervisor.Stop(req.StreamKey); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Stream stopping",
	})
}

func (h *Handler) StopAllStreams(c *fiber.Ctx) error {
	count := h.supervisor.StopAll()
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Stopping %d stream(s)", count),
	})
}

func (h *Handler) GetStreamStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"streams": h.supervisor.Status(),
	})
}

func (h *Handler) GetStreamLogs(c *fiber.Ctx) error {
	streamKey := c.Query("streamKey")
	if streamKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "streamKey is required",
		})
	}

	return c.JSON(fiber.Map{
		"logs": h.supervisor.Logs(streamKey),
	})
}
