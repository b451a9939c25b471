package storage

import (
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the bucket file-manager operations. The service may be nil
// when storage credentials were not configured; every endpoint then reports
// the client as not initialized.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) notInitialized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": ErrNotInitialized.Error(),
	})
}

func (h *Handler) ListObjects(c *fiber.Ctx) error {
	if h.service == nil {
		return h.notInitialized(c)
	}

	objects, err := h.service.List(c.Context(), c.Query("prefix"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"objects": objects,
	})
}

func (h *Handler) GetStats(c *fiber.Ctx) error {
	if h.service == nil {
		return h.notInitialized(c)
	}

	stats, err := h.service.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(stats)
}

func (h *Handler) CreateFolder(c *fiber.Ctx) error {
	if h.service == nil {
		return h.notInitialized(c)
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "path is required",
		})
	}

	if err := h.service.CreateFolder(c.Context(), req.Path); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Folder created",
	})
}

func (h *Handler) RenameObject(c *fiber.Ctx) error {
	if h.service == nil {
		return h.notInitialized(c)
	}

	var req struct {
		OldKey string `json:"oldKey"`
		NewKey string `json:"newKey"`
	}
	if err := c.BodyParser(&req); err != nil || req.OldKey == "" || req.NewKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "oldKey and newKey are required",
		})
	}

	if err := h.service.Rename(c.Context(), req.OldKey, req.NewKey); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Object renamed",
	})
}

func (h *Handler) DeleteObject(c *fiber.Ctx) error {
	if h.service == nil {
		return h.notInitialized(c)
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "key is required",
		})
	}

	if err := h.service.Delete(c.Context(), req.Key); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Object deleted",
	})
}
