package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/teleop-bridge/pkg/log"
	"github.com/open-teleop/teleop-bridge/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.ConfigService
	logger        customlog.Logger
}

// RegisterConfigRoutes registers the configuration API endpoints with the Fiber app.
func RegisterConfigRoutes(router fiber.Router, configService services.ConfigService, logger customlog.Logger) {
	h := &ConfigHandler{configService: configService, logger: logger}

	group := router.Group("/config")
	group.Get("/", h.handleGetConfig)
	group.Put("/", h.handleUpdateConfig)
}

// handleGetConfig returns the running configuration as YAML.
func (h *ConfigHandler) handleGetConfig(c *fiber.Ctx) error {
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to render configuration: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	c.Set("X-Restart-Pending", fmt.Sprint(h.configService.PendingRestart()))
	return c.Send(yamlData)
}

// handleUpdateConfig validates and persists a YAML configuration.
func (h *ConfigHandler) handleUpdateConfig(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Request body cannot be empty.",
		})
	}

	if err := h.configService.UpdateConfig(body); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Errorf("Failed to update configuration: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"message": "Configuration saved. Restart the bridge to apply it.",
	})
}
