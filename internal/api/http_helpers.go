package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/models"
	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// internalError logs the cause and hides it from the client.
func (handler *Handler) internalError(c *fiber.Ctx, message string, err error) error {
	handler.logger.Error(message,
		zap.String("path", c.Path()),
		zap.String("method", c.Method()),
		zap.Error(err),
	)
	return apiError(c, fiber.StatusInternalServerError, message)
}

func insufficientData(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "insufficient_data"})
}

func parseDayParam(raw string, location *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	return time.ParseInLocation(dayLayout, raw, location)
}

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok && user != nil
}

func formatDayPtr(value *time.Time) *string {
	if value == nil || value.IsZero() {
		return nil
	}
	formatted := value.Format(dayLayout)
	return &formatted
}
