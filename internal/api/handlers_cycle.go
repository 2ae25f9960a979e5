package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/services"
)

func (handler *Handler) GetCycleInfo(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	info, err := handler.cycleService.CycleInfo(c.UserContext(), user.ID, handler.now())
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			return insufficientData(c)
		}
		return handler.internalError(c, "failed to compute cycle info", err)
	}
	return c.JSON(info)
}

func (handler *Handler) GetPrediction(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	prediction, err := handler.cycleService.Prediction(c.UserContext(), user.ID, handler.now())
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			return insufficientData(c)
		}
		return handler.internalError(c, "failed to predict next cycle", err)
	}
	return c.JSON(prediction)
}

func (handler *Handler) GetPhaseCorrelations(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	days := c.QueryInt("days", services.DefaultCorrelationDays)
	top := c.QueryInt("top", services.DefaultTopSymptoms)
	if days <= 0 || top <= 0 {
		return apiError(c, fiber.StatusBadRequest, "invalid query")
	}

	correlation, err := handler.cycleService.PhaseCorrelations(c.UserContext(), user.ID, handler.now(), days, top)
	if err != nil {
		return handler.internalError(c, "failed to aggregate phases", err)
	}
	return c.JSON(correlation)
}

func (handler *Handler) GetAnomalies(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	report, err := handler.cycleService.Anomalies(c.UserContext(), user.ID, handler.now())
	if err != nil {
		return handler.internalError(c, "failed to detect anomalies", err)
	}
	return c.JSON(report)
}

func (handler *Handler) GetCalendar(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	month := handler.today()
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := services.ParseMonth(raw, handler.location)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid month")
		}
		month = parsed
	}

	days, err := handler.cycleService.Calendar(c.UserContext(), user.ID, month, handler.now())
	if err != nil {
		return handler.internalError(c, "failed to build calendar", err)
	}
	return c.JSON(fiber.Map{
		"month": month.Format("2006-01"),
		"days":  days,
	})
}
