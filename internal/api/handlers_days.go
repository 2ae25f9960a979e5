package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type dayInput struct {
	PeriodStarted  *bool    `json:"period_started"`
	PeriodEnded    *bool    `json:"period_ended"`
	Symptoms       []string `json:"symptoms"`
	SentimentScore *float64 `json:"sentiment_score"`
	SentimentLabel *string  `json:"sentiment_label"`
	Notes          string   `json:"notes"`
}

type dayResponse struct {
	Date           string   `json:"date"`
	Exists         bool     `json:"exists"`
	PeriodStarted  *bool    `json:"period_started"`
	PeriodEnded    *bool    `json:"period_ended"`
	Symptoms       []string `json:"symptoms"`
	SentimentScore *float64 `json:"sentiment_score"`
	SentimentLabel *string  `json:"sentiment_label"`
	Notes          string   `json:"notes"`
}

func newDayResponse(entry models.DailyLog, exists bool) dayResponse {
	symptoms := entry.Symptoms
	if symptoms == nil {
		symptoms = []string{}
	}
	return dayResponse{
		Date:           entry.Date.Format(dayLayout),
		Exists:         exists,
		PeriodStarted:  entry.PeriodStarted,
		PeriodEnded:    entry.PeriodEnded,
		Symptoms:       symptoms,
		SentimentScore: entry.SentimentScore,
		SentimentLabel: entry.SentimentLabel,
		Notes:          entry.Notes,
	}
}

func (handler *Handler) GetDays(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	from, err := parseDayParam(c.Query("from"), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := parseDayParam(c.Query("to"), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid to date")
	}

	logs, err := handler.dayService.FetchLogs(c.UserContext(), user.ID, from, to)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDayRange) {
			return apiError(c, fiber.StatusBadRequest, "invalid range")
		}
		return handler.internalError(c, "failed to fetch logs", err)
	}

	days := make([]dayResponse, 0, len(logs))
	for _, entry := range logs {
		days = append(days, newDayResponse(entry, true))
	}
	return c.JSON(days)
}

func (handler *Handler) GetDay(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	day, err := parseDayParam(c.Params("date"), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	entry, exists, err := handler.dayService.FetchLogByDate(c.UserContext(), user.ID, day)
	if err != nil {
		return handler.internalError(c, "failed to fetch day", err)
	}
	return c.JSON(newDayResponse(entry, exists))
}

func (handler *Handler) UpsertDay(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	day, err := parseDayParam(c.Params("date"), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	if day.After(handler.today()) {
		return apiError(c, fiber.StatusBadRequest, "date cannot be in the future")
	}

	input := dayInput{}
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid payload")
	}

	entry, err := handler.dayService.UpsertDayEntry(c.UserContext(), user.ID, day, services.DayEntryInput{
		PeriodStarted:  input.PeriodStarted,
		PeriodEnded:    input.PeriodEnded,
		Symptoms:       input.Symptoms,
		SentimentScore: input.SentimentScore,
		SentimentLabel: input.SentimentLabel,
		Notes:          input.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSentiment):
			return apiError(c, fiber.StatusBadRequest, "invalid sentiment")
		case errors.Is(err, services.ErrInvalidSymptoms):
			return apiError(c, fiber.StatusBadRequest, "invalid symptoms")
		case errors.Is(err, services.ErrSyncLastPeriodFailed):
			return handler.internalError(c, "failed to sync profile", err)
		default:
			return handler.internalError(c, "failed to save day", err)
		}
	}
	return c.JSON(newDayResponse(entry, true))
}

func (handler *Handler) DeleteDay(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	day, err := parseDayParam(c.Params("date"), handler.location)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	if err := handler.dayService.DeleteDay(c.UserContext(), user.ID, day); err != nil {
		if errors.Is(err, services.ErrDayNotFound) {
			return apiError(c, fiber.StatusNotFound, "day not found")
		}
		return handler.internalError(c, "failed to delete day", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
