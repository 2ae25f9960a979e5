package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type profileResponse struct {
	Email             string  `json:"email"`
	Role              string  `json:"role"`
	DisplayName       string  `json:"display_name"`
	LastPeriodDate    *string `json:"last_period_date"`
	AvgCycleLength    *int    `json:"avg_cycle_length"`
	IsIrregular       bool    `json:"is_irregular"`
	AvgPeriodDuration int     `json:"avg_period_duration"`
}

// profileInput keeps nullable fields raw so that an explicit null clears the value while an
// absent key leaves it untouched.
type profileInput struct {
	LastPeriodDate    json.RawMessage `json:"last_period_date"`
	AvgCycleLength    json.RawMessage `json:"avg_cycle_length"`
	IsIrregular       *bool           `json:"is_irregular"`
	AvgPeriodDuration *int            `json:"avg_period_duration"`
	DisplayName       *string         `json:"display_name"`
}

var jsonNull = []byte("null")

func newProfileResponse(user *models.User) profileResponse {
	profile := user.Profile()
	return profileResponse{
		Email:             user.Email,
		Role:              user.Role,
		DisplayName:       user.DisplayName,
		LastPeriodDate:    formatDayPtr(profile.LastPeriodDate),
		AvgCycleLength:    profile.AvgCycleLength,
		IsIrregular:       profile.IsIrregular,
		AvgPeriodDuration: profile.AvgPeriodDuration,
	}
}

func (handler *Handler) GetProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(newProfileResponse(user))
}

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	update, err := handler.parseProfileInput(c.Body())
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid profile input")
	}

	updated, err := handler.profileService.UpdateProfile(c.UserContext(), user.ID, update, handler.now().In(handler.location))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProfileFutureDate):
			return apiError(c, fiber.StatusBadRequest, "last period date is in the future")
		case errors.Is(err, services.ErrInvalidConfiguration):
			return apiError(c, fiber.StatusBadRequest, "invalid cycle settings")
		default:
			return handler.internalError(c, "failed to update profile", err)
		}
	}
	return c.JSON(newProfileResponse(&updated))
}

func (handler *Handler) parseProfileInput(body []byte) (services.ProfileUpdate, error) {
	input := profileInput{}
	if err := json.Unmarshal(body, &input); err != nil {
		return services.ProfileUpdate{}, err
	}

	update := services.ProfileUpdate{
		IsIrregular:       input.IsIrregular,
		AvgPeriodDuration: input.AvgPeriodDuration,
		DisplayName:       input.DisplayName,
	}

	if len(input.LastPeriodDate) > 0 {
		update.LastPeriodDateSet = true
		if !bytes.Equal(input.LastPeriodDate, jsonNull) {
			raw := ""
			if err := json.Unmarshal(input.LastPeriodDate, &raw); err != nil {
				return services.ProfileUpdate{}, err
			}
			day, err := parseDayParam(raw, handler.location)
			if err != nil {
				return services.ProfileUpdate{}, err
			}
			update.LastPeriodDate = &day
		}
	}
	if len(input.AvgCycleLength) > 0 {
		update.AvgCycleLengthSet = true
		if !bytes.Equal(input.AvgCycleLength, jsonNull) {
			length := 0
			if err := json.Unmarshal(input.AvgCycleLength, &length); err != nil {
				return services.ProfileUpdate{}, err
			}
			update.AvgCycleLength = &length
		}
	}
	return update, nil
}
