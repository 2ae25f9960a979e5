package services

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

var (
	ErrProfileLoadFailed   = errors.New("load profile failed")
	ErrProfileUpdateFailed = errors.New("update profile failed")
	ErrProfileFutureDate   = errors.New("last period date is in the future")
)

type ProfileUserRepository interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
	UpdateByID(ctx context.Context, userID uint, updates map[string]any) error
}

// ProfileUpdate carries optional fields; a *Set flag distinguishes "clear" from "leave as is".
type ProfileUpdate struct {
	LastPeriodDateSet bool
	LastPeriodDate    *time.Time
	AvgCycleLengthSet bool
	AvgCycleLength    *int
	IsIrregular       *bool
	AvgPeriodDuration *int
	DisplayName       *string
}

type ProfileService struct {
	users ProfileUserRepository
}

func NewProfileService(users ProfileUserRepository) *ProfileService {
	return &ProfileService{users: users}
}

func (service *ProfileService) LoadProfile(ctx context.Context, userID uint) (models.User, error) {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, errors.Join(ErrProfileLoadFailed, err)
	}
	return user, nil
}

func (service *ProfileService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate, today time.Time) (models.User, error) {
	updates, err := ProfileUpdateColumns(update, today)
	if err != nil {
		return models.User{}, err
	}
	if len(updates) > 0 {
		if err := service.users.UpdateByID(ctx, userID, updates); err != nil {
			return models.User{}, errors.Join(ErrProfileUpdateFailed, err)
		}
	}
	return service.LoadProfile(ctx, userID)
}

// ProfileUpdateColumns validates an update and converts it to a column map. Cycle lengths
// outside the sane range are rejected here so they never reach date arithmetic.
func ProfileUpdateColumns(update ProfileUpdate, today time.Time) (map[string]any, error) {
	updates := make(map[string]any)

	if update.LastPeriodDateSet {
		if update.LastPeriodDate == nil {
			updates["last_period_date"] = nil
		} else {
			day := CalendarDate(*update.LastPeriodDate, time.UTC)
			if day.After(CalendarDate(DateAtLocation(today, today.Location()), time.UTC)) {
				return nil, ErrProfileFutureDate
			}
			updates["last_period_date"] = day
		}
	}
	if update.AvgCycleLengthSet {
		if update.AvgCycleLength == nil {
			updates["avg_cycle_length"] = nil
		} else if !IsValidCycleLength(*update.AvgCycleLength) {
			return nil, ErrInvalidConfiguration
		} else {
			updates["avg_cycle_length"] = *update.AvgCycleLength
		}
	}
	if update.IsIrregular != nil {
		updates["is_irregular"] = *update.IsIrregular
	}
	if update.AvgPeriodDuration != nil {
		if !IsValidPeriodDuration(*update.AvgPeriodDuration) {
			return nil, ErrInvalidConfiguration
		}
		updates["avg_period_duration"] = *update.AvgPeriodDuration
	}
	if update.DisplayName != nil {
		updates["display_name"] = *update.DisplayName
	}
	return updates, nil
}
