package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

var (
	ErrDayEntryLoadFailed   = errors.New("load day entry failed")
	ErrDayEntryCreateFailed = errors.New("create day entry failed")
	ErrDayEntryUpdateFailed = errors.New("update day entry failed")
	ErrDeleteDayFailed      = errors.New("delete day failed")
	ErrDayNotFound          = errors.New("day entry not found")
	ErrSyncLastPeriodFailed = errors.New("sync last period failed")
	ErrInvalidSentiment     = errors.New("invalid sentiment")
	ErrInvalidSymptoms      = errors.New("invalid symptoms")
	ErrInvalidDayRange      = errors.New("invalid day range")
)

const (
	maxSymptomsPerDay       = 32
	maxSymptomLabelLength   = 80
	sentimentLabelThreshold = 0.25
	maxDayRangeDays         = 800
)

type DayEntryInput struct {
	PeriodStarted  *bool
	PeriodEnded    *bool
	Symptoms       []string
	SentimentScore *float64
	SentimentLabel *string
	Notes          string
}

type DayLogRepository interface {
	ListByUserRange(ctx context.Context, userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyLog, error)
	FindByUserAndDayRange(ctx context.Context, userID uint, dayStart time.Time, dayEnd time.Time) (models.DailyLog, bool, error)
	Create(ctx context.Context, entry *models.DailyLog) error
	Save(ctx context.Context, entry *models.DailyLog) error
	DeleteByUserAndDayRange(ctx context.Context, userID uint, dayStart time.Time, dayEnd time.Time) (int64, error)
}

type DayUserRepository interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
	UpdateByID(ctx context.Context, userID uint, updates map[string]any) error
}

type DayService struct {
	logs  DayLogRepository
	users DayUserRepository
}

func NewDayService(logs DayLogRepository, users DayUserRepository) *DayService {
	return &DayService{
		logs:  logs,
		users: users,
	}
}

// storageDayRange maps a calendar date to the stored UTC-midnight range.
func storageDayRange(day time.Time) (time.Time, time.Time) {
	start := CalendarDate(day, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// FetchLogs returns logs for the inclusive calendar range [from, to].
func (service *DayService) FetchLogs(ctx context.Context, userID uint, from time.Time, to time.Time) ([]models.DailyLog, error) {
	fromStart, _ := storageDayRange(from)
	_, toEnd := storageDayRange(to)
	if !toEnd.After(fromStart) || DaysBetween(fromStart, toEnd) > maxDayRangeDays {
		return nil, ErrInvalidDayRange
	}
	return service.logs.ListByUserRange(ctx, userID, &fromStart, &toEnd)
}

func (service *DayService) FetchLogByDate(ctx context.Context, userID uint, day time.Time) (models.DailyLog, bool, error) {
	dayStart, dayEnd := storageDayRange(day)
	entry, found, err := service.logs.FindByUserAndDayRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return models.DailyLog{}, false, fmt.Errorf("%w: %v", ErrDayEntryLoadFailed, err)
	}
	if !found {
		return models.DailyLog{UserID: userID, Date: dayStart, Symptoms: []string{}}, false, nil
	}
	return entry, true, nil
}

// NormalizeDayEntryInput trims and de-duplicates symptom labels (keeping first-seen order),
// validates sentiment, and derives the sentiment label from the score when it is missing.
func NormalizeDayEntryInput(input DayEntryInput) (DayEntryInput, error) {
	symptoms := make([]string, 0, len(input.Symptoms))
	seen := make(map[string]bool, len(input.Symptoms))
	for _, raw := range input.Symptoms {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		if len([]rune(label)) > maxSymptomLabelLength {
			return DayEntryInput{}, ErrInvalidSymptoms
		}
		key := strings.ToLower(label)
		if seen[key] {
			continue
		}
		seen[key] = true
		symptoms = append(symptoms, label)
	}
	if len(symptoms) > maxSymptomsPerDay {
		return DayEntryInput{}, ErrInvalidSymptoms
	}
	input.Symptoms = symptoms
	input.Notes = strings.TrimSpace(input.Notes)

	if input.SentimentScore != nil {
		score := *input.SentimentScore
		if math.IsNaN(score) || score < -1 || score > 1 {
			return DayEntryInput{}, ErrInvalidSentiment
		}
	}
	if input.SentimentLabel != nil {
		label := strings.ToLower(strings.TrimSpace(*input.SentimentLabel))
		switch label {
		case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
			input.SentimentLabel = &label
		case "":
			input.SentimentLabel = nil
		default:
			return DayEntryInput{}, ErrInvalidSentiment
		}
	}
	if input.SentimentLabel == nil && input.SentimentScore != nil {
		label := SentimentLabelForScore(*input.SentimentScore)
		input.SentimentLabel = &label
	}
	return input, nil
}

func SentimentLabelForScore(score float64) string {
	switch {
	case score >= sentimentLabelThreshold:
		return models.SentimentPositive
	case score <= -sentimentLabelThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func (service *DayService) UpsertDayEntry(ctx context.Context, userID uint, day time.Time, payload DayEntryInput) (models.DailyLog, error) {
	payload, err := NormalizeDayEntryInput(payload)
	if err != nil {
		return models.DailyLog{}, err
	}

	dayStart, dayEnd := storageDayRange(day)
	entry, found, err := service.logs.FindByUserAndDayRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("%w: %v", ErrDayEntryLoadFailed, err)
	}

	entry.PeriodStarted = payload.PeriodStarted
	entry.PeriodEnded = payload.PeriodEnded
	entry.Symptoms = payload.Symptoms
	entry.SentimentScore = payload.SentimentScore
	entry.SentimentLabel = payload.SentimentLabel
	entry.Notes = payload.Notes

	if found {
		if err := service.logs.Save(ctx, &entry); err != nil {
			return models.DailyLog{}, fmt.Errorf("%w: %v", ErrDayEntryUpdateFailed, err)
		}
	} else {
		entry.UserID = userID
		entry.Date = dayStart
		if err := service.logs.Create(ctx, &entry); err != nil {
			return models.DailyLog{}, fmt.Errorf("%w: %v", ErrDayEntryCreateFailed, err)
		}
	}

	if entry.IsPeriodStart() {
		if err := service.advanceLastPeriodHint(ctx, userID, dayStart); err != nil {
			return entry, fmt.Errorf("%w: %v", ErrSyncLastPeriodFailed, err)
		}
	}
	return entry, nil
}

// advanceLastPeriodHint moves the profile hint forward to a newer logged period start. The
// hint never moves backwards, so a manually entered later date is preserved.
func (service *DayService) advanceLastPeriodHint(ctx context.Context, userID uint, start time.Time) error {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.LastPeriodDate != nil && !CalendarDate(*user.LastPeriodDate, time.UTC).Before(start) {
		return nil
	}
	return service.users.UpdateByID(ctx, userID, map[string]any{"last_period_date": start})
}

func (service *DayService) DeleteDay(ctx context.Context, userID uint, day time.Time) error {
	dayStart, dayEnd := storageDayRange(day)
	deleted, err := service.logs.DeleteByUserAndDayRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteDayFailed, err)
	}
	if deleted == 0 {
		return ErrDayNotFound
	}
	return nil
}
