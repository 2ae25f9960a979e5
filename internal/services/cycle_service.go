package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCycleLogsLoadFailed    = errors.New("load cycle logs failed")
	ErrCycleProfileLoadFailed = errors.New("load cycle profile failed")
	ErrInvalidMonth           = errors.New("invalid month")
)

const (
	DefaultCorrelationDays  = 90
	maxCorrelationDays      = 730
	correlationAnchorMonths = 3
)

type CycleLogStore interface {
	ListByUserRange(ctx context.Context, userID uint, fromStart *time.Time, toEnd *time.Time) ([]models.DailyLog, error)
	ListPeriodStarts(ctx context.Context, userID uint, fromStart time.Time, toEnd time.Time) ([]models.DailyLog, error)
}

type CycleProfileStore interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
}

type CycleAnomalyReport struct {
	Stats                 CycleLengthStats `json:"stats"`
	Anomalies             []CycleAnomaly   `json:"anomalies"`
	CurrentCycleLooksLong bool             `json:"current_cycle_looks_long"`
}

type CycleService struct {
	logs     CycleLogStore
	profiles CycleProfileStore
	enricher Enricher
	location *time.Location
	logger   *zap.Logger
}

func NewCycleService(logs CycleLogStore, profiles CycleProfileStore, enricher Enricher, location *time.Location, logger *zap.Logger) *CycleService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CycleService{
		logs:     logs,
		profiles: profiles,
		enricher: enricher,
		location: location,
		logger:   logger,
	}
}

func (service *CycleService) Location() *time.Location {
	return service.location
}

func (service *CycleService) Today(now time.Time) time.Time {
	return DateAtLocation(now, service.location)
}

// FetchLogs returns logs in the inclusive calendar range [from, to], re-anchored to the
// service location.
func (service *CycleService) FetchLogs(ctx context.Context, userID uint, from time.Time, to time.Time) ([]models.DailyLog, error) {
	fromStart, _ := storageDayRange(from)
	_, toEnd := storageDayRange(to)
	logs, err := service.logs.ListByUserRange(ctx, userID, &fromStart, &toEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycleLogsLoadFailed, err)
	}
	return service.localize(logs), nil
}

func (service *CycleService) FetchProfile(ctx context.Context, userID uint) (models.ProfileConfig, error) {
	user, err := service.profiles.FindByID(ctx, userID)
	if err != nil {
		return models.ProfileConfig{}, fmt.Errorf("%w: %v", ErrCycleProfileLoadFailed, err)
	}
	profile := user.Profile()
	if profile.LastPeriodDate != nil {
		hint := CalendarDate(*profile.LastPeriodDate, service.location)
		profile.LastPeriodDate = &hint
	}
	return profile, nil
}

func (service *CycleService) fetchPeriodStarts(ctx context.Context, userID uint, from time.Time, to time.Time) ([]models.DailyLog, error) {
	fromStart, _ := storageDayRange(from)
	_, toEnd := storageDayRange(to)
	logs, err := service.logs.ListPeriodStarts(ctx, userID, fromStart, toEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycleLogsLoadFailed, err)
	}
	return service.localize(logs), nil
}

func (service *CycleService) localize(logs []models.DailyLog) []models.DailyLog {
	for index := range logs {
		logs[index].Date = CalendarDate(logs[index].Date, service.location)
	}
	return logs
}

// snapshot loads the profile and the logs for [from, to] concurrently.
func (service *CycleService) snapshot(ctx context.Context, userID uint, from time.Time, to time.Time) (models.ProfileConfig, []models.DailyLog, error) {
	var profile models.ProfileConfig
	var logs []models.DailyLog

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, err := service.FetchProfile(groupCtx, userID)
		profile = loaded
		return err
	})
	group.Go(func() error {
		loaded, err := service.FetchLogs(groupCtx, userID, from, to)
		logs = loaded
		return err
	})
	if err := group.Wait(); err != nil {
		return models.ProfileConfig{}, nil, err
	}
	return profile, logs, nil
}

// CycleInfo returns ErrInsufficientData when neither the logs nor the profile give an anchor.
func (service *CycleService) CycleInfo(ctx context.Context, userID uint, now time.Time) (*CycleInfo, error) {
	today := service.Today(now)
	profile, logs, err := service.snapshot(ctx, userID, today.AddDate(0, -DefaultLookbackMonths, 0), today)
	if err != nil {
		return nil, err
	}
	info := ComputeCycleInfo(profile, logs, today)
	if info == nil {
		return nil, ErrInsufficientData
	}
	return info, nil
}

func (service *CycleService) Prediction(ctx context.Context, userID uint, now time.Time) (CyclePrediction, error) {
	today := service.Today(now)

	var profile models.ProfileConfig
	var starts []models.DailyLog
	var recent []models.DailyLog
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loaded, err := service.FetchProfile(groupCtx, userID)
		profile = loaded
		return err
	})
	group.Go(func() error {
		loaded, err := service.fetchPeriodStarts(groupCtx, userID, today.AddDate(0, -DefaultLookbackMonths, 0), today)
		starts = loaded
		return err
	})
	group.Go(func() error {
		loaded, err := service.FetchLogs(groupCtx, userID, today.AddDate(0, 0, -(recentSignalWindowDays-1)), today)
		recent = loaded
		return err
	})
	if err := group.Wait(); err != nil {
		return CyclePrediction{}, err
	}

	predictor := NewPredictor(service.enricher, WithEnrichmentFailureHook(func(err error) {
		service.logger.Warn("prediction enrichment failed, using statistical fallback",
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
	}))
	return predictor.Predict(ctx, PredictionInput{
		PeriodStartHistory: PeriodStartHistory(starts, today, DefaultLookbackMonths),
		RecentLogs:         recent,
		Profile:            profile,
		Today:              today,
	})
}

// PhaseCorrelations aggregates the trailing window of days. Period starts from the months
// before the window only resolve anchors for the earliest logs.
func (service *CycleService) PhaseCorrelations(ctx context.Context, userID uint, now time.Time, days int, topN int) (PhaseCorrelation, error) {
	if days <= 0 {
		days = DefaultCorrelationDays
	}
	if days > maxCorrelationDays {
		days = maxCorrelationDays
	}
	today := service.Today(now)
	windowStart := today.AddDate(0, 0, -(days - 1))

	profile, logs, err := service.snapshot(ctx, userID, windowStart, today)
	if err != nil {
		return PhaseCorrelation{}, err
	}
	history, err := service.fetchPeriodStarts(ctx, userID, windowStart.AddDate(0, -correlationAnchorMonths, 0), windowStart.AddDate(0, 0, -1))
	if err != nil {
		return PhaseCorrelation{}, err
	}
	return AggregateByPhaseWithHistory(logs, history, profile, topN), nil
}

func (service *CycleService) Anomalies(ctx context.Context, userID uint, now time.Time) (CycleAnomalyReport, error) {
	today := service.Today(now)
	profile, logs, err := service.snapshot(ctx, userID, today.AddDate(0, -DefaultLookbackMonths, 0), today)
	if err != nil {
		return CycleAnomalyReport{}, err
	}

	starts := PeriodStartHistory(logs, today, DefaultLookbackMonths)
	report := CycleAnomalyReport{
		Stats:     ComputeCycleLengthStats(starts),
		Anomalies: DetectCycleAnomalies(starts),
	}
	if report.Stats.Lengths == nil {
		report.Stats.Lengths = []int{}
	}
	if report.Anomalies == nil {
		report.Anomalies = []CycleAnomaly{}
	}

	if info := ComputeCycleInfo(profile, logs, today); info != nil {
		cycleLength := models.DefaultCycleLength
		if report.Stats.Count > 0 {
			cycleLength = int(math.Round(report.Stats.Mean))
		} else if configured, err := UsableCycleLength(profile.AvgCycleLength); err == nil {
			cycleLength = configured
		}
		report.CurrentCycleLooksLong = CycleDayLooksLong(info.CurrentDay, cycleLength)
	}
	return report, nil
}

// Calendar builds the grid for month. Logs are loaded from a lookback before the earlier of
// the month and today so the current anchor is always available.
func (service *CycleService) Calendar(ctx context.Context, userID uint, month time.Time, now time.Time) ([]CalendarDay, error) {
	today := service.Today(now)
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, service.location)
	monthEnd := monthStart.AddDate(0, 1, -1)

	from := monthStart
	if today.Before(from) {
		from = today
	}
	to := monthEnd.AddDate(0, 0, 7)
	if today.After(to) {
		to = today
	}

	profile, logs, err := service.snapshot(ctx, userID, from.AddDate(0, -DefaultLookbackMonths, 0), to)
	if err != nil {
		return nil, err
	}
	return BuildCalendarMonth(monthStart, profile, logs, today), nil
}

func ParseMonth(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	month, err := time.ParseInLocation("2006-01", raw, location)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return month, nil
}
