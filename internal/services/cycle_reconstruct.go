package services

import (
	"math"
	"sort"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

const (
	AnchorSourceLogs    = "logs"
	AnchorSourceProfile = "profile"
)

type CycleReconstruction struct {
	Anchor            time.Time
	AnchorSource      string
	CurrentDay        int
	InPeriodNow       bool
	AvgPeriodDuration int
	PeriodRunCount    int
}

// ReconstructCycle establishes the current cycle anchor from the log history, falling back to
// the profile hint. It returns false when neither source yields an anchor on or before today.
func ReconstructCycle(profile models.ProfileConfig, logs []models.DailyLog, today time.Time) (CycleReconstruction, bool) {
	location := today.Location()
	today = DateAtLocation(today, location)
	sorted := sortedLogsCopy(logs, location)

	anchor, source, ok := resolveAnchor(profile, sorted, today)
	if !ok {
		return CycleReconstruction{}, false
	}

	runs := periodRunLengths(sorted)
	return CycleReconstruction{
		Anchor:            anchor,
		AnchorSource:      source,
		CurrentDay:        DaysBetween(anchor, today) + 1,
		InPeriodNow:       periodFlaggedOn(sorted, today),
		AvgPeriodDuration: averagePeriodRun(runs),
		PeriodRunCount:    len(runs),
	}, true
}

// LatestPeriodStart returns the most recent period-start log dated on or before day.
// logs must be sorted ascending and normalized to day's location.
func LatestPeriodStart(logs []models.DailyLog, day time.Time) (time.Time, bool) {
	for index := len(logs) - 1; index >= 0; index-- {
		entry := logs[index]
		if entry.Date.After(day) || !entry.IsPeriodStart() {
			continue
		}
		return entry.Date, true
	}
	return time.Time{}, false
}

func resolveAnchor(profile models.ProfileConfig, sorted []models.DailyLog, day time.Time) (time.Time, string, bool) {
	if start, ok := LatestPeriodStart(sorted, day); ok {
		return start, AnchorSourceLogs, true
	}
	if profile.LastPeriodDate == nil || profile.LastPeriodDate.IsZero() {
		return time.Time{}, "", false
	}
	hint := CalendarDate(*profile.LastPeriodDate, day.Location())
	if hint.After(day) {
		return time.Time{}, "", false
	}
	return hint, AnchorSourceProfile, true
}

// periodFlaggedOn treats a same-day period-end log as still menstruating.
func periodFlaggedOn(sorted []models.DailyLog, day time.Time) bool {
	for _, entry := range sorted {
		if entry.Date.Equal(day) && entry.HasPeriodFlag() {
			return true
		}
	}
	return false
}

// AveragePeriodDuration averages the lengths of maximal runs of calendar-consecutive days
// flagged as period start or end. A run still open at the end of the window counts with its
// length so far. Returns the default period length when no run exists.
func AveragePeriodDuration(sorted []models.DailyLog) int {
	return averagePeriodRun(periodRunLengths(sorted))
}

func periodRunLengths(sorted []models.DailyLog) []int {
	runs := make([]int, 0)
	run := 0
	var previous time.Time

	for _, entry := range sorted {
		if !entry.HasPeriodFlag() {
			if run > 0 {
				runs = append(runs, run)
				run = 0
			}
			continue
		}
		if run > 0 {
			gap := DaysBetween(previous, entry.Date)
			if gap == 0 {
				continue
			}
			if gap != 1 {
				runs = append(runs, run)
				run = 0
			}
		}
		run++
		previous = entry.Date
	}
	if run > 0 {
		runs = append(runs, run)
	}
	return runs
}

func averagePeriodRun(runs []int) int {
	if len(runs) == 0 {
		return models.DefaultPeriodLength
	}
	return int(math.Round(PopulationMean(intsToFloats(runs))))
}

func sortLogsByDate(logs []models.DailyLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Date.Before(logs[j].Date)
	})
}
