package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

type CycleInfo struct {
	CurrentDay         int        `json:"current_day"`
	Phase              string     `json:"phase"`
	DaysUntilNext      *int       `json:"days_until_next"`
	NextPeriodDate     *time.Time `json:"next_period_date"`
	OvulationDate      *time.Time `json:"ovulation_date"`
	FertileWindowStart *time.Time `json:"fertile_window_start"`
	FertileWindowEnd   *time.Time `json:"fertile_window_end"`
	IsFertileWindowNow bool       `json:"is_fertile_window_now"`
	AnchorDate         time.Time  `json:"anchor_date"`
	AnchorSource       string     `json:"anchor_source"`
	InPeriodNow        bool       `json:"in_period_now"`
	AvgPeriodDuration  int        `json:"avg_period_duration"`
	CycleLooksLong     bool       `json:"cycle_looks_long"`
}

// ComputeCycleInfo derives the current cycle position for today. A nil result means no
// anchor could be established (no period-start log and no profile hint): callers should show
// an incomplete-profile state rather than an error.
func ComputeCycleInfo(profile models.ProfileConfig, logs []models.DailyLog, today time.Time) *CycleInfo {
	reconstruction, ok := ReconstructCycle(profile, logs, today)
	if !ok {
		return nil
	}

	periodDuration := resolvePeriodDuration(profile, reconstruction)

	info := &CycleInfo{
		CurrentDay:        reconstruction.CurrentDay,
		Phase:             ClassifyPhase(reconstruction.CurrentDay, phaseIrregular(profile), periodDuration, reconstruction.InPeriodNow),
		AnchorDate:        reconstruction.Anchor,
		AnchorSource:      reconstruction.AnchorSource,
		InPeriodNow:       reconstruction.InPeriodNow,
		AvgPeriodDuration: periodDuration,
	}
	if projectionsDisabled(profile) {
		return info
	}

	projection, ok := ProjectFertility(reconstruction.Anchor, profile.AvgCycleLength, today)
	if !ok {
		return info
	}

	todayDay := DateAtLocation(today, today.Location())
	info.NextPeriodDate = timePtr(projection.NextPeriodDate)
	info.DaysUntilNext = intPtr(DaysBetween(todayDay, projection.NextPeriodDate))
	info.OvulationDate = timePtr(projection.OvulationDate)
	info.FertileWindowStart = timePtr(projection.FertileWindowStart)
	info.FertileWindowEnd = timePtr(projection.FertileWindowEnd)
	info.IsFertileWindowNow = projection.IsFertileWindowNow
	info.CycleLooksLong = CycleDayLooksLong(reconstruction.CurrentDay, *profile.AvgCycleLength)
	return info
}

// resolvePeriodDuration prefers the duration observed in logs over the profile setting.
func resolvePeriodDuration(profile models.ProfileConfig, reconstruction CycleReconstruction) int {
	if reconstruction.PeriodRunCount > 0 {
		return reconstruction.AvgPeriodDuration
	}
	if IsValidPeriodDuration(profile.AvgPeriodDuration) {
		return profile.AvgPeriodDuration
	}
	return models.DefaultPeriodLength
}

func CycleDayLooksLong(currentDay int, cycleLength int) bool {
	if currentDay <= 0 || cycleLength <= 0 {
		return false
	}
	return currentDay > cycleLength+7
}
