package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

const (
	MinCycleLength             = 15
	MaxCycleLength             = 120
	lutealPhaseDays            = 14
	fertileDaysBeforeOvulation = 5
	fertileDaysAfterOvulation  = 1
)

type FertilityProjection struct {
	NextPeriodDate     time.Time
	OvulationDate      time.Time
	FertileWindowStart time.Time
	FertileWindowEnd   time.Time
	IsFertileWindowNow bool
}

func IsValidCycleLength(value int) bool {
	return value >= MinCycleLength && value <= MaxCycleLength
}

func IsValidPeriodDuration(value int) bool {
	return value >= 1 && value <= 14
}

// UsableCycleLength returns the configured cycle length, or ErrInvalidConfiguration when it
// is present but outside the sane range, or ErrInsufficientData when it is missing.
func UsableCycleLength(cycleLength *int) (int, error) {
	if cycleLength == nil {
		return 0, ErrInsufficientData
	}
	if !IsValidCycleLength(*cycleLength) {
		return 0, ErrInvalidConfiguration
	}
	return *cycleLength, nil
}

// ProjectFertility estimates ovulation and the fertile window for the cycle starting at
// anchor. Invalid configuration is treated as insufficient data.
func ProjectFertility(anchor time.Time, cycleLength *int, today time.Time) (FertilityProjection, bool) {
	length, err := UsableCycleLength(cycleLength)
	if err != nil || anchor.IsZero() {
		return FertilityProjection{}, false
	}
	return projectFertilityForLength(anchor, length, today), true
}

func projectFertilityForLength(anchor time.Time, cycleLength int, today time.Time) FertilityProjection {
	ovulation := anchor.AddDate(0, 0, cycleLength-lutealPhaseDays)
	windowStart := ovulation.AddDate(0, 0, -fertileDaysBeforeOvulation)
	windowEnd := ovulation.AddDate(0, 0, fertileDaysAfterOvulation)

	return FertilityProjection{
		NextPeriodDate:     anchor.AddDate(0, 0, cycleLength),
		OvulationDate:      ovulation,
		FertileWindowStart: windowStart,
		FertileWindowEnd:   windowEnd,
		IsFertileWindowNow: betweenCalendarDaysInclusive(DateAtLocation(today, anchor.Location()), windowStart, windowEnd),
	}
}

// phaseIrregular reports whether the cycle phase cannot be classified at all. A configured but
// out-of-range cycle length still allows classification and only disables projections.
func phaseIrregular(profile models.ProfileConfig) bool {
	return profile.IsIrregular || profile.AvgCycleLength == nil
}

func projectionsDisabled(profile models.ProfileConfig) bool {
	if phaseIrregular(profile) {
		return true
	}
	_, err := UsableCycleLength(profile.AvgCycleLength)
	return err != nil
}
