package services

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/terraincognita07/cyclecast/internal/models"
)

const (
	MinPlausibleCycleLength = 21
	MaxPlausibleCycleLength = 40
	DefaultLookbackMonths   = 12
)

type CycleLengthStats struct {
	Lengths               []int   `json:"cycle_lengths"`
	Count                 int     `json:"count"`
	Mean                  float64 `json:"mean"`
	StdDev                float64 `json:"std_dev"`
	Min                   int     `json:"min"`
	Max                   int     `json:"max"`
	VariabilityConfidence string  `json:"variability_confidence"`
}

// PeriodStartHistory collects unique period-start dates within the lookback window ending on
// today, oldest first.
func PeriodStartHistory(logs []models.DailyLog, today time.Time, lookbackMonths int) []time.Time {
	if lookbackMonths <= 0 {
		lookbackMonths = DefaultLookbackMonths
	}
	location := today.Location()
	today = DateAtLocation(today, location)
	from := today.AddDate(0, -lookbackMonths, 0)

	seen := make(map[string]bool)
	starts := make([]time.Time, 0)
	for _, entry := range sortedLogsCopy(logs, location) {
		if !entry.IsPeriodStart() || entry.Date.Before(from) || entry.Date.After(today) {
			continue
		}
		key := DayKey(entry.Date)
		if seen[key] {
			continue
		}
		seen[key] = true
		starts = append(starts, entry.Date)
	}
	return starts
}

// ComputeCycleLengthStats measures start-to-start gaps. Gaps outside the plausible range
// (typically a missed log) are dropped instead of skewing the mean.
func ComputeCycleLengthStats(starts []time.Time) CycleLengthStats {
	lengths := PlausibleCycleLengths(starts)
	result := CycleLengthStats{
		Lengths:               lengths,
		Count:                 len(lengths),
		VariabilityConfidence: models.ConfidenceLow,
	}
	if len(lengths) == 0 {
		return result
	}

	data := intsToFloats(lengths)
	result.Mean = PopulationMean(data)
	result.StdDev = PopulationStdDev(data)
	minimum, _ := stats.Min(data)
	maximum, _ := stats.Max(data)
	result.Min = int(minimum)
	result.Max = int(maximum)
	result.VariabilityConfidence = variabilityConfidence(result.Count, result.StdDev)
	return result
}

func PlausibleCycleLengths(starts []time.Time) []int {
	ordered := make([]time.Time, len(starts))
	copy(ordered, starts)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Before(ordered[j])
	})

	lengths := make([]int, 0, len(ordered))
	for index := 1; index < len(ordered); index++ {
		gap := DaysBetween(ordered[index-1], ordered[index])
		if gap < MinPlausibleCycleLength || gap > MaxPlausibleCycleLength {
			continue
		}
		lengths = append(lengths, gap)
	}
	return lengths
}

func PopulationMean(values []float64) float64 {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

// PopulationStdDev divides by N. Anomaly detection relies on the same formula.
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	deviation, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return 0
	}
	return deviation
}

func variabilityConfidence(count int, stdDev float64) string {
	switch {
	case count < 2:
		return models.ConfidenceLow
	case stdDev <= 2:
		return models.ConfidenceHigh
	case stdDev <= 4:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func intsToFloats(values []int) []float64 {
	converted := make([]float64, len(values))
	for index, value := range values {
		converted[index] = float64(value)
	}
	return converted
}
