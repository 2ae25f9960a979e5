package services

import (
	"math"
	"sort"
	"time"
)

const (
	anomalyDeviationThreshold = 2.0
	minAnomalySamples         = 3
)

type CycleAnomaly struct {
	StartDate time.Time `json:"start_date"`
	Length    int       `json:"length"`
	Deviation float64   `json:"deviation"`
}

// DetectCycleAnomalies flags plausible cycles whose length sits more than two population
// standard deviations from the mean. StartDate is the start of the anomalous cycle.
func DetectCycleAnomalies(starts []time.Time) []CycleAnomaly {
	ordered := make([]time.Time, len(starts))
	copy(ordered, starts)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Before(ordered[j])
	})

	type cycleSample struct {
		start  time.Time
		length int
	}
	samples := make([]cycleSample, 0, len(ordered))
	for index := 1; index < len(ordered); index++ {
		gap := DaysBetween(ordered[index-1], ordered[index])
		if gap < MinPlausibleCycleLength || gap > MaxPlausibleCycleLength {
			continue
		}
		samples = append(samples, cycleSample{start: ordered[index-1], length: gap})
	}

	anomalies := make([]CycleAnomaly, 0)
	if len(samples) < minAnomalySamples {
		return anomalies
	}

	values := make([]float64, len(samples))
	for index, sample := range samples {
		values[index] = float64(sample.length)
	}
	mean := PopulationMean(values)
	deviation := PopulationStdDev(values)
	if deviation == 0 {
		return anomalies
	}

	for _, sample := range samples {
		distance := math.Abs(float64(sample.length)-mean) / deviation
		if distance > anomalyDeviationThreshold {
			anomalies = append(anomalies, CycleAnomaly{
				StartDate: sample.start,
				Length:    sample.length,
				Deviation: math.Round(distance*100) / 100,
			})
		}
	}
	return anomalies
}
