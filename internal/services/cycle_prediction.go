package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"gonum.org/v1/gonum/stat"
)

const (
	PredictionSourceStatistical = "statistical"
	PredictionSourceEnriched    = "enriched"

	predictionWindowDays       = 3
	reliableHistoryCycles      = 3
	lowConfidencePercentage    = 60
	mediumConfidencePercentage = 75
	recentSignalWindowDays     = 30

	FactorHistoricalAverage = "historical cycle average"
	FactorStressSymptoms    = "stress-related symptoms in the last 30 days"
	FactorSentimentTrend    = "average mood sentiment in the last 30 days"
	FactorIrregularFlag     = "profile marked as irregular"
	FactorProfileBaseline   = "profile cycle length baseline"
)

var stressSymptomKeywords = []string{"stress", "anxiety", "anxious", "irritability", "insomnia", "tension", "overwhelm", "panic"}

type CyclePrediction struct {
	PredictedDate            time.Time `json:"predicted_date"`
	ConfidenceLevel          string    `json:"confidence_level"`
	ConfidencePercentage     int       `json:"confidence_percentage"`
	PredictionWindowEarliest time.Time `json:"prediction_window_earliest"`
	PredictionWindowLatest   time.Time `json:"prediction_window_latest"`
	CycleLengths             []int     `json:"cycle_lengths"`
	StdDevDays               float64   `json:"std_dev_days"`
	MeanCycleLength          float64   `json:"mean_cycle_length"`
	FactorsConsidered        []string  `json:"factors_considered"`
	Source                   string    `json:"source"`
	Reasoning                string    `json:"reasoning,omitempty"`
}

type PredictionInput struct {
	PeriodStartHistory []time.Time
	RecentLogs         []models.DailyLog
	Profile            models.ProfileConfig
	Today              time.Time
}

// PredictionSignals are the derived inputs shared by the statistical fallback and enrichment.
type PredictionSignals struct {
	Anchor             time.Time
	Stats              CycleLengthStats
	StressSymptomCount int
	AverageSentiment   *float64
	IsIrregular        bool
	Today              time.Time
}

type EnrichmentRequest struct {
	Signals  PredictionSignals
	Fallback CyclePrediction
}

type EnrichmentResult struct {
	PredictedDate        time.Time
	ConfidenceLevel      string
	ConfidencePercentage int
	WindowEarliest       time.Time
	WindowLatest         time.Time
	Factors              []string
	Reasoning            string
}

// Enricher is an optional external estimate, typically a generative model. Its output is
// advisory: any error or implausible value falls back to the statistical prediction.
type Enricher interface {
	Enrich(ctx context.Context, request EnrichmentRequest) (EnrichmentResult, error)
}

type PredictorOption func(*Predictor)

func WithEnrichmentFailureHook(hook func(error)) PredictorOption {
	return func(predictor *Predictor) {
		predictor.onEnrichmentFailure = hook
	}
}

type Predictor struct {
	enricher            Enricher
	onEnrichmentFailure func(error)
}

func NewPredictor(enricher Enricher, options ...PredictorOption) *Predictor {
	predictor := &Predictor{enricher: enricher}
	for _, option := range options {
		option(predictor)
	}
	return predictor
}

// PredictNextCycle runs the deterministic statistical prediction without enrichment.
func PredictNextCycle(history []time.Time, recentLogs []models.DailyLog, profile models.ProfileConfig, today time.Time) (CyclePrediction, error) {
	return NewPredictor(nil).Predict(context.Background(), PredictionInput{
		PeriodStartHistory: history,
		RecentLogs:         recentLogs,
		Profile:            profile,
		Today:              today,
	})
}

func (predictor *Predictor) Predict(ctx context.Context, input PredictionInput) (CyclePrediction, error) {
	signals, err := BuildPredictionSignals(input)
	if err != nil {
		return CyclePrediction{}, err
	}

	fallback := FallbackPrediction(signals, input.Profile)
	if predictor == nil || predictor.enricher == nil {
		return fallback, nil
	}

	result, err := predictor.enricher.Enrich(ctx, EnrichmentRequest{Signals: signals, Fallback: fallback})
	if err != nil {
		predictor.reportEnrichmentFailure(fmt.Errorf("%w: %v", ErrEnrichmentUnavailable, err))
		return fallback, nil
	}
	enriched, err := mergeEnrichment(fallback, signals, result)
	if err != nil {
		predictor.reportEnrichmentFailure(err)
		return fallback, nil
	}
	return enriched, nil
}

func (predictor *Predictor) reportEnrichmentFailure(err error) {
	if predictor.onEnrichmentFailure != nil {
		predictor.onEnrichmentFailure(err)
	}
}

func BuildPredictionSignals(input PredictionInput) (PredictionSignals, error) {
	location := input.Today.Location()
	today := DateAtLocation(input.Today, location)

	history := make([]time.Time, 0, len(input.PeriodStartHistory))
	for _, start := range input.PeriodStartHistory {
		day := CalendarDate(start, location)
		if start.IsZero() || day.After(today) {
			continue
		}
		history = append(history, day)
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].Before(history[j])
	})

	anchor := time.Time{}
	if len(history) > 0 {
		anchor = history[len(history)-1]
	} else if input.Profile.LastPeriodDate != nil && !input.Profile.LastPeriodDate.IsZero() {
		hint := CalendarDate(*input.Profile.LastPeriodDate, location)
		if !hint.After(today) {
			anchor = hint
		}
	}
	if anchor.IsZero() {
		return PredictionSignals{}, ErrInsufficientData
	}

	stressCount, averageSentiment := recentWellbeingSignals(input.RecentLogs, today)
	return PredictionSignals{
		Anchor:             anchor,
		Stats:              ComputeCycleLengthStats(history),
		StressSymptomCount: stressCount,
		AverageSentiment:   averageSentiment,
		IsIrregular:        input.Profile.IsIrregular,
		Today:              today,
	}, nil
}

// FallbackPrediction is the conformance baseline: the predicted date is the anchor plus the
// rounded mean cycle length, with a fixed +/-3 day window and a discrete low/medium
// confidence. This path never reports high confidence.
func FallbackPrediction(signals PredictionSignals, profile models.ProfileConfig) CyclePrediction {
	factors := []string{FactorHistoricalAverage}

	mean := signals.Stats.Mean
	if signals.Stats.Count < 1 {
		mean = float64(models.DefaultCycleLength)
		if configured, err := UsableCycleLength(profile.AvgCycleLength); err == nil {
			mean = float64(configured)
			factors = append(factors, FactorProfileBaseline)
		}
	}

	level := models.ConfidenceMedium
	percentage := mediumConfidencePercentage
	if signals.Stats.Count < reliableHistoryCycles {
		level = models.ConfidenceLow
		percentage = lowConfidencePercentage
	}

	if signals.StressSymptomCount > 0 {
		factors = append(factors, FactorStressSymptoms)
	}
	if signals.AverageSentiment != nil {
		factors = append(factors, FactorSentimentTrend)
	}
	if signals.IsIrregular {
		factors = append(factors, FactorIrregularFlag)
	}

	predicted := signals.Anchor.AddDate(0, 0, int(math.Round(mean)))
	lengths := signals.Stats.Lengths
	if lengths == nil {
		lengths = []int{}
	}

	return CyclePrediction{
		PredictedDate:            predicted,
		ConfidenceLevel:          level,
		ConfidencePercentage:     percentage,
		PredictionWindowEarliest: predicted.AddDate(0, 0, -predictionWindowDays),
		PredictionWindowLatest:   predicted.AddDate(0, 0, predictionWindowDays),
		CycleLengths:             lengths,
		StdDevDays:               signals.Stats.StdDev,
		MeanCycleLength:          mean,
		FactorsConsidered:        factors,
		Source:                   PredictionSourceStatistical,
	}
}

func mergeEnrichment(fallback CyclePrediction, signals PredictionSignals, result EnrichmentResult) (CyclePrediction, error) {
	location := signals.Anchor.Location()
	if result.PredictedDate.IsZero() {
		return CyclePrediction{}, fmt.Errorf("%w: missing predicted date", ErrInvalidEnrichmentValue)
	}
	predicted := CalendarDate(result.PredictedDate, location)

	offset := DaysBetween(signals.Anchor, predicted)
	if offset < MinCycleLength || offset > MaxCycleLength {
		return CyclePrediction{}, fmt.Errorf("%w: predicted date %d days after anchor", ErrInvalidEnrichmentValue, offset)
	}

	level := strings.ToLower(strings.TrimSpace(result.ConfidenceLevel))
	switch level {
	case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
	default:
		return CyclePrediction{}, fmt.Errorf("%w: confidence level %q", ErrInvalidEnrichmentValue, result.ConfidenceLevel)
	}
	if result.ConfidencePercentage < 0 || result.ConfidencePercentage > 100 {
		return CyclePrediction{}, fmt.Errorf("%w: confidence percentage %d", ErrInvalidEnrichmentValue, result.ConfidencePercentage)
	}

	earliest := predicted.AddDate(0, 0, -predictionWindowDays)
	latest := predicted.AddDate(0, 0, predictionWindowDays)
	if !result.WindowEarliest.IsZero() || !result.WindowLatest.IsZero() {
		earliest = CalendarDate(result.WindowEarliest, location)
		latest = CalendarDate(result.WindowLatest, location)
		if result.WindowEarliest.IsZero() || result.WindowLatest.IsZero() || !betweenCalendarDaysInclusive(predicted, earliest, latest) {
			return CyclePrediction{}, fmt.Errorf("%w: prediction window does not contain predicted date", ErrInvalidEnrichmentValue)
		}
	}

	merged := fallback
	merged.PredictedDate = predicted
	merged.ConfidenceLevel = level
	merged.ConfidencePercentage = result.ConfidencePercentage
	merged.PredictionWindowEarliest = earliest
	merged.PredictionWindowLatest = latest
	merged.FactorsConsidered = appendUniqueFactors(fallback.FactorsConsidered, result.Factors)
	merged.Source = PredictionSourceEnriched
	merged.Reasoning = strings.TrimSpace(result.Reasoning)
	return merged, nil
}

func appendUniqueFactors(base []string, extra []string) []string {
	merged := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, factor := range append(append([]string{}, base...), extra...) {
		trimmed := strings.TrimSpace(factor)
		key := strings.ToLower(trimmed)
		if trimmed == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, trimmed)
	}
	return merged
}

// recentWellbeingSignals counts stress-related symptom mentions and averages sentiment over
// the trailing 30 days ending on today.
func recentWellbeingSignals(logs []models.DailyLog, today time.Time) (int, *float64) {
	from := today.AddDate(0, 0, -(recentSignalWindowDays - 1))
	stressCount := 0
	sentiments := make([]float64, 0, len(logs))

	for _, entry := range logs {
		day := CalendarDate(entry.Date, today.Location())
		if day.Before(from) || day.After(today) {
			continue
		}
		for _, symptom := range entry.Symptoms {
			if IsStressSymptom(symptom) {
				stressCount++
			}
		}
		if entry.SentimentScore != nil {
			sentiments = append(sentiments, *entry.SentimentScore)
		}
	}

	if len(sentiments) == 0 {
		return stressCount, nil
	}
	average := stat.Mean(sentiments, nil)
	return stressCount, &average
}

func IsStressSymptom(symptom string) bool {
	normalized := strings.ToLower(strings.TrimSpace(symptom))
	if normalized == "" {
		return false
	}
	for _, keyword := range stressSymptomKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
