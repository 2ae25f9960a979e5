package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/services"
)

const systemPrompt = `You estimate the start date of a person's next menstrual period from summary statistics.
Respond with a single JSON object and nothing else:
{"predicted_date":"YYYY-MM-DD","confidence_level":"high|medium|low","confidence_percentage":0-100,
"window_earliest":"YYYY-MM-DD","window_latest":"YYYY-MM-DD","factors":["..."],"reasoning":"..."}
Do not give medical advice. Keep reasoning under 300 characters.`

type promptPayload struct {
	Today                  string   `json:"today"`
	LastPeriodStart        string   `json:"last_period_start"`
	CycleLengths           []int    `json:"cycle_lengths"`
	MeanCycleLength        float64  `json:"mean_cycle_length"`
	StdDevDays             float64  `json:"std_dev_days"`
	StressSymptomsLast30   int      `json:"stress_symptoms_last_30_days"`
	AverageSentimentLast30 *float64 `json:"average_sentiment_last_30_days"`
	MarkedIrregular        bool     `json:"marked_irregular"`
	StatisticalEstimate    string   `json:"statistical_estimate"`
	StatisticalConfidence  string   `json:"statistical_confidence"`
}

type responsePayload struct {
	PredictedDate        string   `json:"predicted_date"`
	ConfidenceLevel      string   `json:"confidence_level"`
	ConfidencePercentage *int     `json:"confidence_percentage"`
	WindowEarliest       string   `json:"window_earliest"`
	WindowLatest         string   `json:"window_latest"`
	Factors              []string `json:"factors"`
	Reasoning            string   `json:"reasoning"`
}

func buildPrompt(request services.EnrichmentRequest) (string, error) {
	signals := request.Signals
	lengths := signals.Stats.Lengths
	if lengths == nil {
		lengths = []int{}
	}
	payload := promptPayload{
		Today:                  signals.Today.Format(responseDateLayout),
		LastPeriodStart:        signals.Anchor.Format(responseDateLayout),
		CycleLengths:           lengths,
		MeanCycleLength:        request.Fallback.MeanCycleLength,
		StdDevDays:             signals.Stats.StdDev,
		StressSymptomsLast30:   signals.StressSymptomCount,
		AverageSentimentLast30: signals.AverageSentiment,
		MarkedIrregular:        signals.IsIrregular,
		StatisticalEstimate:    request.Fallback.PredictedDate.Format(responseDateLayout),
		StatisticalConfidence:  request.Fallback.ConfidenceLevel,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode enrichment prompt: %w", err)
	}
	return "Cycle summary:\n" + string(encoded), nil
}

// parseResponse decodes the model output. Range checks against the anchor happen in the
// predictor; this only rejects output that is not well-formed.
func parseResponse(raw string, location *time.Location) (services.EnrichmentResult, error) {
	if location == nil {
		location = time.UTC
	}
	raw = stripCodeFence(raw)

	var payload responsePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return services.EnrichmentResult{}, fmt.Errorf("%w: decode response: %v", services.ErrInvalidEnrichmentValue, err)
	}
	if payload.ConfidencePercentage == nil {
		return services.EnrichmentResult{}, fmt.Errorf("%w: missing confidence percentage", services.ErrInvalidEnrichmentValue)
	}

	predicted, err := parseDate(payload.PredictedDate, location)
	if err != nil || predicted.IsZero() {
		return services.EnrichmentResult{}, fmt.Errorf("%w: predicted date %q", services.ErrInvalidEnrichmentValue, payload.PredictedDate)
	}
	earliest, err := parseDate(payload.WindowEarliest, location)
	if err != nil {
		return services.EnrichmentResult{}, fmt.Errorf("%w: window earliest %q", services.ErrInvalidEnrichmentValue, payload.WindowEarliest)
	}
	latest, err := parseDate(payload.WindowLatest, location)
	if err != nil {
		return services.EnrichmentResult{}, fmt.Errorf("%w: window latest %q", services.ErrInvalidEnrichmentValue, payload.WindowLatest)
	}

	return services.EnrichmentResult{
		PredictedDate:        predicted,
		ConfidenceLevel:      payload.ConfidenceLevel,
		ConfidencePercentage: *payload.ConfidencePercentage,
		WindowEarliest:       earliest,
		WindowLatest:         latest,
		Factors:              payload.Factors,
		Reasoning:            payload.Reasoning,
	}, nil
}

func parseDate(raw string, location *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(responseDateLayout, raw, location)
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
