package enrichment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	block      bool
}

func (stub *stubGenerator) GenerateJSON(ctx context.Context, _ string, prompt string) (string, error) {
	stub.lastPrompt = prompt
	if stub.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return stub.response, stub.err
}

func TestParseResponseDecodesFencedJSON(t *testing.T) {
	raw := "```json\n" + `{"predicted_date":"2026-03-02","confidence_level":"high","confidence_percentage":88,
"window_earliest":"2026-03-01","window_latest":"2026-03-04","factors":["stable history"],"reasoning":"steady"}` + "\n```"

	result, err := parseResponse(raw, time.UTC)
	if err != nil {
		t.Fatalf("parseResponse() unexpected error: %v", err)
	}
	want := services.EnrichmentResult{
		PredictedDate:        time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		ConfidenceLevel:      "high",
		ConfidencePercentage: 88,
		WindowEarliest:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		WindowLatest:         time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		Factors:              []string{"stable history"},
		Reasoning:            "steady",
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("parseResponse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseResponseRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "next period in about a month"},
		{name: "missing date", raw: `{"confidence_level":"low","confidence_percentage":40}`},
		{name: "bad date", raw: `{"predicted_date":"March 2","confidence_level":"low","confidence_percentage":40}`},
		{name: "missing percentage", raw: `{"predicted_date":"2026-03-02","confidence_level":"low"}`},
		{name: "bad window", raw: `{"predicted_date":"2026-03-02","confidence_level":"low","confidence_percentage":40,"window_earliest":"soon"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse(tt.raw, time.UTC)
			if !errors.Is(err, services.ErrInvalidEnrichmentValue) {
				t.Fatalf("expected ErrInvalidEnrichmentValue, got %v", err)
			}
		})
	}
}

func TestEnrichSendsSignalsInPrompt(t *testing.T) {
	generator := &stubGenerator{response: `{"predicted_date":"2026-03-02","confidence_level":"medium","confidence_percentage":70}`}
	enricher := newEnricher(generator, time.Second)

	average := -0.4
	request := services.EnrichmentRequest{
		Signals: services.PredictionSignals{
			Anchor:             time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC),
			Stats:              services.CycleLengthStats{Lengths: []int{28, 30, 26}, Count: 3, Mean: 28},
			StressSymptomCount: 2,
			AverageSentiment:   &average,
			Today:              time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
		},
		Fallback: services.CyclePrediction{
			PredictedDate:   time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
			ConfidenceLevel: models.ConfidenceMedium,
			MeanCycleLength: 28,
		},
	}

	result, err := enricher.Enrich(context.Background(), request)
	if err != nil {
		t.Fatalf("Enrich() unexpected error: %v", err)
	}
	if result.ConfidencePercentage != 70 {
		t.Fatalf("expected percentage 70, got %d", result.ConfidencePercentage)
	}
	for _, fragment := range []string{`"last_period_start":"2026-02-02"`, `"cycle_lengths":[28,30,26]`, `"stress_symptoms_last_30_days":2`} {
		if !strings.Contains(generator.lastPrompt, fragment) {
			t.Fatalf("expected prompt to contain %s, got %s", fragment, generator.lastPrompt)
		}
	}
}

func TestEnrichTimesOut(t *testing.T) {
	enricher := newEnricher(&stubGenerator{block: true}, 10*time.Millisecond)

	_, err := enricher.Enrich(context.Background(), services.EnrichmentRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPredictorFallsBackWhenEnricherFails(t *testing.T) {
	anchor := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	input := services.PredictionInput{
		PeriodStartHistory: []time.Time{anchor.AddDate(0, 0, -84), anchor.AddDate(0, 0, -56), anchor.AddDate(0, 0, -28), anchor},
		Today:              anchor.AddDate(0, 0, 5),
	}

	failures := 0
	predictor := services.NewPredictor(
		newEnricher(&stubGenerator{err: errors.New("quota exceeded")}, time.Second),
		services.WithEnrichmentFailureHook(func(error) { failures++ }),
	)
	prediction, err := predictor.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	if prediction.Source != services.PredictionSourceStatistical {
		t.Fatalf("expected statistical source, got %q", prediction.Source)
	}
	if failures != 1 {
		t.Fatalf("expected one reported failure, got %d", failures)
	}
	if want := anchor.AddDate(0, 0, 28); !prediction.PredictedDate.Equal(want) {
		t.Fatalf("expected fallback date %s, got %s", want, prediction.PredictedDate)
	}
}
