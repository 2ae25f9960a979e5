package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

func TestCycleEndpointsReportInsufficientDataForEmptyProfile(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")

	for _, path := range []string{"/api/cycle/info", "/api/cycle/prediction"} {
		response := app.do(t, http.MethodGet, path, cookie, nil).expectStatus(t, http.StatusOK)
		payload := map[string]string{}
		response.decode(t, &payload)
		if payload["status"] != "insufficient_data" {
			t.Fatalf("%s: expected insufficient_data, got %s", path, string(response.body))
		}
	}
}

func TestCycleInfoFromProfileHint(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")

	profileResponse := app.do(t, http.MethodPut, "/api/profile", cookie, map[string]any{
		"last_period_date": "2026-02-20",
		"avg_cycle_length": 28,
	}).expectStatus(t, http.StatusOK)
	profile := map[string]any{}
	profileResponse.decode(t, &profile)
	if profile["last_period_date"] != "2026-02-20" || profile["avg_cycle_length"] != float64(28) {
		t.Fatalf("unexpected profile response: %s", string(profileResponse.body))
	}

	info := services.CycleInfo{}
	app.do(t, http.MethodGet, "/api/cycle/info", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &info)

	if info.CurrentDay != 19 || info.Phase != models.PhaseLuteal {
		t.Fatalf("expected luteal day 19, got day %d phase %q", info.CurrentDay, info.Phase)
	}
	if info.AnchorSource != services.AnchorSourceProfile {
		t.Fatalf("expected profile anchor, got %q", info.AnchorSource)
	}
	if info.DaysUntilNext == nil || *info.DaysUntilNext != 10 {
		t.Fatalf("expected 10 days until next period, got %v", info.DaysUntilNext)
	}
	if info.NextPeriodDate == nil || info.NextPeriodDate.Format(dayLayout) != "2026-03-20" {
		t.Fatalf("expected next period 2026-03-20, got %v", info.NextPeriodDate)
	}
	if info.FertileWindowStart.Format(dayLayout) != "2026-03-01" || info.FertileWindowEnd.Format(dayLayout) != "2026-03-07" {
		t.Fatalf("unexpected fertile window %s..%s", info.FertileWindowStart, info.FertileWindowEnd)
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{name: "future last period", payload: map[string]any{"last_period_date": "2026-03-11"}},
		{name: "cycle too short", payload: map[string]any{"avg_cycle_length": 14}},
		{name: "cycle too long", payload: map[string]any{"avg_cycle_length": 121}},
		{name: "period too long", payload: map[string]any{"avg_period_duration": 15}},
		{name: "malformed date", payload: map[string]any{"last_period_date": "20-02-2026"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.do(t, http.MethodPut, "/api/profile", cookie, tt.payload).expectStatus(t, http.StatusBadRequest)
		})
	}

	app.do(t, http.MethodPut, "/api/profile", cookie, map[string]any{"avg_cycle_length": 30}).expectStatus(t, http.StatusOK)
	cleared := map[string]any{}
	app.do(t, http.MethodPut, "/api/profile", cookie, map[string]any{"avg_cycle_length": nil}).
		expectStatus(t, http.StatusOK).
		decode(t, &cleared)
	if cleared["avg_cycle_length"] != nil {
		t.Fatalf("expected cleared cycle length, got %v", cleared["avg_cycle_length"])
	}
}

func TestDayUpsertNormalizesInputAndSyncsProfileHint(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")

	response := app.do(t, http.MethodPut, "/api/days/2026-03-08", cookie, map[string]any{
		"period_started":  true,
		"symptoms":        []string{" cramps ", "Cramps", "bloating", ""},
		"sentiment_score": 0.5,
	}).expectStatus(t, http.StatusOK)

	day := dayResponse{}
	response.decode(t, &day)
	if diff := cmp.Diff([]string{"cramps", "bloating"}, day.Symptoms); diff != "" {
		t.Fatalf("symptoms mismatch (-want +got):\n%s", diff)
	}
	if day.SentimentLabel == nil || *day.SentimentLabel != models.SentimentPositive {
		t.Fatalf("expected derived positive label, got %v", day.SentimentLabel)
	}
	if day.PeriodEnded != nil {
		t.Fatalf("expected period_ended to stay unset, got %v", *day.PeriodEnded)
	}

	profile := map[string]any{}
	app.do(t, http.MethodGet, "/api/profile", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &profile)
	if profile["last_period_date"] != "2026-03-08" {
		t.Fatalf("expected synced last period date, got %v", profile["last_period_date"])
	}

	info := services.CycleInfo{}
	app.do(t, http.MethodGet, "/api/cycle/info", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &info)
	if info.CurrentDay != 3 || info.AnchorSource != services.AnchorSourceLogs {
		t.Fatalf("expected log anchored day 3, got day %d source %q", info.CurrentDay, info.AnchorSource)
	}
	if info.Phase != models.PhaseIrregular || info.NextPeriodDate != nil {
		t.Fatalf("expected irregular phase without projections for missing cycle length, got %+v", info)
	}
}

func TestDayEndpointsValidateAndDelete(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")

	app.do(t, http.MethodPut, "/api/days/2026-03-11", cookie, map[string]any{"notes": "tomorrow"}).expectStatus(t, http.StatusBadRequest)
	app.do(t, http.MethodPut, "/api/days/not-a-date", cookie, map[string]any{"notes": "x"}).expectStatus(t, http.StatusBadRequest)
	app.do(t, http.MethodPut, "/api/days/2026-03-09", cookie, map[string]any{"sentiment_score": 1.5}).expectStatus(t, http.StatusBadRequest)
	app.do(t, http.MethodPut, "/api/days/2026-03-09", cookie, map[string]any{"sentiment_label": "ecstatic"}).expectStatus(t, http.StatusBadRequest)

	missing := dayResponse{}
	app.do(t, http.MethodGet, "/api/days/2026-03-09", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &missing)
	if missing.Exists || missing.Date != "2026-03-09" {
		t.Fatalf("expected empty placeholder day, got %+v", missing)
	}

	putDay(t, app, cookie, "2026-03-09", map[string]any{"notes": "tired", "sentiment_score": -0.6})
	putDay(t, app, cookie, "2026-03-05", map[string]any{"symptoms": []string{"headache"}})

	days := []dayResponse{}
	app.do(t, http.MethodGet, "/api/days?from=2026-03-01&to=2026-03-10", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &days)
	if len(days) != 2 || days[0].Date != "2026-03-05" || days[1].Date != "2026-03-09" {
		t.Fatalf("unexpected day range: %+v", days)
	}
	if days[1].SentimentLabel == nil || *days[1].SentimentLabel != models.SentimentNegative {
		t.Fatalf("expected negative label, got %v", days[1].SentimentLabel)
	}

	app.do(t, http.MethodGet, "/api/days?from=2026-03-10&to=2026-03-01", cookie, nil).expectStatus(t, http.StatusBadRequest)

	app.do(t, http.MethodDelete, "/api/days/2026-03-09", cookie, nil).expectStatus(t, http.StatusNoContent)
	app.do(t, http.MethodDelete, "/api/days/2026-03-09", cookie, nil).expectStatus(t, http.StatusNotFound)
}

func TestPredictionUsesLoggedHistory(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")

	for _, day := range []string{"2025-12-15", "2026-01-12", "2026-02-09", "2026-03-09"} {
		putDay(t, app, cookie, day, map[string]any{"period_started": true})
	}
	putDay(t, app, cookie, "2026-03-10", map[string]any{"symptoms": []string{"Anxiety"}, "sentiment_score": -0.5})

	prediction := services.CyclePrediction{}
	app.do(t, http.MethodGet, "/api/cycle/prediction", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &prediction)

	if got := prediction.PredictedDate.Format(dayLayout); got != "2026-04-06" {
		t.Fatalf("expected predicted date 2026-04-06, got %s", got)
	}
	if prediction.ConfidenceLevel != models.ConfidenceMedium || prediction.ConfidencePercentage != 75 {
		t.Fatalf("expected medium/75 confidence, got %s/%d", prediction.ConfidenceLevel, prediction.ConfidencePercentage)
	}
	if prediction.Source != services.PredictionSourceStatistical {
		t.Fatalf("expected statistical source, got %q", prediction.Source)
	}
	if diff := cmp.Diff([]int{28, 28, 28}, prediction.CycleLengths); diff != "" {
		t.Fatalf("cycle lengths mismatch (-want +got):\n%s", diff)
	}
	want := []string{services.FactorHistoricalAverage, services.FactorStressSymptoms, services.FactorSentimentTrend}
	if diff := cmp.Diff(want, prediction.FactorsConsidered); diff != "" {
		t.Fatalf("factors mismatch (-want +got):\n%s", diff)
	}
}

func TestPhasesAnomaliesAndCalendarEndpoints(t *testing.T) {
	app := newTestApp(t)
	cookie := registerTestUser(t, app, "owner@example.com")
	app.do(t, http.MethodPut, "/api/profile", cookie, map[string]any{"avg_cycle_length": 28}).expectStatus(t, http.StatusOK)

	putDay(t, app, cookie, "2026-02-09", map[string]any{"period_started": true, "symptoms": []string{"cramps"}})
	putDay(t, app, cookie, "2026-02-24", map[string]any{"symptoms": []string{"bloating"}, "sentiment_score": 0.4})
	putDay(t, app, cookie, "2026-03-09", map[string]any{"period_started": true, "symptoms": []string{"Cramps"}})

	correlation := services.PhaseCorrelation{}
	app.do(t, http.MethodGet, "/api/cycle/phases?days=60&top=1", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &correlation)
	if correlation.TotalLogs != 3 {
		t.Fatalf("expected 3 logs, got %d", correlation.TotalLogs)
	}
	if len(correlation.TopSymptoms) != 1 || correlation.TopSymptoms[0].Count != 2 {
		t.Fatalf("expected cramps counted twice, got %+v", correlation.TopSymptoms)
	}
	app.do(t, http.MethodGet, "/api/cycle/phases?days=-1", cookie, nil).expectStatus(t, http.StatusBadRequest)

	report := services.CycleAnomalyReport{}
	app.do(t, http.MethodGet, "/api/cycle/anomalies", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &report)
	if report.Stats.Count != 1 || len(report.Anomalies) != 0 {
		t.Fatalf("unexpected anomaly report: %+v", report)
	}

	calendar := struct {
		Month string                 `json:"month"`
		Days  []services.CalendarDay `json:"days"`
	}{}
	app.do(t, http.MethodGet, "/api/cycle/calendar?month=2026-03", cookie, nil).expectStatus(t, http.StatusOK).decode(t, &calendar)
	if calendar.Month != "2026-03" || len(calendar.Days)%7 != 0 {
		t.Fatalf("unexpected calendar payload: month %q with %d days", calendar.Month, len(calendar.Days))
	}
	periodDays := make([]string, 0)
	for _, day := range calendar.Days {
		if day.IsPeriod {
			periodDays = append(periodDays, day.DateString)
		}
	}
	if strings.Join(periodDays, ",") != "2026-03-09" {
		t.Fatalf("expected logged period on 2026-03-09, got %v", periodDays)
	}

	app.do(t, http.MethodGet, "/api/cycle/calendar?month=03-2026", cookie, nil).expectStatus(t, http.StatusBadRequest)
}
