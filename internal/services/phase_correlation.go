package services

import (
	"sort"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"gonum.org/v1/gonum/stat"
)

const DefaultTopSymptoms = 5

type SymptomFrequency struct {
	Symptom string `json:"symptom"`
	Count   int    `json:"count"`
}

type PhaseStats struct {
	Phase         string             `json:"phase"`
	LogCount      int                `json:"log_count"`
	Symptoms      []SymptomFrequency `json:"symptoms"`
	MeanSentiment *float64           `json:"mean_sentiment"`
}

type PhaseCorrelation struct {
	Phases      []PhaseStats       `json:"phases"`
	TopSymptoms []SymptomFrequency `json:"top_symptoms"`
	TotalLogs   int                `json:"total_logs"`
}

// symptomTally counts labels while remembering first-encounter order for stable tie breaks.
type symptomTally struct {
	counts map[string]int
	labels map[string]string
	order  []string
}

func newSymptomTally() *symptomTally {
	return &symptomTally{counts: make(map[string]int), labels: make(map[string]string)}
}

func (tally *symptomTally) add(symptom string) {
	label := strings.TrimSpace(symptom)
	if label == "" {
		return
	}
	key := strings.ToLower(label)
	if _, exists := tally.counts[key]; !exists {
		tally.order = append(tally.order, key)
		tally.labels[key] = label
	}
	tally.counts[key]++
}

func (tally *symptomTally) ranked(limit int) []SymptomFrequency {
	ranked := make([]SymptomFrequency, 0, len(tally.order))
	for _, key := range tally.order {
		ranked = append(ranked, SymptomFrequency{Symptom: tally.labels[key], Count: tally.counts[key]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// AggregateByPhase infers each log's phase retroactively from the period starts on or before
// that log's date, then groups symptoms and sentiment by phase. Logs are not modified.
func AggregateByPhase(logs []models.DailyLog, profile models.ProfileConfig, topN int) PhaseCorrelation {
	return AggregateByPhaseWithHistory(logs, nil, profile, topN)
}

// AggregateByPhaseWithHistory aggregates logs like AggregateByPhase, additionally resolving
// anchors from history: earlier logs (typically period starts preceding the window) that are
// not themselves counted.
func AggregateByPhaseWithHistory(logs []models.DailyLog, history []models.DailyLog, profile models.ProfileConfig, topN int) PhaseCorrelation {
	if topN <= 0 {
		topN = DefaultTopSymptoms
	}

	location := time.UTC
	if len(logs) > 0 {
		location = logs[0].Date.Location()
	}
	sorted := sortedLogsCopy(logs, location)
	anchors := sortedLogsCopy(append(append([]models.DailyLog{}, history...), logs...), location)
	periodDuration := profile.AvgPeriodDuration
	if runs := periodRunLengths(sorted); len(runs) > 0 {
		periodDuration = averagePeriodRun(runs)
	}
	irregular := phaseIrregular(profile)

	tallies := make(map[string]*symptomTally)
	sentiments := make(map[string][]float64)
	counts := make(map[string]int)
	overall := newSymptomTally()

	for _, entry := range sorted {
		phase := models.PhaseIrregular
		if anchor, _, ok := resolveAnchor(profile, anchors, entry.Date); ok {
			cycleDay := DaysBetween(anchor, entry.Date) + 1
			phase = ClassifyPhase(cycleDay, irregular, periodDuration, entry.HasPeriodFlag())
		}

		counts[phase]++
		tally, exists := tallies[phase]
		if !exists {
			tally = newSymptomTally()
			tallies[phase] = tally
		}
		for _, symptom := range entry.Symptoms {
			tally.add(symptom)
			overall.add(symptom)
		}
		if entry.SentimentScore != nil {
			sentiments[phase] = append(sentiments[phase], *entry.SentimentScore)
		}
	}

	phases := make([]PhaseStats, 0, len(models.AllPhases()))
	for _, phase := range models.AllPhases() {
		phaseStats := PhaseStats{Phase: phase, LogCount: counts[phase], Symptoms: []SymptomFrequency{}}
		if tally, exists := tallies[phase]; exists {
			phaseStats.Symptoms = tally.ranked(0)
		}
		if values := sentiments[phase]; len(values) > 0 {
			mean := stat.Mean(values, nil)
			phaseStats.MeanSentiment = &mean
		}
		phases = append(phases, phaseStats)
	}

	return PhaseCorrelation{
		Phases:      phases,
		TopSymptoms: overall.ranked(topN),
		TotalLogs:   len(sorted),
	}
}
