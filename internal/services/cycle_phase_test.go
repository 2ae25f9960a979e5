package services

import (
	"testing"

	"github.com/terraincognita07/cyclecast/internal/models"
)

func TestClassifyPhaseBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		cycleDay       int
		periodDuration int
		want           string
	}{
		{name: "first day", cycleDay: 1, periodDuration: 5, want: models.PhaseMenstruation},
		{name: "last period day", cycleDay: 5, periodDuration: 5, want: models.PhaseMenstruation},
		{name: "after period", cycleDay: 6, periodDuration: 5, want: models.PhaseFollicular},
		{name: "follicular end", cycleDay: 13, periodDuration: 5, want: models.PhaseFollicular},
		{name: "ovulation start", cycleDay: 14, periodDuration: 5, want: models.PhaseOvulation},
		{name: "ovulation end", cycleDay: 16, periodDuration: 5, want: models.PhaseOvulation},
		{name: "luteal start", cycleDay: 17, periodDuration: 5, want: models.PhaseLuteal},
		{name: "very long cycle", cycleDay: 60, periodDuration: 5, want: models.PhaseLuteal},
		{name: "one day period first day", cycleDay: 1, periodDuration: 1, want: models.PhaseMenstruation},
		{name: "one day period", cycleDay: 2, periodDuration: 1, want: models.PhaseFollicular},
		{name: "one day period follicular end", cycleDay: 13, periodDuration: 1, want: models.PhaseFollicular},
		{name: "one day period ovulation", cycleDay: 14, periodDuration: 1, want: models.PhaseOvulation},
		{name: "one day period luteal", cycleDay: 17, periodDuration: 1, want: models.PhaseLuteal},
		{name: "long period reaches follicular end", cycleDay: 10, periodDuration: 10, want: models.PhaseMenstruation},
		{name: "long period then follicular", cycleDay: 11, periodDuration: 10, want: models.PhaseFollicular},
		{name: "long period follicular end", cycleDay: 13, periodDuration: 10, want: models.PhaseFollicular},
		{name: "long period ovulation", cycleDay: 14, periodDuration: 10, want: models.PhaseOvulation},
		{name: "long period ovulation end", cycleDay: 16, periodDuration: 10, want: models.PhaseOvulation},
		{name: "long period luteal", cycleDay: 17, periodDuration: 10, want: models.PhaseLuteal},
		{name: "period duration beyond follicular", cycleDay: 14, periodDuration: 14, want: models.PhaseMenstruation},
		{name: "missing duration uses default", cycleDay: 5, periodDuration: 0, want: models.PhaseMenstruation},
		{name: "non positive cycle day", cycleDay: 0, periodDuration: 5, want: models.PhaseIrregular},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			got := ClassifyPhase(testCase.cycleDay, false, testCase.periodDuration, false)
			if got != testCase.want {
				t.Fatalf("ClassifyPhase(%d, duration=%d) = %q, want %q", testCase.cycleDay, testCase.periodDuration, got, testCase.want)
			}
		})
	}
}

func TestClassifyPhaseEveryDayForCommonDurations(t *testing.T) {
	t.Parallel()

	expected := func(cycleDay int, periodDuration int) string {
		switch {
		case cycleDay <= periodDuration:
			return models.PhaseMenstruation
		case cycleDay <= 13:
			return models.PhaseFollicular
		case cycleDay <= 16:
			return models.PhaseOvulation
		default:
			return models.PhaseLuteal
		}
	}

	for _, periodDuration := range []int{1, 5, 10} {
		for cycleDay := 1; cycleDay <= 60; cycleDay++ {
			if got, want := ClassifyPhase(cycleDay, false, periodDuration, false), expected(cycleDay, periodDuration); got != want {
				t.Fatalf("ClassifyPhase(%d, duration=%d) = %q, want %q", cycleDay, periodDuration, got, want)
			}
			if got := ClassifyPhase(cycleDay, false, periodDuration, true); got != models.PhaseMenstruation {
				t.Fatalf("ClassifyPhase(%d, duration=%d, in period) = %q, want menstruation", cycleDay, periodDuration, got)
			}
			if got := ClassifyPhase(cycleDay, true, periodDuration, true); got != models.PhaseIrregular {
				t.Fatalf("ClassifyPhase(%d, duration=%d, irregular) = %q, want irregular", cycleDay, periodDuration, got)
			}
		}
	}
}

func TestClassifyPhaseOverrides(t *testing.T) {
	t.Parallel()

	if got := ClassifyPhase(3, true, 5, true); got != models.PhaseIrregular {
		t.Fatalf("irregular flag must win over period logs, got %q", got)
	}
	if got := ClassifyPhase(20, false, 5, true); got != models.PhaseMenstruation {
		t.Fatalf("period log on the day must classify as menstruation, got %q", got)
	}
}
