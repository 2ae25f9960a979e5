package services

import "github.com/terraincognita07/cyclecast/internal/models"

const (
	follicularLastDay = 13
	ovulationLastDay  = 16
)

// ClassifyPhase maps a 1-based cycle day to a phase. Rules are evaluated in order and the
// first match wins, so an explicit period log for the day overrides the day-based rules.
func ClassifyPhase(cycleDay int, isIrregular bool, periodDuration int, inPeriodNow bool) string {
	if periodDuration <= 0 {
		periodDuration = models.DefaultPeriodLength
	}

	switch {
	case isIrregular:
		return models.PhaseIrregular
	case cycleDay <= 0:
		return models.PhaseIrregular
	case inPeriodNow:
		return models.PhaseMenstruation
	case cycleDay <= periodDuration:
		return models.PhaseMenstruation
	case cycleDay <= follicularLastDay:
		return models.PhaseFollicular
	case cycleDay <= ovulationLastDay:
		return models.PhaseOvulation
	default:
		return models.PhaseLuteal
	}
}
