package models

const (
	PhaseMenstruation = "menstruation"
	PhaseFollicular   = "follicular"
	PhaseOvulation    = "ovulation"
	PhaseLuteal       = "luteal"
	PhaseIrregular    = "irregular"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

func AllPhases() []string {
	return []string{PhaseMenstruation, PhaseFollicular, PhaseOvulation, PhaseLuteal, PhaseIrregular}
}
