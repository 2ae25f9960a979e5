package services

import "errors"

var (
	ErrInsufficientData       = errors.New("insufficient cycle data")
	ErrInvalidConfiguration   = errors.New("invalid cycle configuration")
	ErrEnrichmentUnavailable  = errors.New("prediction enrichment unavailable")
	ErrInvalidEnrichmentValue = errors.New("invalid enrichment result")
)
