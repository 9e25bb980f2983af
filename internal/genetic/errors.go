package genetic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks problems with the caller's request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig marks engine parameters that cannot produce a run.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrEmptyCatalog is returned when no usable destination is available.
	ErrEmptyCatalog = errors.New("destination catalog is empty")

	// ErrEvaluation is returned when the evaluator fails for the whole catalog.
	ErrEvaluation = errors.New("fitness evaluation failed")
)

// ErrShortlistTooLarge is returned when K exceeds the usable catalog size. It
// matches both ErrInvalidConfig and ErrInvalidInput.
var ErrShortlistTooLarge = fmt.Errorf("%w (%w): shortlist size exceeds catalog size", ErrInvalidConfig, ErrInvalidInput)
