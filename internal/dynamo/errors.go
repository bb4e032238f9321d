package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for simulation operations.
var (
	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter name that is not recognized.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrInvariant indicates the agent store and bond graph disagree.
	ErrInvariant = errors.New("dynamo: invariant violated")

	// ErrInvalidConfig indicates an engine configuration that cannot run.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// BoundsError reports the offending parameter for ErrParameterBounds.
type BoundsError struct {
	Name     string
	Value    float64
	Min, Max float64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: %s=%g not in [%g, %g]", ErrParameterBounds, e.Name, e.Value, e.Min, e.Max)
}

func (e *BoundsError) Unwrap() error {
	return ErrParameterBounds
}

// CheckRange returns a *BoundsError when v falls outside [min, max].
func CheckRange(name string, v, min, max float64) error {
	if math.IsNaN(v) || v < min || v > max {
		return &BoundsError{Name: name, Value: v, Min: min, Max: max}
	}
	return nil
}
