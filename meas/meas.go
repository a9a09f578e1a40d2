package meas

import (
	"errors"
	"fmt"

	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/model"
)

var (
	// ErrInvalidUsage is returned when an accumulator's calling convention is
	// violated, e.g. an inline-only measurement invoked out of line.
	ErrInvalidUsage = errors.New("invalid measurement usage")
)

// Accumulator is the common protocol for all measurements: one call per
// recorded trajectory, appending to the accumulator's history series.
type Accumulator interface {
	// Record derives observables from the configuration and appends them.
	// phi is read-only for the duration of the call.
	Record(ctx model.CallContext, phi model.Configuration) error
}

// NamedSeries pairs a history series with its stable dataset name.
type NamedSeries struct {
	Name   string
	Series history.Series
}

// SeriesProvider exposes an accumulator's tracked series, in definition
// order, for persistence. The same order is used when writing and restoring.
type SeriesProvider interface {
	Series() []NamedSeries
}

// MissingFieldError reports a derived-observable computation missing a
// required input series.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q is not available", e.Field)
}

// ShapeMismatchError reports incompatible array shapes between dependent
// series.
type ShapeMismatchError struct {
	Field     string
	Want, Got []int
	WantLen   int
	GotLen    int
}

func (e *ShapeMismatchError) Error() string {
	if e.Want != nil || e.Got != nil {
		return fmt.Sprintf("field %q has shape %v, expected %v", e.Field, e.Got, e.Want)
	}
	return fmt.Sprintf("field %q has %d samples, expected %d", e.Field, e.GotLen, e.WantLen)
}
