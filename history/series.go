// Package history provides the append-only in-memory sample log backing every
// measurement accumulator. One entry is recorded per Monte Carlo step;
// insertion order is Monte Carlo time order.
package history

import "fmt"

// DType identifies the element type of a series. It is preserved exactly
// across a save/read round trip.
type DType uint8

const (
	Bool DType = iota + 1
	Float64
	Complex128
)

// String returns the dtype name as used in diagnostics.
func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Float64:
		return "float64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

// Series is an ordered, growable sequence of observable samples.
// Implementations are append-only: samples are immutable once recorded.
type Series interface {
	// Len returns the number of recorded samples.
	Len() int
	// DType returns the element type.
	DType() DType
	// SampleShape returns the per-sample shape. Nil means scalar samples.
	SampleShape() []int
}

// BoolSeries records one boolean per step (e.g. acceptance flags).
type BoolSeries struct {
	values []bool
}

// NewBoolSeries creates an empty boolean series.
func NewBoolSeries() *BoolSeries { return &BoolSeries{} }

func (s *BoolSeries) Len() int           { return len(s.values) }
func (s *BoolSeries) DType() DType       { return Bool }
func (s *BoolSeries) SampleShape() []int { return nil }

// Append records one sample.
func (s *BoolSeries) Append(v bool) { s.values = append(s.values, v) }

// Values returns the recorded samples in insertion order.
// The returned slice is the backing store; callers must not mutate it.
func (s *BoolSeries) Values() []bool { return s.values }

// Reset replaces the recorded samples, e.g. when reloading from storage.
func (s *BoolSeries) Reset(values []bool) { s.values = values }

// FloatSeries records one float64 scalar per step.
type FloatSeries struct {
	values []float64
}

// NewFloatSeries creates an empty float series.
func NewFloatSeries() *FloatSeries { return &FloatSeries{} }

func (s *FloatSeries) Len() int           { return len(s.values) }
func (s *FloatSeries) DType() DType       { return Float64 }
func (s *FloatSeries) SampleShape() []int { return nil }

// Append records one sample.
func (s *FloatSeries) Append(v float64) { s.values = append(s.values, v) }

// Values returns the recorded samples in insertion order.
func (s *FloatSeries) Values() []float64 { return s.values }

// Reset replaces the recorded samples.
func (s *FloatSeries) Reset(values []float64) { s.values = values }

// ComplexSeries records one complex128 sample per step. A sample is either a
// scalar (shape nil) or a fixed-shape array; the shape is fixed at
// construction and enforced on every append.
type ComplexSeries struct {
	shape  []int
	stride int
	values []complex128
	n      int
}

// NewComplexSeries creates an empty scalar complex series.
func NewComplexSeries() *ComplexSeries {
	return &ComplexSeries{stride: 1}
}

// NewComplexArraySeries creates an empty series of fixed-shape complex arrays.
func NewComplexArraySeries(shape ...int) *ComplexSeries {
	stride := 1
	for _, d := range shape {
		stride *= d
	}
	return &ComplexSeries{shape: shape, stride: stride}
}

// NewComplexArraySeriesDeferred creates an array series whose per-sample shape
// is fixed by the first AppendArray call. Accumulators whose sample shape is
// only known once the first configuration arrives use this form.
func NewComplexArraySeriesDeferred() *ComplexSeries {
	return &ComplexSeries{stride: 0}
}

func (s *ComplexSeries) Len() int           { return s.n }
func (s *ComplexSeries) DType() DType       { return Complex128 }
func (s *ComplexSeries) SampleShape() []int { return s.shape }

// Append records one scalar sample. It panics if the series holds arrays;
// scalar vs array is fixed at construction and mixing them is a programming
// error, not a data error.
func (s *ComplexSeries) Append(v complex128) {
	if s.shape != nil || s.stride != 1 {
		panic("history: scalar append on array series")
	}
	s.values = append(s.values, v)
	s.n++
}

// AppendArray records one array sample. The sample length must match the
// series shape; a deferred series takes its shape from the first sample.
func (s *ComplexSeries) AppendArray(v []complex128) error {
	if s.stride == 0 && s.n == 0 {
		s.shape = []int{len(v)}
		s.stride = len(v)
	}
	if len(v) != s.stride {
		return fmt.Errorf("history: sample length %d does not match series stride %d (shape %v)",
			len(v), s.stride, s.shape)
	}
	s.values = append(s.values, v...)
	s.n++
	return nil
}

// Values returns the recorded samples flattened in insertion order.
func (s *ComplexSeries) Values() []complex128 { return s.values }

// At returns the i-th sample. For array series the returned slice aliases the
// backing store and must not be mutated.
func (s *ComplexSeries) At(i int) []complex128 {
	return s.values[i*s.stride : (i+1)*s.stride]
}

// Reset replaces the recorded samples with a flat value slice holding n
// samples of the series' shape.
func (s *ComplexSeries) Reset(values []complex128, n int) error {
	if n*s.stride != len(values) {
		return fmt.Errorf("history: %d values do not hold %d samples of stride %d",
			len(values), n, s.stride)
	}
	s.values = values
	s.n = n
	return nil
}

// ResetArray replaces the recorded samples and the per-sample shape together,
// e.g. when reloading an array series from storage.
func (s *ComplexSeries) ResetArray(values []complex128, n int, shape []int) error {
	stride := 1
	for _, d := range shape {
		stride *= d
	}
	if n*stride != len(values) {
		return fmt.Errorf("history: %d values do not hold %d samples of shape %v",
			len(values), n, shape)
	}
	s.shape = shape
	s.stride = stride
	s.values = values
	s.n = n
	return nil
}
