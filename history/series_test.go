package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolSeriesAppendOrder(t *testing.T) {
	s := NewBoolSeries()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Values())

	in := []bool{true, false, false, true, true}
	for _, v := range in {
		s.Append(v)
	}
	assert.Equal(t, len(in), s.Len())
	assert.Equal(t, in, s.Values())
	assert.Equal(t, Bool, s.DType())
	assert.Nil(t, s.SampleShape())
}

func TestFloatSeriesAppendOrder(t *testing.T) {
	s := NewFloatSeries()
	for i := 0; i < 100; i++ {
		s.Append(float64(i) * 0.5)
	}
	require.Equal(t, 100, s.Len())
	assert.Equal(t, 49.5, s.Values()[99])
	assert.Equal(t, Float64, s.DType())
}

func TestComplexScalarSeries(t *testing.T) {
	s := NewComplexSeries()
	s.Append(1 + 2i)
	s.Append(3 - 4i)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, []complex128{1 + 2i, 3 - 4i}, s.Values())
	assert.Equal(t, []complex128{3 - 4i}, s.At(1))

	// A scalar series still accepts length-1 array appends.
	require.NoError(t, s.AppendArray([]complex128{7i}))
	assert.Equal(t, 3, s.Len())
	assert.Error(t, s.AppendArray([]complex128{1, 2}))
}

func TestComplexArraySeries(t *testing.T) {
	s := NewComplexArraySeries(3)
	require.NoError(t, s.AppendArray([]complex128{1, 2, 3}))
	require.NoError(t, s.AppendArray([]complex128{4, 5, 6}))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []int{3}, s.SampleShape())
	assert.Equal(t, []complex128{4, 5, 6}, s.At(1))

	err := s.AppendArray([]complex128{1, 2})
	assert.Error(t, err)
	// A failed append must not grow the series.
	assert.Equal(t, 2, s.Len())
}

func TestComplexSeriesReset(t *testing.T) {
	s := NewComplexArraySeries(2)
	require.NoError(t, s.Reset([]complex128{1, 2, 3, 4, 5, 6}, 3))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []complex128{5, 6}, s.At(2))

	assert.Error(t, s.Reset([]complex128{1, 2, 3}, 2))
}

func TestScalarAppendOnArraySeriesPanics(t *testing.T) {
	s := NewComplexArraySeries(2)
	assert.Panics(t, func() { s.Append(1) })
}
