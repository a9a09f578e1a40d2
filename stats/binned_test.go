package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinned(t *testing.T) {
	values := []float64{1, 3, 2, 4, 10, 20, 7}
	binned, err := Binned(values, 2)
	require.NoError(t, err)
	// Trailing partial bin is dropped.
	assert.Equal(t, []float64{2, 3, 15}, binned)

	_, err = Binned(values, 0)
	assert.Error(t, err)
}

func TestBinnedEmpty(t *testing.T) {
	binned, err := Binned(nil, 10)
	require.NoError(t, err)
	assert.Empty(t, binned)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, s.Mean, 1e-15)
	assert.InDelta(t, 2.0, s.Std, 1e-15)
	assert.Equal(t, 8, s.N)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestBoolsToFloats(t *testing.T) {
	assert.Equal(t, []float64{1, 0, 1}, BoolsToFloats([]bool{true, false, true}))
}
