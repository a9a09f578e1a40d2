package meas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latmeas/latmeas/model"
)

func TestAcceptanceRateInlineOnly(t *testing.T) {
	a := NewAcceptanceRate()

	err := a.Record(model.Batch(), nil)
	require.ErrorIs(t, err, ErrInvalidUsage)
	// A rejected call never partially records.
	assert.Equal(t, 0, a.History().Len())

	// It keeps failing, every time.
	err = a.Record(model.Batch(), nil)
	require.ErrorIs(t, err, ErrInvalidUsage)
	assert.Equal(t, 0, a.History().Len())
}

func TestAcceptanceRateRecords(t *testing.T) {
	a := NewAcceptanceRate()
	flags := []bool{true, true, false, true, false}
	for i, acc := range flags {
		require.NoError(t, a.Record(model.Inline(i, acc), nil))
	}

	assert.Equal(t, flags, a.History().Values())
	assert.InDelta(t, 0.6, a.Rate(), 1e-15)

	series := a.Series()
	require.Len(t, series, 1)
	assert.Equal(t, "acceptanceRate", series[0].Name)
	assert.Equal(t, 5, series[0].Series.Len())
}

func TestAcceptanceRateEmpty(t *testing.T) {
	a := NewAcceptanceRate()
	assert.Equal(t, 0.0, a.Rate())
	assert.Empty(t, a.History().Values())
}

func TestAcceptedBetween(t *testing.T) {
	a := NewAcceptanceRate()
	accepted := map[int]bool{0: true, 3: true, 4: true, 7: true}
	for i := 0; i < 10; i++ {
		require.NoError(t, a.Record(model.Inline(i, accepted[i]), nil))
	}

	assert.Equal(t, uint64(4), a.AcceptedBetween(0, 10))
	assert.Equal(t, uint64(2), a.AcceptedBetween(3, 7))
	assert.Equal(t, uint64(0), a.AcceptedBetween(5, 5))
	assert.Equal(t, uint64(1), a.AcceptedBetween(7, 100))
}

func TestAcceptedBetweenWideSteps(t *testing.T) {
	// Long runs push step indices past 32 bits; they must not wrap.
	a := NewAcceptanceRate()
	step := 1 << 33
	require.NoError(t, a.Record(model.Inline(step, true), nil))
	require.NoError(t, a.Record(model.Inline(step+1, false), nil))
	require.NoError(t, a.Record(model.Inline(step+2, true), nil))

	assert.Equal(t, uint64(2), a.AcceptedBetween(uint64(step), uint64(step)+3))
	assert.Equal(t, uint64(0), a.AcceptedBetween(0, 1<<32))
}

func TestAcceptanceRateRestore(t *testing.T) {
	a := NewAcceptanceRate()
	for i, acc := range []bool{true, true, false, true} {
		require.NoError(t, a.Record(model.Inline(i, acc), nil))
	}

	// A reload populates the flag series directly; Restore rebuilds the
	// accepted-step index from it.
	fresh := NewAcceptanceRate()
	fresh.History().Reset(append([]bool(nil), a.History().Values()...))
	assert.Equal(t, uint64(0), fresh.AcceptedBetween(0, 4))
	require.NoError(t, fresh.Restore())
	assert.Equal(t, uint64(3), fresh.AcceptedBetween(0, 4))
	assert.Equal(t, uint64(1), fresh.AcceptedBetween(2, 4))
}
