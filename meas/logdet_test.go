package meas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latmeas/latmeas/model"
)

// fakeKernel derives a deterministic value from the configuration and
// species so tests can distinguish the series.
func fakeKernel(_ model.FermionOp, phi model.Configuration, s model.Species) (complex128, error) {
	v := phi.Sum()
	if s == model.Hole {
		v = -v
	}
	return v, nil
}

func TestLogDetRecordsBothSpecies(t *testing.T) {
	hopping := [][]float64{{0, 1}, {1, 0}}
	ld := NewLogDet(fakeKernel, hopping, 0.1, -1)

	require.NoError(t, ld.Record(model.Batch(), model.Configuration{2 + 1i}))
	require.NoError(t, ld.Record(model.Batch(), model.Configuration{-1}))

	p := ld.History(model.Particle)
	h := ld.History(model.Hole)
	require.Equal(t, 2, p.Len())
	require.Equal(t, 2, h.Len())
	assert.Equal(t, complex128(2+1i), p.Values()[0])
	assert.Equal(t, complex128(-2-1i), h.Values()[0])

	op := ld.Op()
	assert.Equal(t, 0.1, op.Mu)
	assert.Equal(t, -1.0, op.SigmaKappa)
}

func TestLogDetSeriesOrder(t *testing.T) {
	ld := NewLogDet(fakeKernel, nil, 0, -1)
	series := ld.Series()
	require.Len(t, series, 2)
	assert.Equal(t, "particles", series[0].Name)
	assert.Equal(t, "holes", series[1].Name)
}

func TestLogDetNoPartialUpdateOnKernelError(t *testing.T) {
	kernelErr := errors.New("solver diverged")
	calls := 0
	kernel := func(_ model.FermionOp, _ model.Configuration, s model.Species) (complex128, error) {
		calls++
		if s == model.Hole {
			return 0, kernelErr
		}
		return 1, nil
	}

	ld := NewLogDet(kernel, nil, 0, -1)
	err := ld.Record(model.Batch(), model.Configuration{1})
	require.ErrorIs(t, err, kernelErr)

	// The particle kernel succeeded, but nothing may have been appended.
	assert.Equal(t, 0, ld.History(model.Particle).Len())
	assert.Equal(t, 0, ld.History(model.Hole).Len())
	assert.Equal(t, 2, calls)
}
