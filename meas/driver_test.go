package meas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latmeas/latmeas/model"
)

type countingAcc struct {
	calls int
	fail  error
}

func (c *countingAcc) Record(model.CallContext, model.Configuration) error {
	if c.fail != nil {
		return c.fail
	}
	c.calls++
	return nil
}

func TestDriverFrequencies(t *testing.T) {
	every := &countingAcc{}
	sparse := &countingAcc{}
	d := NewDriver([]Registration{
		Every("dense", every, 1),
		Every("sparse", sparse, 5),
		Every("off", &countingAcc{}, 0),
	})

	for i := 0; i < 20; i++ {
		require.NoError(t, d.Step(nil, model.Inline(i, true)))
	}
	assert.Equal(t, 20, every.calls)
	assert.Equal(t, 4, sparse.calls) // steps 0, 5, 10, 15
	assert.Equal(t, 20, d.Steps())
}

func TestDriverSurfacesAccumulatorError(t *testing.T) {
	boom := errors.New("boom")
	after := &countingAcc{}
	d := NewDriver([]Registration{
		Every("bad", &countingAcc{fail: boom}, 1),
		Every("after", after, 1),
	})

	err := d.Step(nil, model.Inline(0, false))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"bad"`)
	// Accumulators after the failing one are not invoked for that step.
	assert.Equal(t, 0, after.calls)
}

func TestDriverCheckpoint(t *testing.T) {
	flushed := 0
	d := NewDriver(
		[]Registration{Every("a", &countingAcc{}, 1)},
		WithCheckpoint(func() error { flushed++; return nil }, 1000),
	)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Step(nil, model.Inline(i, true)))
	}
	assert.Greater(t, flushed, 0)

	failing := NewDriver(
		[]Registration{Every("a", &countingAcc{}, 1)},
		WithCheckpoint(func() error { return errors.New("disk full") }, 1000),
	)
	err := failing.Step(nil, model.Inline(0, true))
	assert.Error(t, err)
}
