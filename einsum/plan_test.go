package einsum

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomTensor(r *rand.Rand, nx, nt int) []complex128 {
	n := nx * nt
	data := make([]complex128, n*n)
	for i := range data {
		data[i] = complex(r.NormFloat64(), r.NormFloat64())
	}
	return data
}

func assertClose(t *testing.T, want, got []complex128) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.InDelta(t, 0, cmplx.Abs(want[i]-got[i]), 1e-12*(1+cmplx.Abs(want[i])))
	}
}

func TestDiagPlanMatchesReference(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for _, tc := range []struct{ nx, nt int }{
		{1, 8}, {4, 2}, {6, 12},
	} {
		plan, err := NewDiagPlan(tc.nx, tc.nt, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, tc.nx, plan.OutLen())

		data := randomTensor(r, tc.nx, tc.nt)
		got, err := plan.Contract(data)
		require.NoError(t, err)
		want, err := Reference(data, tc.nx, tc.nt, nil, 0)
		require.NoError(t, err)
		assertClose(t, want, got)
	}
}

func TestDiagPlanWithTransform(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	nx, nt, rows := 4, 6, 3

	tf := make([]complex128, rows*nx)
	for i := range tf {
		tf[i] = complex(r.NormFloat64(), r.NormFloat64())
	}

	plan, err := NewDiagPlan(nx, nt, tf, rows)
	require.NoError(t, err)
	assert.Equal(t, rows, plan.OutLen())

	data := randomTensor(r, nx, nt)
	got, err := plan.Contract(data)
	require.NoError(t, err)
	want, err := Reference(data, nx, nt, tf, rows)
	require.NoError(t, err)
	assertClose(t, want, got)
}

func TestDiagPlanReuseIsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	plan, err := NewDiagPlan(3, 4, nil, 0)
	require.NoError(t, err)

	data := randomTensor(r, 3, 4)
	first, err := plan.Contract(data)
	require.NoError(t, err)
	// Reusing the plan on identical input is bit-identical.
	second, err := plan.Contract(data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDiagPlanKnownValues(t *testing.T) {
	// nx=2, nt=1: the contraction picks out data[x,0,x,0] exactly.
	plan, err := NewDiagPlan(2, 1, nil, 0)
	require.NoError(t, err)

	data := make([]complex128, 4)
	data[0] = 5 + 1i // (0,0,0,0)
	data[3] = -2i    // (1,0,1,0)
	got, err := plan.Contract(data)
	require.NoError(t, err)
	assert.Equal(t, []complex128{5 + 1i, -2i}, got)
}

func TestDiagPlanErrors(t *testing.T) {
	_, err := NewDiagPlan(0, 4, nil, 0)
	assert.Error(t, err)

	_, err = NewDiagPlan(2, 2, make([]complex128, 3), 2)
	assert.Error(t, err)

	plan, err := NewDiagPlan(2, 2, nil, 0)
	require.NoError(t, err)
	_, err = plan.Contract(make([]complex128, 5))
	assert.Error(t, err)

	_, err = Reference(make([]complex128, 5), 2, 2, nil, 0)
	assert.Error(t, err)
}
