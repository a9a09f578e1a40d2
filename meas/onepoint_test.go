package meas

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latmeas/latmeas/einsum"
	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/model"
)

func randomPropagator(r *rand.Rand, nx, nt int) *model.Propagator {
	p := model.NewPropagator(nx, nt)
	for i := range p.Data {
		p.Data[i] = complex(r.NormFloat64(), r.NormFloat64())
	}
	return p
}

func constSource(p *model.Propagator) PropagatorSource {
	return func(model.CallContext, model.Configuration) (*model.Propagator, error) {
		return p, nil
	}
}

func TestOnePointMatchesDirectContraction(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	nx, nt := 4, 6
	P := randomPropagator(r, nx, nt)
	H := randomPropagator(r, nx, nt)

	o := NewOnePoint(constSource(P), constSource(H))
	require.NoError(t, o.Record(model.Batch(), nil))
	// Second call reuses the cached plan.
	require.NoError(t, o.Record(model.Batch(), nil))

	np, ok := o.Field("np")
	require.True(t, ok)
	require.Equal(t, 2, np.Len())
	assert.Equal(t, []int{nx}, np.SampleShape())

	want, err := einsum.Reference(subtractFromDelta(P), nx, nt, nil, 0)
	require.NoError(t, err)
	for call := 0; call < 2; call++ {
		got := np.At(call)
		for x := range want {
			assert.InDelta(t, 0, cmplx.Abs(want[x]-got[x]), 1e-12*(1+cmplx.Abs(want[x])))
		}
	}

	nh, ok := o.Field("nh")
	require.True(t, ok)
	require.Equal(t, 2, nh.Len())
}

func TestOnePointWithTransform(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	nx, nt := 3, 4
	P := randomPropagator(r, nx, nt)
	H := randomPropagator(r, nx, nt)

	tf := model.NewMatrix(2, nx)
	for i := range tf.Data {
		tf.Data[i] = complex(r.NormFloat64(), r.NormFloat64())
	}

	o := NewOnePoint(constSource(P), constSource(H), WithTransform(tf))
	require.NoError(t, o.Record(model.Batch(), nil))

	np, _ := o.Field("np")
	assert.Equal(t, []int{2}, np.SampleShape())

	want, err := einsum.Reference(subtractFromDelta(P), nx, nt, tf.Data, 2)
	require.NoError(t, err)
	got := np.At(0)
	for a := range want {
		assert.InDelta(t, 0, cmplx.Abs(want[a]-got[a]), 1e-12*(1+cmplx.Abs(want[a])))
	}
}

func TestOnePointTransformShapeChecked(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	P := randomPropagator(r, 3, 2)

	tf := model.NewMatrix(2, 5) // wrong column count
	o := NewOnePoint(constSource(P), constSource(P), WithTransform(tf))
	err := o.Record(model.Batch(), nil)

	var sme *ShapeMismatchError
	require.ErrorAs(t, err, &sme)
	assert.Equal(t, "transform", sme.Field)
}

func TestOnePointPropagatorShapeMismatch(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	P := randomPropagator(r, 3, 2)
	H := randomPropagator(r, 2, 3)

	o := NewOnePoint(constSource(P), constSource(H))
	err := o.Record(model.Batch(), nil)

	var sme *ShapeMismatchError
	require.ErrorAs(t, err, &sme)

	// Nothing recorded on failure.
	np, _ := o.Field("np")
	assert.Equal(t, 0, np.Len())
}

func TestCompleteDerivedValues(t *testing.T) {
	np := history.NewComplexArraySeriesDeferred()
	require.NoError(t, np.AppendArray([]complex128{0.2, 0.5}))
	nh := history.NewComplexArraySeriesDeferred()
	require.NoError(t, nh.AppendArray([]complex128{0.3, 0.1}))

	out, err := Complete(map[string]*history.ComplexSeries{"np": np, "nh": nh})
	require.NoError(t, err)

	assertSampleEqual := func(name string, want []complex128) {
		s, ok := out[name]
		require.True(t, ok, name)
		require.Equal(t, 1, s.Len())
		got := s.At(0)
		for i := range want {
			assert.InDelta(t, real(want[i]), real(got[i]), 1e-15, name)
			assert.InDelta(t, imag(want[i]), imag(got[i]), 1e-15, name)
		}
	}
	assertSampleEqual("rho", []complex128{-0.1, 0.4})
	assertSampleEqual("N", []complex128{0.5, 0.6})
	assertSampleEqual("S3", []complex128{0.25, 0.2})

	// Inputs are passed through.
	assert.Same(t, np, out["np"])
	assert.Same(t, nh, out["nh"])
}

func TestCompleteMissingField(t *testing.T) {
	np := history.NewComplexArraySeriesDeferred()
	require.NoError(t, np.AppendArray([]complex128{0.2}))

	_, err := Complete(map[string]*history.ComplexSeries{"np": np})
	var mfe *MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, "nh", mfe.Field)

	_, err = Complete(map[string]*history.ComplexSeries{})
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, "np", mfe.Field)
}

func TestCompleteShapeMismatch(t *testing.T) {
	np := history.NewComplexArraySeriesDeferred()
	require.NoError(t, np.AppendArray([]complex128{0.2, 0.5}))
	nh := history.NewComplexArraySeriesDeferred()
	require.NoError(t, nh.AppendArray([]complex128{0.3, 0.1, 0.4}))

	_, err := Complete(map[string]*history.ComplexSeries{"np": np, "nh": nh})
	var sme *ShapeMismatchError
	require.ErrorAs(t, err, &sme)
}
