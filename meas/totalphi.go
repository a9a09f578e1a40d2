package meas

import (
	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/model"
)

// TotalPhi tabulates the summed field Phi and the mean value of phi^2,
// one sample of each per recorded trajectory.
type TotalPhi struct {
	phi   *history.ComplexSeries
	phiSq *history.FloatSeries
}

// NewTotalPhi creates an empty TotalPhi accumulator.
func NewTotalPhi() *TotalPhi {
	return &TotalPhi{
		phi:   history.NewComplexSeries(),
		phiSq: history.NewFloatSeries(),
	}
}

// Record appends sum(phi) and |phi|^2 / len(phi).
func (t *TotalPhi) Record(_ model.CallContext, phi model.Configuration) error {
	t.phi.Append(phi.Sum())
	if len(phi) == 0 {
		t.phiSq.Append(0)
		return nil
	}
	t.phiSq.Append(phi.NormSq() / float64(len(phi)))
	return nil
}

// Series returns the two tracked series, Phi first.
func (t *TotalPhi) Series() []NamedSeries {
	return []NamedSeries{
		{Name: "Phi", Series: t.phi},
		{Name: "phiSquared", Series: t.phiSq},
	}
}

// Phi returns the recorded Phi history.
func (t *TotalPhi) Phi() *history.ComplexSeries { return t.phi }

// PhiSquared returns the recorded <phi^2> history.
func (t *TotalPhi) PhiSquared() *history.FloatSeries { return t.phiSq }
