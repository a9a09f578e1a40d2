package meas

import (
	"fmt"

	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/model"
)

// LogDetKernel computes log det M for a fermion operator, configuration, and
// species. The numerically stable kernel lives in the external physics
// library; this module only schedules and records its results.
type LogDetKernel func(op model.FermionOp, phi model.Configuration, s model.Species) (complex128, error)

// LogDet measures the log-determinant of the fermion matrix for particles
// and holes.
type LogDet struct {
	op     model.FermionOp
	kernel LogDetKernel
	logdet map[model.Species]*history.ComplexSeries
}

// NewLogDet creates a LogDet accumulator for the fermion matrix defined by
// the scaled hopping matrix, chemical potential, and sigma-kappa phase.
func NewLogDet(kernel LogDetKernel, hopping [][]float64, mu, sigmaKappa float64) *LogDet {
	logdet := make(map[model.Species]*history.ComplexSeries, len(model.AllSpecies))
	for _, s := range model.AllSpecies {
		logdet[s] = history.NewComplexSeries()
	}
	return &LogDet{
		op:     model.FermionOp{Hopping: hopping, Mu: mu, SigmaKappa: sigmaKappa},
		kernel: kernel,
		logdet: logdet,
	}
}

// Record computes log det M for every species and appends one complex scalar
// per species. Both kernels run before anything is appended, so a kernel
// error never leaves the per-species series at different lengths.
func (l *LogDet) Record(_ model.CallContext, phi model.Configuration) error {
	vals := make([]complex128, len(model.AllSpecies))
	for i, s := range model.AllSpecies {
		v, err := l.kernel(l.op, phi, s)
		if err != nil {
			return fmt.Errorf("logdet for %s: %w", s, err)
		}
		vals[i] = v
	}
	for i, s := range model.AllSpecies {
		l.logdet[s].Append(vals[i])
	}
	return nil
}

// Series returns the per-species series in canonical species order.
func (l *LogDet) Series() []NamedSeries {
	out := make([]NamedSeries, 0, len(model.AllSpecies))
	for _, s := range model.AllSpecies {
		out = append(out, NamedSeries{Name: s.DatasetName(), Series: l.logdet[s]})
	}
	return out
}

// History returns the recorded log-determinants for one species.
func (l *LogDet) History(s model.Species) *history.ComplexSeries { return l.logdet[s] }

// Op returns the operator descriptor the kernel is evaluated with.
func (l *LogDet) Op() model.FermionOp { return l.op }
