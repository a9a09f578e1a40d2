package meas

import (
	"fmt"
	"log/slog"

	"github.com/latmeas/latmeas/einsum"
	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/model"
)

// OnePointFields lists the directly measured one-point series, in series
// definition order. Derived series are produced by Complete.
var OnePointFields = []string{"np", "nh"}

// PropagatorSource produces the all-to-all propagator for one species given
// the current call context and configuration. Sources are external
// collaborators (typically backed by a solver over stored configurations).
type PropagatorSource func(ctx model.CallContext, phi model.Configuration) (*model.Propagator, error)

// OnePoint tabulates one-point correlators: per-site particle number
// np = <1 - P_xx> and hole number nh = <1 - H_xx>, time averaged, optionally
// rotated into a different basis by a transform matrix.
//
// The contraction plan is computed from the shape of the first propagator
// pair and reused unconditionally for the lifetime of the accumulator.
// Inputs are assumed shape-stable across calls; feeding differently shaped
// propagators after the first call is undefined behavior.
type OnePoint struct {
	particle PropagatorSource
	hole     PropagatorSource

	transform *model.Matrix

	// plan is nil until the first call and computed exactly once.
	plan *einsum.DiagPlan

	data map[string]*history.ComplexSeries
	log  *slog.Logger
}

// OnePointOption configures a OnePoint accumulator.
type OnePointOption func(*OnePoint)

// WithTransform sets a basis-transform matrix applied to the per-site
// observables. The matrix must have one column per spatial site.
func WithTransform(m *model.Matrix) OnePointOption {
	return func(o *OnePoint) { o.transform = m }
}

// WithOnePointLogger sets the logger used for plan diagnostics.
func WithOnePointLogger(l *slog.Logger) OnePointOption {
	return func(o *OnePoint) { o.log = l }
}

// NewOnePoint creates a one-point accumulator reading propagators from the
// given particle and hole sources.
func NewOnePoint(particle, hole PropagatorSource, opts ...OnePointOption) *OnePoint {
	o := &OnePoint{
		particle: particle,
		hole:     hole,
		data:     make(map[string]*history.ComplexSeries, len(OnePointFields)),
		log:      slog.Default(),
	}
	for _, field := range OnePointFields {
		o.data[field] = history.NewComplexArraySeriesDeferred()
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Record fetches both propagators, contracts them down to per-site number
// densities, and appends one complex vector per field. Both contractions
// complete before either series is appended.
func (o *OnePoint) Record(ctx model.CallContext, phi model.Configuration) error {
	P, err := o.particle(ctx, phi)
	if err != nil {
		return fmt.Errorf("particle propagator: %w", err)
	}
	H, err := o.hole(ctx, phi)
	if err != nil {
		return fmt.Errorf("hole propagator: %w", err)
	}
	if err := P.Validate(); err != nil {
		return err
	}
	if err := H.Validate(); err != nil {
		return err
	}
	if P.Nx != H.Nx || P.Nt != H.Nt {
		return &ShapeMismatchError{Field: "nh", Want: []int{P.Nx, P.Nt}, Got: []int{H.Nx, H.Nt}}
	}

	if o.plan == nil {
		if err := o.buildPlan(P.Nx, P.Nt); err != nil {
			return err
		}
	}

	np, err := o.plan.Contract(subtractFromDelta(P))
	if err != nil {
		return err
	}
	nh, err := o.plan.Contract(subtractFromDelta(H))
	if err != nil {
		return err
	}

	if err := o.data["np"].AppendArray(np); err != nil {
		return err
	}
	return o.data["nh"].AppendArray(nh)
}

func (o *OnePoint) buildPlan(nx, nt int) error {
	var tf []complex128
	var rows int
	if o.transform != nil {
		if o.transform.Cols != nx {
			return &ShapeMismatchError{Field: "transform",
				Want: []int{o.transform.Rows, nx}, Got: []int{o.transform.Rows, o.transform.Cols}}
		}
		tf = o.transform.Data
		rows = o.transform.Rows
	}
	plan, err := einsum.NewDiagPlan(nx, nt, tf, rows)
	if err != nil {
		return err
	}
	o.plan = plan
	if tf == nil {
		o.log.Info("optimized contraction plan for time averaging", "nx", nx, "nt", nt)
	} else {
		o.log.Info("optimized contraction plan for time averaging and basis transformation",
			"nx", nx, "nt", nt, "rows", rows)
	}
	return nil
}

// subtractFromDelta materializes delta - X, where delta is the identity on
// the combined (space, time) index.
func subtractFromDelta(p *model.Propagator) []complex128 {
	n := p.Nx * p.Nt
	out := make([]complex128, len(p.Data))
	for i, v := range p.Data {
		out[i] = -v
	}
	for j := 0; j < n; j++ {
		out[j*n+j] += 1
	}
	return out
}

// Series returns the tracked series in field order.
func (o *OnePoint) Series() []NamedSeries {
	out := make([]NamedSeries, 0, len(OnePointFields))
	for _, field := range OnePointFields {
		out = append(out, NamedSeries{Name: field, Series: o.data[field]})
	}
	return out
}

// Field returns the recorded series for one field ("np" or "nh").
func (o *OnePoint) Field(name string) (*history.ComplexSeries, bool) {
	s, ok := o.data[name]
	return s, ok
}

// Transform returns the basis-transform matrix, or nil when measuring in the
// spatial basis.
func (o *OnePoint) Transform() *model.Matrix { return o.transform }

// SetTransform installs a transform loaded from storage. It must be called
// before the first Record; the contraction plan embeds the transform.
func (o *OnePoint) SetTransform(m *model.Matrix) { o.transform = m }

// Complete derives additional one-point functions from measured np and nh
// series: rho = np - nh (charge density), N = np + nh (total number), and
// S3 = (1 - N) / 2 (spin projection). The input mapping is returned extended
// with the derived series; measured entries are passed through untouched.
func Complete(measurements map[string]*history.ComplexSeries) (map[string]*history.ComplexSeries, error) {
	np, ok := measurements["np"]
	if !ok {
		return nil, &MissingFieldError{Field: "np"}
	}
	nh, ok := measurements["nh"]
	if !ok {
		return nil, &MissingFieldError{Field: "nh"}
	}
	if np.Len() != nh.Len() {
		return nil, &ShapeMismatchError{Field: "nh", WantLen: np.Len(), GotLen: nh.Len()}
	}
	a, b := np.Values(), nh.Values()
	if len(a) != len(b) {
		return nil, &ShapeMismatchError{Field: "nh", Want: np.SampleShape(), Got: nh.SampleShape()}
	}

	rho := make([]complex128, len(a))
	total := make([]complex128, len(a))
	s3 := make([]complex128, len(a))
	for i := range a {
		rho[i] = a[i] - b[i]
		total[i] = a[i] + b[i]
		s3[i] = 0.5 * (1 - total[i])
	}

	out := make(map[string]*history.ComplexSeries, len(measurements)+3)
	for k, v := range measurements {
		out[k] = v
	}
	shape := np.SampleShape()
	for name, vals := range map[string][]complex128{"rho": rho, "N": total, "S3": s3} {
		s := history.NewComplexArraySeriesDeferred()
		if err := s.ResetArray(vals, np.Len(), shape); err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}
