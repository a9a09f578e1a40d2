package model

import "fmt"

// Configuration is one sampled field from the Monte Carlo chain.
// It is owned by the HMC driver and must be treated as read-only
// for the duration of an accumulator call.
type Configuration []complex128

// Sum returns the sum over all field elements.
func (c Configuration) Sum() complex128 {
	var s complex128
	for _, v := range c {
		s += v
	}
	return s
}

// NormSq returns the squared Euclidean norm of the field.
func (c Configuration) NormSq() float64 {
	var s float64
	for _, v := range c {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return s
}

// CallKind tags how an accumulator is being invoked.
type CallKind uint8

const (
	// CallBatch is a post-hoc invocation, replaying stored configurations.
	// No per-trajectory metadata is available.
	CallBatch CallKind = iota
	// CallInline is an invocation synchronous with the MCMC step, carrying
	// the step index and acceptance flag.
	CallInline
)

// String returns a human-readable name for the call kind.
func (k CallKind) String() string {
	switch k {
	case CallBatch:
		return "batch"
	case CallInline:
		return "inline"
	default:
		return fmt.Sprintf("CallKind(%d)", uint8(k))
	}
}

// CallContext carries per-invocation metadata from the driver into an
// accumulator. Step and Accepted are only meaningful for CallInline.
type CallContext struct {
	Kind     CallKind
	Step     int
	Accepted bool
}

// Inline builds an inline call context for trajectory step with the given
// acceptance flag.
func Inline(step int, accepted bool) CallContext {
	return CallContext{Kind: CallInline, Step: step, Accepted: accepted}
}

// Batch builds a batch (out-of-line) call context.
func Batch() CallContext {
	return CallContext{Kind: CallBatch}
}

// Species distinguishes the two fermion species tracked by measurements.
type Species uint8

const (
	Particle Species = iota
	Hole
)

// AllSpecies lists the species in their canonical series order.
// Accumulators iterate this slice so that per-species series are always
// defined and updated in the same order.
var AllSpecies = [...]Species{Particle, Hole}

// DatasetName returns the stable on-disk dataset name for the species.
func (s Species) DatasetName() string {
	switch s {
	case Particle:
		return "particles"
	case Hole:
		return "holes"
	default:
		return fmt.Sprintf("Species(%d)", uint8(s))
	}
}

// String returns a human-readable name for the species.
func (s Species) String() string {
	switch s {
	case Particle:
		return "particle"
	case Hole:
		return "hole"
	default:
		return fmt.Sprintf("Species(%d)", uint8(s))
	}
}

// FermionOp describes a fermion-matrix operator: the (scaled) hopping matrix
// kappa-tilde, the chemical potential mu-tilde, and the sigma-kappa phase.
// The log-determinant kernel consuming it is external to this module.
type FermionOp struct {
	Hopping    [][]float64
	Mu         float64
	SigmaKappa float64
}

// Matrix is a dense complex matrix stored row-major. It is used for basis
// transformations applied to per-site observables.
type Matrix struct {
	Rows, Cols int
	Data       []complex128
}

// NewMatrix allocates a Rows x Cols zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]complex128, rows*cols)}
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) complex128 { return m.Data[i*m.Cols+j] }

// Set assigns element (i, j).
func (m *Matrix) Set(i, j int, v complex128) { m.Data[i*m.Cols+j] = v }

// Propagator is an all-to-all propagator tensor indexed (space, time, space,
// time), stored flat in row-major order. For nx spatial sites and nt time
// slices the flat length is (nx*nt)^2.
type Propagator struct {
	Nx, Nt int
	Data   []complex128
}

// NewPropagator allocates a zero propagator for the given lattice extents.
func NewPropagator(nx, nt int) *Propagator {
	n := nx * nt
	return &Propagator{Nx: nx, Nt: nt, Data: make([]complex128, n*n)}
}

// Index returns the flat offset of element (x, t, y, u).
func (p *Propagator) Index(x, t, y, u int) int {
	return ((x*p.Nt+t)*p.Nx+y)*p.Nt + u
}

// At returns element (x, t, y, u).
func (p *Propagator) At(x, t, y, u int) complex128 {
	return p.Data[p.Index(x, t, y, u)]
}

// Set assigns element (x, t, y, u).
func (p *Propagator) Set(x, t, y, u int, v complex128) {
	p.Data[p.Index(x, t, y, u)] = v
}

// Validate checks that the flat storage matches the declared extents.
func (p *Propagator) Validate() error {
	n := p.Nx * p.Nt
	if len(p.Data) != n*n {
		return fmt.Errorf("propagator data length %d does not match (nx*nt)^2 = %d", len(p.Data), n*n)
	}
	return nil
}
