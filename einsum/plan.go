// Package einsum provides precomputed execution plans for the tensor
// contractions used by measurement accumulators.
//
// The only contraction needed today reduces an all-to-all tensor indexed
// (space, time, space, time) to a per-site vector by summing the doubled
// diagonal over time, optionally fused with a basis-transform matrix
// multiplication. Planning amounts to precomputing the flat offsets of the
// diagonal walk for a given lattice extent, which turns the contraction into
// a single linear pass over (nx*nt) elements instead of an index computation
// per element.
package einsum

import "fmt"

// DiagPlan is a reusable plan for the contraction (x,t,x,t) -> x with time
// averaging, optionally fused with a transform: (a,x),(x,t,x,t) -> a.
//
// A plan is computed from the shape of the first input it sees and assumes
// every later input has the same shape. Feeding a tensor of a different
// extent through an existing plan is undefined behavior; callers that cannot
// guarantee shape stability must build a fresh plan.
type DiagPlan struct {
	nx, nt  int
	offsets []int // flat offsets of elements (x,t,x,t), x-major
	tf      []complex128
	tfRows  int
}

// NewDiagPlan computes a plan for lattice extents nx (space) and nt (time).
// If transform is non-nil it must have nx columns; the plan then produces
// transform.Rows output elements per contraction.
func NewDiagPlan(nx, nt int, transform []complex128, tfRows int) (*DiagPlan, error) {
	if nx <= 0 || nt <= 0 {
		return nil, fmt.Errorf("einsum: invalid extents nx=%d nt=%d", nx, nt)
	}
	if transform != nil && len(transform) != tfRows*nx {
		return nil, fmt.Errorf("einsum: transform length %d does not match %dx%d", len(transform), tfRows, nx)
	}

	offsets := make([]int, nx*nt)
	for x := 0; x < nx; x++ {
		for t := 0; t < nt; t++ {
			offsets[x*nt+t] = ((x*nt+t)*nx+x)*nt + t
		}
	}
	return &DiagPlan{nx: nx, nt: nt, offsets: offsets, tf: transform, tfRows: tfRows}, nil
}

// OutLen returns the length of the per-site result vector.
func (p *DiagPlan) OutLen() int {
	if p.tf != nil {
		return p.tfRows
	}
	return p.nx
}

// Contract reduces one flat (nx,nt,nx,nt) tensor to a per-site vector:
// out[x] = sum_t data[x,t,x,t] / nt, transformed if a transform was planned.
func (p *DiagPlan) Contract(data []complex128) ([]complex128, error) {
	n := p.nx * p.nt
	if len(data) != n*n {
		return nil, fmt.Errorf("einsum: tensor length %d does not match planned (nx*nt)^2 = %d", len(data), n*n)
	}

	diag := make([]complex128, p.nx)
	norm := complex(float64(p.nt), 0)
	for x := 0; x < p.nx; x++ {
		var s complex128
		for _, off := range p.offsets[x*p.nt : (x+1)*p.nt] {
			s += data[off]
		}
		diag[x] = s / norm
	}

	if p.tf == nil {
		return diag, nil
	}

	out := make([]complex128, p.tfRows)
	for a := 0; a < p.tfRows; a++ {
		var s complex128
		row := p.tf[a*p.nx : (a+1)*p.nx]
		for x, d := range diag {
			s += row[x] * d
		}
		out[a] = s
	}
	return out, nil
}

// Reference is the direct, unplanned implementation of the same contraction.
// It exists to validate plan results; production code uses DiagPlan.
func Reference(data []complex128, nx, nt int, transform []complex128, tfRows int) ([]complex128, error) {
	n := nx * nt
	if len(data) != n*n {
		return nil, fmt.Errorf("einsum: tensor length %d does not match (nx*nt)^2 = %d", len(data), n*n)
	}

	diag := make([]complex128, nx)
	for x := 0; x < nx; x++ {
		var s complex128
		for t := 0; t < nt; t++ {
			s += data[((x*nt+t)*nx+x)*nt+t]
		}
		diag[x] = s / complex(float64(nt), 0)
	}
	if transform == nil {
		return diag, nil
	}

	out := make([]complex128, tfRows)
	for a := 0; a < tfRows; a++ {
		var s complex128
		for x := 0; x < nx; x++ {
			s += transform[a*nx+x] * diag[x]
		}
		out[a] = s
	}
	return out, nil
}
