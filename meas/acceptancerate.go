package meas

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/model"
)

// AcceptanceRate records the per-trajectory acceptance flag. It is an
// inline-only measurement: the flag exists only while the MCMC step is being
// taken, so calling it out of line is a usage error.
type AcceptanceRate struct {
	rate     *history.BoolSeries
	accepted *roaring64.Bitmap // step indices of accepted trajectories
}

// NewAcceptanceRate creates an empty acceptance-rate accumulator.
func NewAcceptanceRate() *AcceptanceRate {
	return &AcceptanceRate{
		rate:     history.NewBoolSeries(),
		accepted: roaring64.New(),
	}
}

// Record appends the acceptance flag carried by an inline call context.
// A batch call returns ErrInvalidUsage and records nothing.
func (a *AcceptanceRate) Record(ctx model.CallContext, _ model.Configuration) error {
	if ctx.Kind != model.CallInline {
		return fmt.Errorf("%w: cannot record acceptance rate out of line", ErrInvalidUsage)
	}
	a.rate.Append(ctx.Accepted)
	if ctx.Accepted && ctx.Step >= 0 {
		a.accepted.Add(uint64(ctx.Step))
	}
	return nil
}

// Series returns the single tracked series.
func (a *AcceptanceRate) Series() []NamedSeries {
	return []NamedSeries{{Name: "acceptanceRate", Series: a.rate}}
}

// History returns the recorded flags in trajectory order.
func (a *AcceptanceRate) History() *history.BoolSeries { return a.rate }

// Restore rebuilds the accepted-step index from the flag series after a
// reload. Flags are assumed to sit at sequential step indices starting at 0,
// which is how run drivers record them.
func (a *AcceptanceRate) Restore() error {
	a.accepted.Clear()
	for i, v := range a.rate.Values() {
		if v {
			a.accepted.Add(uint64(i))
		}
	}
	return nil
}

// Rate returns the mean acceptance rate over all recorded trajectories,
// or 0 for an empty history.
func (a *AcceptanceRate) Rate() float64 {
	n := a.rate.Len()
	if n == 0 {
		return 0
	}
	var acc int
	for _, v := range a.rate.Values() {
		if v {
			acc++
		}
	}
	return float64(acc) / float64(n)
}

// AcceptedBetween returns how many trajectories with step index in [lo, hi)
// were accepted. Only inline-recorded step indices are counted; the index is
// a runtime summary and is rebuilt from the flag series on reload.
func (a *AcceptanceRate) AcceptedBetween(lo, hi uint64) uint64 {
	if hi <= lo {
		return 0
	}
	var n uint64
	if hi > 0 {
		n = a.accepted.Rank(hi - 1)
	}
	if lo > 0 {
		n -= a.accepted.Rank(lo - 1)
	}
	return n
}
