package meas

import (
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/latmeas/latmeas/model"
)

// Registration binds an accumulator to a name and a measurement frequency:
// the accumulator runs on every step whose index is a multiple of Frequency.
type Registration struct {
	Name      string
	Acc       Accumulator
	Frequency int
}

// Every registers acc under name, measuring every freq trajectories.
func Every(name string, acc Accumulator, freq int) Registration {
	return Registration{Name: name, Acc: acc, Frequency: freq}
}

// CheckpointFunc flushes the current measurement state to storage.
type CheckpointFunc func() error

// Driver dispatches configurations to registered accumulators, one call per
// trajectory per due accumulator, strictly sequentially.
type Driver struct {
	regs []Registration
	log  *slog.Logger

	checkpoint CheckpointFunc
	limiter    *rate.Limiter

	steps int
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) { d.log = l }
}

// WithCheckpoint installs a flush callback invoked during Step, throttled to
// at most maxPerSec calls per second so frequent trajectories do not turn
// into constant disk writes. Checkpoint errors abort the step; the in-memory
// histories stay intact.
func WithCheckpoint(fn CheckpointFunc, maxPerSec float64) DriverOption {
	return func(d *Driver) {
		d.checkpoint = fn
		d.limiter = rate.NewLimiter(rate.Limit(maxPerSec), 1)
	}
}

// NewDriver creates a driver over the given registrations.
func NewDriver(regs []Registration, opts ...DriverOption) *Driver {
	d := &Driver{regs: regs, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Step feeds one trajectory's configuration to every due accumulator. The
// first accumulator error aborts the step and is returned to the caller;
// accumulators later in the registration order are not invoked for that step.
func (d *Driver) Step(phi model.Configuration, ctx model.CallContext) error {
	for _, r := range d.regs {
		if r.Frequency <= 0 {
			continue
		}
		if ctx.Kind == model.CallInline && ctx.Step%r.Frequency != 0 {
			continue
		}
		if err := r.Acc.Record(ctx, phi); err != nil {
			return fmt.Errorf("measurement %q at step %d: %w", r.Name, ctx.Step, err)
		}
	}
	d.steps++
	d.log.Debug("measured trajectory", "step", ctx.Step, "kind", ctx.Kind.String())

	if d.checkpoint != nil && d.limiter.Allow() {
		if err := d.checkpoint(); err != nil {
			return fmt.Errorf("checkpoint after step %d: %w", ctx.Step, err)
		}
		d.log.Info("checkpoint flushed", "step", ctx.Step)
	}
	return nil
}

// Steps returns how many trajectories have been dispatched.
func (d *Driver) Steps() int { return d.steps }

// Registrations returns the registered measurements.
func (d *Driver) Registrations() []Registration { return d.regs }
