// Package measio is the persistence adapter between measurement accumulators
// and container files: it flushes an accumulator's history series into a
// named group and reloads them back, preserving values, dtypes, and shapes
// exactly.
//
// The canonical on-disk schema is one group per measurement holding one
// dataset per tracked series (plus an explicit typed-empty "transform"
// sentinel where a basis transform may legitimately be absent). A second read
// mode exists for per-configuration layouts written by run drivers that store
// one sub-group per trajectory; measio never writes that layout itself.
package measio

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/latmeas/latmeas/container"
	"github.com/latmeas/latmeas/history"
	"github.com/latmeas/latmeas/meas"
	"github.com/latmeas/latmeas/model"
)

// ReadMode selects the on-disk layout Read expects. The layout is never
// auto-detected.
type ReadMode uint8

const (
	// Direct reads one dataset per series key directly under the group.
	Direct ReadMode = iota
	// PerConfig reads one sub-group per recorded configuration, each holding
	// the same key; elements are concatenated in the container's native
	// child order.
	PerConfig
)

// TransformCarrier is implemented by accumulators that may carry an optional
// basis-transform matrix. The matrix is persisted alongside the series; when
// absent, an explicit typed-empty sentinel is written instead of omitting
// the key.
type TransformCarrier interface {
	Transform() *model.Matrix
	SetTransform(*model.Matrix)
}

// Restorer is implemented by accumulators that keep derived state alongside
// their series (indexes, counters). Read invokes it after the series have
// been repopulated so that derived state matches the reloaded history.
type Restorer interface {
	Restore() error
}

// transformKey is the dataset name for the optional basis transform.
const transformKey = "transform"

// Save flushes the accumulator's series into the named group, creating it if
// absent. Existing datasets in the group are overwritten; a repeated flush of
// a still-recording accumulator replaces the previous snapshot. No other
// group is touched. Values are copied, so the in-memory history stays
// independent of the container afterwards.
func Save(f *container.File, groupName string, acc meas.SeriesProvider) error {
	snap, err := snapshot(acc)
	if err != nil {
		return fmt.Errorf("measio: %s: %w", groupName, err)
	}
	return apply(f, groupName, snap)
}

// SaveOption configures SaveAll.
type SaveOption func(*saveOptions)

type saveOptions struct {
	runID string
}

// WithRunID overrides the run identity stamped on the root group.
// By default a fresh UUID is generated per SaveAll call.
func WithRunID(id string) SaveOption {
	return func(o *saveOptions) { o.runID = id }
}

// SaveAll flushes several accumulators into one container, keyed by group
// path, and stamps the root group with a run identity and write timestamp.
// Series snapshots are taken concurrently (copying large per-site histories
// dominates flush time); the container tree itself is mutated sequentially.
func SaveAll(f *container.File, accs map[string]meas.SeriesProvider, opts ...SaveOption) error {
	o := saveOptions{runID: uuid.NewString()}
	for _, opt := range opts {
		opt(&o)
	}

	names := make([]string, 0, len(accs))
	for name := range accs {
		names = append(names, name)
	}

	snaps := make([]groupSnapshot, len(names))
	var eg errgroup.Group
	for i, name := range names {
		eg.Go(func() error {
			snap, err := snapshot(accs[name])
			if err != nil {
				return fmt.Errorf("measio: %s: %w", name, err)
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, name := range names {
		if err := apply(f, name, snaps[i]); err != nil {
			return err
		}
	}

	f.Root().SetAttr("run_id", o.runID)
	f.Root().SetAttr("written_at", time.Now().UTC().Format(time.RFC3339))
	return nil
}

// groupSnapshot is the immutable copy of an accumulator's state taken before
// any container mutation, so a failed flush cannot corrupt either side.
type groupSnapshot struct {
	datasets  []snapDataset
	transform *model.Matrix
	hasTf     bool
}

type snapDataset struct {
	name      string
	dtype     history.DType
	shape     []int
	bools     []bool
	floats    []float64
	complexes []complex128
}

func snapshot(acc meas.SeriesProvider) (groupSnapshot, error) {
	var snap groupSnapshot
	for _, ns := range acc.Series() {
		ds := snapDataset{name: ns.Name, dtype: ns.Series.DType()}
		switch s := ns.Series.(type) {
		case *history.BoolSeries:
			ds.bools = append([]bool(nil), s.Values()...)
			ds.shape = []int{s.Len()}
		case *history.FloatSeries:
			ds.floats = append([]float64(nil), s.Values()...)
			ds.shape = []int{s.Len()}
		case *history.ComplexSeries:
			ds.complexes = append([]complex128(nil), s.Values()...)
			ds.shape = append([]int{s.Len()}, s.SampleShape()...)
		default:
			return snap, fmt.Errorf("unsupported series type %T for %q", ns.Series, ns.Name)
		}
		snap.datasets = append(snap.datasets, ds)
	}
	if tc, ok := acc.(TransformCarrier); ok {
		snap.hasTf = true
		if m := tc.Transform(); m != nil {
			cp := model.NewMatrix(m.Rows, m.Cols)
			copy(cp.Data, m.Data)
			snap.transform = cp
		}
	}
	return snap, nil
}

func apply(f *container.File, groupName string, snap groupSnapshot) error {
	g, err := f.EnsureGroup(groupName)
	if err != nil {
		return err
	}
	if snap.hasTf {
		if snap.transform == nil {
			if err := g.SetEmpty(transformKey, container.DTypeComplex128); err != nil {
				return err
			}
		} else {
			m := snap.transform
			if err := g.SetComplexes(transformKey, []int{m.Rows, m.Cols}, m.Data); err != nil {
				return err
			}
		}
	}
	for _, ds := range snap.datasets {
		var err error
		switch ds.dtype {
		case history.Bool:
			err = g.SetBools(ds.name, ds.bools)
		case history.Float64:
			err = g.SetFloats(ds.name, ds.shape, ds.floats)
		case history.Complex128:
			err = g.SetComplexes(ds.name, ds.shape, ds.complexes)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Read reloads the accumulator's series from the group at groupPath. The
// accumulator's history is populated entirely from storage: values, dtypes,
// and shapes match what Save wrote, and an empty transform sentinel maps back
// to an absent (nil) transform. A missing dataset surfaces as a
// *container.MissingDatasetError identifying the group and file.
func Read(f *container.File, groupPath string, mode ReadMode, acc meas.SeriesProvider) error {
	g, err := f.Group(groupPath)
	if err != nil {
		return err
	}

	switch mode {
	case Direct:
		err = readDirect(g, acc)
	case PerConfig:
		err = readPerConfig(g, acc)
	default:
		return fmt.Errorf("measio: unknown read mode %d", mode)
	}
	if err != nil {
		return err
	}

	if r, ok := acc.(Restorer); ok {
		if err := r.Restore(); err != nil {
			return fmt.Errorf("measio: %s: %w", groupPath, err)
		}
	}
	return nil
}

func readDirect(g *container.Group, acc meas.SeriesProvider) error {
	if tc, ok := acc.(TransformCarrier); ok {
		ds, err := g.Dataset(transformKey)
		if err != nil {
			return err
		}
		m, err := transformFromDataset(ds, g)
		if err != nil {
			return err
		}
		tc.SetTransform(m)
	}

	for _, ns := range acc.Series() {
		ds, err := g.Dataset(ns.Name)
		if err != nil {
			return err
		}
		if err := restoreSeries(ns, ds); err != nil {
			return fmt.Errorf("measio: %s/%s: %w", g.Path(), ns.Name, err)
		}
	}
	return nil
}

func transformFromDataset(ds *container.Dataset, g *container.Group) (*model.Matrix, error) {
	if ds.Empty {
		return nil, nil
	}
	if ds.DType != container.DTypeComplex128 || len(ds.Shape) != 2 {
		return nil, fmt.Errorf("measio: %s/%s: not a complex matrix (dtype %s, shape %v)",
			g.Path(), transformKey, ds.DType, ds.Shape)
	}
	m := &model.Matrix{Rows: ds.Shape[0], Cols: ds.Shape[1]}
	m.Data = append([]complex128(nil), ds.Complexes...)
	return m, nil
}

func restoreSeries(ns meas.NamedSeries, ds *container.Dataset) error {
	switch s := ns.Series.(type) {
	case *history.BoolSeries:
		if ds.DType != container.DTypeBool {
			return fmt.Errorf("dtype %s, expected bool", ds.DType)
		}
		s.Reset(append([]bool(nil), ds.Bools...))
		return nil
	case *history.FloatSeries:
		if ds.DType != container.DTypeFloat64 {
			return fmt.Errorf("dtype %s, expected float64", ds.DType)
		}
		s.Reset(append([]float64(nil), ds.Floats...))
		return nil
	case *history.ComplexSeries:
		if ds.DType != container.DTypeComplex128 {
			return fmt.Errorf("dtype %s, expected complex128", ds.DType)
		}
		values := append([]complex128(nil), ds.Complexes...)
		if len(ds.Shape) <= 1 {
			n := 0
			if len(ds.Shape) == 1 {
				n = ds.Shape[0]
			}
			return s.Reset(values, n)
		}
		return s.ResetArray(values, ds.Shape[0], ds.Shape[1:])
	default:
		return fmt.Errorf("unsupported series type %T", ns.Series)
	}
}

// readPerConfig reconstructs each series by visiting the group's children in
// native order; every child contributes its samples for the series key in
// turn. Child dataset shapes lead with the sample count, like the direct
// layout: [m] holds m scalar samples, [m, dims...] holds m array samples.
func readPerConfig(g *container.Group, acc meas.SeriesProvider) error {
	for _, ns := range acc.Series() {
		switch s := ns.Series.(type) {
		case *history.BoolSeries:
			var values []bool
			for _, cfg := range g.Children() {
				ds, err := cfg.Dataset(ns.Name)
				if err != nil {
					return err
				}
				if ds.DType != container.DTypeBool {
					return fmt.Errorf("measio: %s/%s: dtype %s, expected bool", cfg.Path(), ns.Name, ds.DType)
				}
				values = append(values, ds.Bools...)
			}
			s.Reset(values)
		case *history.FloatSeries:
			var values []float64
			for _, cfg := range g.Children() {
				ds, err := cfg.Dataset(ns.Name)
				if err != nil {
					return err
				}
				if ds.DType != container.DTypeFloat64 {
					return fmt.Errorf("measio: %s/%s: dtype %s, expected float64", cfg.Path(), ns.Name, ds.DType)
				}
				values = append(values, ds.Floats...)
			}
			s.Reset(values)
		case *history.ComplexSeries:
			var values []complex128
			var sampleShape []int
			n := 0
			for _, cfg := range g.Children() {
				ds, err := cfg.Dataset(ns.Name)
				if err != nil {
					return err
				}
				if ds.DType != container.DTypeComplex128 {
					return fmt.Errorf("measio: %s/%s: dtype %s, expected complex128", cfg.Path(), ns.Name, ds.DType)
				}
				if len(ds.Shape) == 0 {
					return fmt.Errorf("measio: %s/%s: dataset has no sample axis", cfg.Path(), ns.Name)
				}
				if sampleShape == nil {
					sampleShape = ds.Shape[1:]
				} else if !slices.Equal(sampleShape, ds.Shape[1:]) {
					return fmt.Errorf("measio: %s/%s: sample shape %v differs from %v",
						cfg.Path(), ns.Name, ds.Shape[1:], sampleShape)
				}
				values = append(values, ds.Complexes...)
				n += ds.Shape[0]
			}
			if len(sampleShape) == 0 {
				if err := s.Reset(values, n); err != nil {
					return err
				}
			} else if err := s.ResetArray(values, n, sampleShape); err != nil {
				return err
			}
		default:
			return fmt.Errorf("measio: unsupported series type %T for %q", ns.Series, ns.Name)
		}
	}
	return nil
}
