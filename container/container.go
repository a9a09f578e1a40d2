package container

import (
	"fmt"
	"path"
	"strings"
)

// File is an in-memory hierarchical container: a tree of groups holding
// datasets. The zero value is not usable; call New.
type File struct {
	root *Group
	name string // file identity once read from / written to disk
}

// New creates an empty container.
func New() *File {
	f := &File{}
	f.root = &Group{file: f}
	return f
}

// Name returns the file identity (the path last read from or written to),
// empty for purely in-memory containers.
func (f *File) Name() string { return f.name }

// Root returns the root group.
func (f *File) Root() *Group { return f.root }

// Group resolves a slash-separated path to a group.
func (f *File) Group(p string) (*Group, error) {
	return f.root.Descend(p)
}

// EnsureGroup resolves a slash-separated path, creating intermediate groups
// as needed. It is idempotent: existing groups are returned untouched.
func (f *File) EnsureGroup(p string) (*Group, error) {
	g := f.root
	for _, part := range splitPath(p) {
		child, err := g.EnsureGroup(part)
		if err != nil {
			return nil, err
		}
		g = child
	}
	return g, nil
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Group is a named node in the container tree. Children and datasets keep
// insertion order; that order is the container's native iteration order and
// is preserved on disk.
type Group struct {
	file   *File
	parent *Group
	name   string

	children []*Group
	childIdx map[string]*Group
	datasets []*Dataset
	dataIdx  map[string]*Dataset
	attrKeys []string
	attrs    map[string]string
}

// Name returns the group's own name; empty for the root group.
func (g *Group) Name() string { return g.name }

// Path returns the slash path of the group from the root.
func (g *Group) Path() string {
	if g.parent == nil {
		return "/"
	}
	p := g.parent.Path()
	if p == "/" {
		return "/" + g.name
	}
	return p + "/" + g.name
}

// File returns the container the group belongs to.
func (g *Group) File() *File { return g.file }

// EnsureGroup returns the named child group, creating it if absent.
// It fails if the name is already used by a dataset.
func (g *Group) EnsureGroup(name string) (*Group, error) {
	if child, ok := g.childIdx[name]; ok {
		return child, nil
	}
	if _, ok := g.dataIdx[name]; ok {
		return nil, fmt.Errorf("%w: %q is a dataset in %q", ErrNameTaken, name, g.Path())
	}
	child := &Group{file: g.file, parent: g, name: name}
	if g.childIdx == nil {
		g.childIdx = make(map[string]*Group)
	}
	g.childIdx[name] = child
	g.children = append(g.children, child)
	return child, nil
}

// Child returns the named child group.
func (g *Group) Child(name string) (*Group, bool) {
	child, ok := g.childIdx[name]
	return child, ok
}

// Children returns the child groups in insertion order.
func (g *Group) Children() []*Group { return g.children }

// Descend resolves a slash-separated path relative to g.
func (g *Group) Descend(p string) (*Group, error) {
	cur := g
	for _, part := range splitPath(p) {
		child, ok := cur.childIdx[part]
		if !ok {
			return nil, &MissingDatasetError{Name: part, Group: cur.Path(), File: g.file.name}
		}
		cur = child
	}
	return cur, nil
}

// SetAttr sets a string attribute on the group.
func (g *Group) SetAttr(key, value string) {
	if g.attrs == nil {
		g.attrs = make(map[string]string)
	}
	if _, ok := g.attrs[key]; !ok {
		g.attrKeys = append(g.attrKeys, key)
	}
	g.attrs[key] = value
}

// Attr returns a group attribute.
func (g *Group) Attr(key string) (string, bool) {
	v, ok := g.attrs[key]
	return v, ok
}

// AttrKeys returns the attribute keys in insertion order.
func (g *Group) AttrKeys() []string { return g.attrKeys }

// Dataset returns the named dataset, or a MissingDatasetError identifying the
// group and file if it is absent.
func (g *Group) Dataset(name string) (*Dataset, error) {
	ds, ok := g.dataIdx[name]
	if !ok {
		return nil, &MissingDatasetError{Name: name, Group: g.Path(), File: g.file.name}
	}
	return ds, nil
}

// Datasets returns the datasets in insertion order.
func (g *Group) Datasets() []*Dataset { return g.datasets }

func (g *Group) putDataset(ds *Dataset) error {
	if _, ok := g.childIdx[ds.Name]; ok {
		return fmt.Errorf("%w: %q is a group in %q", ErrNameTaken, ds.Name, g.Path())
	}
	if old, ok := g.dataIdx[ds.Name]; ok {
		// Overwrite in place, keeping the original position.
		*old = *ds
		return nil
	}
	if g.dataIdx == nil {
		g.dataIdx = make(map[string]*Dataset)
	}
	g.dataIdx[ds.Name] = ds
	g.datasets = append(g.datasets, ds)
	return nil
}

// SetBools stores a one-dimensional boolean dataset.
func (g *Group) SetBools(name string, values []bool) error {
	return g.putDataset(&Dataset{Name: name, DType: DTypeBool, Shape: []int{len(values)}, Bools: values})
}

// SetFloats stores a float64 dataset with the given shape.
func (g *Group) SetFloats(name string, shape []int, values []float64) error {
	if err := checkShape(shape, len(values)); err != nil {
		return fmt.Errorf("dataset %q: %w", name, err)
	}
	return g.putDataset(&Dataset{Name: name, DType: DTypeFloat64, Shape: shape, Floats: values})
}

// SetComplexes stores a complex128 dataset with the given shape.
func (g *Group) SetComplexes(name string, shape []int, values []complex128) error {
	if err := checkShape(shape, len(values)); err != nil {
		return fmt.Errorf("dataset %q: %w", name, err)
	}
	return g.putDataset(&Dataset{Name: name, DType: DTypeComplex128, Shape: shape, Complexes: values})
}

// SetEmpty stores a typed-empty sentinel: the dataset exists and carries a
// dtype but holds no values. On read it is distinguishable from both an
// absent key and a zero-length dataset.
func (g *Group) SetEmpty(name string, dtype DType) error {
	if !dtype.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDType, dtype)
	}
	return g.putDataset(&Dataset{Name: name, DType: dtype, Empty: true})
}

func checkShape(shape []int, n int) error {
	want := 1
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("negative dimension %d in shape %v", d, shape)
		}
		want *= d
	}
	if len(shape) == 0 {
		want = 0
	}
	if want != n {
		return fmt.Errorf("shape %v does not hold %d values", shape, n)
	}
	return nil
}

// Dataset is a named typed value array within a group. Exactly one of the
// value slices is populated, matching DType; none for an Empty sentinel.
type Dataset struct {
	Name  string
	DType DType
	Shape []int
	Empty bool

	Bools     []bool
	Floats    []float64
	Complexes []complex128
}

// Len returns the total number of elements.
func (d *Dataset) Len() int {
	switch d.DType {
	case DTypeBool:
		return len(d.Bools)
	case DTypeFloat64:
		return len(d.Floats)
	case DTypeComplex128:
		return len(d.Complexes)
	default:
		return 0
	}
}
