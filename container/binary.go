package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unsafe"
)

// Tree encoding, little-endian throughout:
//
//	group   = nameStr attrCount:u32 (keyStr valStr)* dsCount:u32 dataset* childCount:u32 group*
//	dataset = nameStr dtype:u8 empty:u8 ndim:u8 dim:u64* payload
//	payload = bool: byte per element; float64/complex128: raw little-endian words
//
// Numeric payloads are written via unsafe slice reinterpretation, matching the
// zero-copy style used for the rest of the on-disk formats in this module.

const maxNameLen = math.MaxUint16

type treeWriter struct {
	w io.Writer
}

func (tw *treeWriter) writeString(s string) error {
	if len(s) > maxNameLen {
		return fmt.Errorf("container: name too long (%d bytes)", len(s))
	}
	if err := binary.Write(tw.w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(tw.w, s)
	return err
}

func (tw *treeWriter) writeGroup(g *Group) error {
	if err := tw.writeString(g.name); err != nil {
		return err
	}

	if err := binary.Write(tw.w, binary.LittleEndian, uint32(len(g.attrKeys))); err != nil {
		return err
	}
	for _, k := range g.attrKeys {
		if err := tw.writeString(k); err != nil {
			return err
		}
		if err := tw.writeString(g.attrs[k]); err != nil {
			return err
		}
	}

	if err := binary.Write(tw.w, binary.LittleEndian, uint32(len(g.datasets))); err != nil {
		return err
	}
	for _, ds := range g.datasets {
		if err := tw.writeDataset(ds); err != nil {
			return err
		}
	}

	if err := binary.Write(tw.w, binary.LittleEndian, uint32(len(g.children))); err != nil {
		return err
	}
	for _, child := range g.children {
		if err := tw.writeGroup(child); err != nil {
			return err
		}
	}
	return nil
}

func (tw *treeWriter) writeDataset(ds *Dataset) error {
	if err := tw.writeString(ds.Name); err != nil {
		return err
	}
	empty := uint8(0)
	if ds.Empty {
		empty = 1
	}
	if err := binary.Write(tw.w, binary.LittleEndian, []uint8{uint8(ds.DType), empty, uint8(len(ds.Shape))}); err != nil {
		return err
	}
	for _, d := range ds.Shape {
		if err := binary.Write(tw.w, binary.LittleEndian, uint64(d)); err != nil {
			return err
		}
	}
	if ds.Empty {
		return nil
	}

	switch ds.DType {
	case DTypeBool:
		buf := make([]byte, len(ds.Bools))
		for i, v := range ds.Bools {
			if v {
				buf[i] = 1
			}
		}
		_, err := tw.w.Write(buf)
		return err
	case DTypeFloat64:
		if len(ds.Floats) == 0 {
			return nil
		}
		byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&ds.Floats[0])), len(ds.Floats)*8)
		_, err := tw.w.Write(byteSlice)
		return err
	case DTypeComplex128:
		if len(ds.Complexes) == 0 {
			return nil
		}
		byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&ds.Complexes[0])), len(ds.Complexes)*16)
		_, err := tw.w.Write(byteSlice)
		return err
	default:
		return fmt.Errorf("%w: %d", ErrInvalidDType, ds.DType)
	}
}

type treeReader struct {
	r io.Reader
}

func (tr *treeReader) readString() (string, error) {
	var n uint16
	if err := binary.Read(tr.r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(tr.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (tr *treeReader) readGroup(f *File, parent *Group) (*Group, error) {
	name, err := tr.readString()
	if err != nil {
		return nil, err
	}
	g := &Group{file: f, parent: parent, name: name}

	var attrCount uint32
	if err := binary.Read(tr.r, binary.LittleEndian, &attrCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < attrCount; i++ {
		k, err := tr.readString()
		if err != nil {
			return nil, err
		}
		v, err := tr.readString()
		if err != nil {
			return nil, err
		}
		g.SetAttr(k, v)
	}

	var dsCount uint32
	if err := binary.Read(tr.r, binary.LittleEndian, &dsCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < dsCount; i++ {
		ds, err := tr.readDataset()
		if err != nil {
			return nil, err
		}
		if err := g.putDataset(ds); err != nil {
			return nil, err
		}
	}

	var childCount uint32
	if err := binary.Read(tr.r, binary.LittleEndian, &childCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < childCount; i++ {
		child, err := tr.readGroup(f, g)
		if err != nil {
			return nil, err
		}
		if _, ok := g.childIdx[child.name]; ok {
			return nil, fmt.Errorf("%w: duplicate group %q in %q", ErrNameTaken, child.name, g.Path())
		}
		if g.childIdx == nil {
			g.childIdx = make(map[string]*Group)
		}
		g.childIdx[child.name] = child
		g.children = append(g.children, child)
	}
	return g, nil
}

func (tr *treeReader) readDataset() (*Dataset, error) {
	name, err := tr.readString()
	if err != nil {
		return nil, err
	}
	var hdr [3]uint8
	if err := binary.Read(tr.r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	ds := &Dataset{Name: name, DType: DType(hdr[0]), Empty: hdr[1] != 0}
	if !ds.DType.valid() {
		return nil, fmt.Errorf("%w: %d in dataset %q", ErrInvalidDType, hdr[0], name)
	}

	n := 1
	ndim := int(hdr[2])
	if ndim > 0 {
		ds.Shape = make([]int, ndim)
	}
	for i := 0; i < ndim; i++ {
		var d uint64
		if err := binary.Read(tr.r, binary.LittleEndian, &d); err != nil {
			return nil, err
		}
		ds.Shape[i] = int(d)
		n *= int(d)
	}
	if ndim == 0 {
		n = 0
	}
	if ds.Empty {
		return ds, nil
	}

	switch ds.DType {
	case DTypeBool:
		buf := make([]byte, n)
		if _, err := io.ReadFull(tr.r, buf); err != nil {
			return nil, err
		}
		ds.Bools = make([]bool, n)
		for i, b := range buf {
			ds.Bools[i] = b != 0
		}
	case DTypeFloat64:
		ds.Floats = make([]float64, n)
		if n > 0 {
			byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&ds.Floats[0])), n*8)
			if _, err := io.ReadFull(tr.r, byteSlice); err != nil {
				return nil, err
			}
		}
	case DTypeComplex128:
		ds.Complexes = make([]complex128, n)
		if n > 0 {
			byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&ds.Complexes[0])), n*16)
			if _, err := io.ReadFull(tr.r, byteSlice); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}
