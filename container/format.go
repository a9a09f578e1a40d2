package container

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies latmeas container files (ASCII: "LMC1").
	MagicNumber = 0x4C4D4331
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrChecksum       = errors.New("checksum mismatch")
	ErrInvalidDType   = errors.New("invalid dtype")
	ErrNameTaken      = errors.New("name already used in group")
)

// DType identifies the element type of a dataset.
type DType uint8

const (
	DTypeBool DType = iota + 1
	DTypeFloat64
	DTypeComplex128
)

// String returns the dtype name as used in diagnostics and the CLI.
func (d DType) String() string {
	switch d {
	case DTypeBool:
		return "bool"
	case DTypeFloat64:
		return "float64"
	case DTypeComplex128:
		return "complex128"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

func (d DType) valid() bool {
	return d >= DTypeBool && d <= DTypeComplex128
}

// MissingDatasetError reports a dataset or group that was expected but not
// present, identifying the group path and the file it came from.
type MissingDatasetError struct {
	Name  string // dataset or child group name
	Group string // slash path of the group searched
	File  string // file identity, empty for in-memory containers
}

func (e *MissingDatasetError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("no dataset %q in group %q", e.Name, e.Group)
	}
	return fmt.Sprintf("no dataset %q in group %q in file %q", e.Name, e.Group, e.File)
}
