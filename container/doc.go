// Package container implements the hierarchical data store used to persist
// measurement histories: a tree of named groups holding named typed datasets
// and string attributes, serialized to a single binary file.
//
// The on-disk format is self-describing: a fixed header (magic, version,
// compression algorithm) followed by one compressed block holding the encoded
// tree and a CRC32 trailer. Dataset dtypes (bool, float64, complex128) and
// shapes survive a write/read round trip exactly, including the distinction
// between a present dataset and an explicit typed-empty sentinel.
//
// Files are written atomically (temp file + rename), so a failed flush never
// clobbers an existing file.
package container
