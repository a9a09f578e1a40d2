package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

// fileHeader is the fixed-size header at the start of every container file.
type fileHeader struct {
	Magic       uint32
	Version     uint32
	Compression uint8
	Padding     [3]byte
	BodyLen     uint64
}

// Encode serializes the container to w using the given compression.
func (f *File) Encode(w io.Writer, c Compression) error {
	var body bytes.Buffer
	tw := &treeWriter{w: &body}
	if err := tw.writeGroup(f.root); err != nil {
		return err
	}

	block, err := compressBlock(body.Bytes(), c)
	if err != nil {
		return err
	}

	hdr := fileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(c),
		BodyLen:     uint64(len(block)),
	}
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if _, err := w.Write(block); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, crc32.ChecksumIEEE(block))
}

// Decode parses a container from r.
func Decode(r io.Reader) (*File, error) {
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, hdr.Magic)
	}
	if hdr.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, hdr.Version)
	}

	block := make([]byte, hdr.BodyLen)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, err
	}
	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return nil, err
	}
	if sum != crc32.ChecksumIEEE(block) {
		return nil, ErrChecksum
	}

	body, err := decompressBlock(block, Compression(hdr.Compression))
	if err != nil {
		return nil, err
	}

	f := &File{}
	tr := &treeReader{r: bytes.NewReader(body)}
	root, err := tr.readGroup(f, nil)
	if err != nil {
		return nil, err
	}
	f.root = root
	return f, nil
}

// WriteFile atomically writes the container to path: the data is written to a
// temp file in the same directory, synced, then renamed over the target. An
// existing file is never left half-written.
func (f *File) WriteFile(path string, c Compression) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := f.Encode(buf, c); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	f.name = path
	tmpName = ""
	return nil
}

// ReadFile loads a container file written by WriteFile. The file path becomes
// the container's identity, reported by MissingDatasetError values.
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Decode(bufio.NewReaderSize(fh, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("container: reading %s: %w", path, err)
	}
	f.name = path
	return f, nil
}
