package filestream

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clp-ir/clpir/mmap"
)

// Reader scans one segment file's frames back out in append order.
type Reader struct {
	f      *os.File
	br     byteReader
	mapped []byte
	err    error
}

// ErrTruncatedSegment is reported by [Reader.Err] when a Frames scan
// stopped at a torn or corrupted frame instead of a clean end-of-segment.
var ErrTruncatedSegment = fmt.Errorf("filestream: segment ends in a truncated or corrupted frame")

// byteReader is satisfied by both *bufio.Reader (file-backed) and
// *bytes.Reader (mmap-backed).
type byteReader interface {
	io.Reader
	io.ByteReader
}

// OpenReader opens the segment file at path, validating its header
// against invariant.
func OpenReader(path string, invariant [32]byte) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := readAndCheckHeader(f, invariant); err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, br: bufio.NewReader(f)}, nil
}

// OpenReaderMapped is the [OpenReader] equivalent that memory-maps the
// segment file instead of buffering reads through the kernel on every
// call, using the mmap package for a sequential-access read-only mapping.
// Suitable for segments that are no longer being appended to.
func OpenReaderMapped(path string, invariant [32]byte) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := readAndCheckHeader(f, invariant); err != nil {
		f.Close()
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := int(stat.Size())

	data, err := mmap.MapSegment(f, size)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &Reader{f: f, mapped: data}
	r.br = bytes.NewReader(data[fileHeaderStructSize:])
	return r, nil
}

func readAndCheckHeader(f *os.File, invariant [32]byte) (fileHeader, error) {
	buf := make([]byte, fileHeaderStructSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return fileHeader{}, fmt.Errorf("filestream: reading segment header: %w", err)
	}
	hdr, err := decodeFileHeader(buf)
	if err != nil {
		return hdr, err
	}
	if hdr.Invariant != invariant {
		return hdr, ErrIncompatible
	}
	return hdr, nil
}

// Frames iterates the segment's valid frame payloads in append order. It
// stops — without surfacing an error — at the first corrupted or
// incomplete frame, on the assumption that a writer crash mid-append
// leaves exactly that shape: a clean valid prefix followed by a partial
// tail. Checking r.Err() after a Frames loop distinguishes a clean
// end-of-segment from one that stopped early.
func (r *Reader) Frames() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for {
			tag, err := r.br.ReadByte()
			if err != nil {
				if err != io.EOF {
					r.err = err
				}
				return
			}
			if tag != tagData {
				r.err = ErrTruncatedSegment
				return
			}
			n, err := binary.ReadUvarint(r.br)
			if err != nil {
				r.err = ErrTruncatedSegment
				return
			}
			payload := make([]byte, n)
			if _, err := io.ReadFull(r.br, payload); err != nil {
				r.err = ErrTruncatedSegment
				return
			}
			var cbuf [frameChecksumSize]byte
			if _, err := io.ReadFull(r.br, cbuf[:]); err != nil {
				r.err = ErrTruncatedSegment
				return
			}
			if binary.LittleEndian.Uint64(cbuf[:]) != checksumBytes(payload) {
				r.err = ErrTruncatedSegment
				return
			}
			if !yield(payload) {
				return
			}
		}
	}
}

// Err returns the reason the last Frames scan stopped early, or nil if the
// scan consumed the segment cleanly (or has not run yet).
func (r *Reader) Err() error { return r.err }

// Close releases the reader's file handle and, if [OpenReaderMapped] was
// used, its memory mapping.
func (r *Reader) Close() error {
	if r.mapped != nil {
		if err := mmap.Unmap(r.mapped); err != nil {
			r.f.Close()
			return err
		}
		r.mapped = nil
	}
	return r.f.Close()
}

// LatestSegmentPath returns the path of the highest-ordinal segment file
// in dir matching fileNamePattern, or "" if none exist.
func LatestSegmentPath(dir, fileNamePattern string) (string, error) {
	names, err := ListSegments(dir, fileNamePattern)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	prefix, suffix, _ := strings.Cut(fileNamePattern, "*")
	sort.Slice(names, func(i, j int) bool {
		oi, _ := segmentOrdinal(names[i], prefix, suffix)
		oj, _ := segmentOrdinal(names[j], prefix, suffix)
		return oi < oj
	})
	return filepath.Join(dir, names[len(names)-1]), nil
}
