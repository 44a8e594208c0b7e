// Package mmap memory-maps segment files so a filestream.Reader can scan
// frames directly out of page cache instead of issuing a read syscall per
// frame. It covers exactly what the segment reader and writer need: a
// read-only sequential mapping of a finished segment, and an
// fdatasync-style flush for the segment being appended to.
package mmap

import (
	"errors"
	"os"
)

// ErrUnsupported is returned by MapSegment on platforms without a usable
// mmap implementation. Callers fall back to plain buffered reads.
var ErrUnsupported = errors.New("mmap: not supported on this platform")

// MapSegment maps the first size bytes of f read-only, advising the
// kernel that access will be sequential. The returned slice stays valid
// until Unmap.
func MapSegment(f *os.File, size int) ([]byte, error) {
	return mapSegment(f, size)
}

// Unmap releases a mapping returned by MapSegment.
func Unmap(data []byte) error {
	return unmap(data)
}

// Fdatasync flushes f's written data to durable storage, skipping the
// metadata (timestamp) sync a plain f.Sync() would also perform where the
// platform allows it.
//
// Errors from this function are not recoverable: many operating systems
// mark dirty pages clean after a failed fsync, so retrying cannot ensure
// the data reached disk. Callers must treat the affected segment as
// suspect and stop appending to it.
func Fdatasync(f *os.File) error {
	return fdatasync(f)
}
