//go:build unix

package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func mapSegment(f *os.File, size int) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: mapping segment: %w", err)
	}
	// Kernels without madvise still map fine; only a real failure matters.
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil && err != unix.ENOSYS {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("mmap: madvise(MADV_SEQUENTIAL): %w", err)
	}
	return data, nil
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}
