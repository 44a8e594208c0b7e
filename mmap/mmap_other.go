//go:build !unix

package mmap

import "os"

func mapSegment(f *os.File, size int) ([]byte, error) {
	return nil, ErrUnsupported
}

func unmap(data []byte) error {
	return nil
}
