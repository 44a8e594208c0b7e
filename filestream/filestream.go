// Package filestream implements an append-only, checksummed file transport
// for IR record-frame streams. A Writer appends frames to a growing
// segment file, rotating to a new segment when an append would take the
// file past a size threshold. A Reader scans a segment's frames back out, checksumming each
// one and stopping cleanly at the first corrupted or incomplete frame
// rather than failing the whole read, so a crash mid-append costs at most
// the torn tail and never the valid prefix before it.
package filestream

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/clp-ir/clpir/mmap"
)

func checksumBytes(b []byte) uint64 { return xxhash.Sum64(b) }

// ErrIncompatible is returned when a segment file's invariant does not
// match the Writer/Reader's configured invariant.
var ErrIncompatible = fmt.Errorf("filestream: incompatible segment invariant")

// ErrUnsupportedVersion is returned when a segment file's version is newer
// than this package understands.
var ErrUnsupportedVersion = fmt.Errorf("filestream: unsupported segment version")

// Options configures a Writer.
type Options struct {
	FileNamePattern string // e.g. "records-*.clpir"; "*" is replaced by the segment ordinal/timestamp/id
	MaxSegmentSize  int64  // rotate to a new segment when an append would take the current one past this size
	Invariant       [32]byte
	Now             func() time.Time
	Logger          *slog.Logger
}

// DefaultMaxSegmentSize is used when Options.MaxSegmentSize is zero.
const DefaultMaxSegmentSize = 4 * 1024 * 1024

// fileHeader is the fixed-size segment preamble: a magic number, a version
// byte, the invariant, and a checksum over all of the header bytes before
// it, all fixed-width fields so it round-trips through
// encoding/binary.Encode/Decode.
type fileHeader struct {
	Magic     uint64
	Version   uint8
	_         [7]byte
	Invariant [32]byte
	Checksum  uint64
}

const fileHeaderStructSize = 8 + 1 + 7 + 32 + 8

var magic = [8]byte{'C', 'L', 'P', 'I', 'R', 'F', 'S', '1'}

const currentVersion uint8 = 0

// Writer appends frames to a rotating sequence of segment files under one
// directory. A Writer is safe for concurrent use.
type Writer struct {
	dir       string
	prefix    string
	suffix    string
	maxSize   int64
	invariant [32]byte
	now       func() time.Time
	logger    *slog.Logger

	mu         sync.Mutex
	f          *os.File
	size       int64
	segOrdinal uint32
	closeErr   error
}

// NewWriter returns a Writer that appends segment files into dir.
func NewWriter(dir string, o Options) *Writer {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.MaxSegmentSize == 0 {
		o.MaxSegmentSize = DefaultMaxSegmentSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.FileNamePattern == "" {
		o.FileNamePattern = "*"
	}
	prefix, suffix, _ := strings.Cut(o.FileNamePattern, "*")
	return &Writer{
		dir:       dir,
		prefix:    prefix,
		suffix:    suffix,
		maxSize:   o.MaxSegmentSize,
		invariant: o.Invariant,
		now:       o.Now,
		logger:    o.Logger,
	}
}

// AppendFrame appends one complete IR record frame (as produced by
// [clpir.SerializationBuffer.Flush]) to the current segment, rotating to a
// new segment first if appending would exceed MaxSegmentSize.
func (w *Writer) AppendFrame(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closeErr != nil {
		return w.closeErr
	}

	encoded := appendFrame(nil, frame)

	if w.f == nil || w.size+int64(len(encoded)) > w.maxSize {
		if err := w.rotate_locked(); err != nil {
			return w.fail_locked(err)
		}
	}

	n, err := w.f.Write(encoded)
	if err != nil {
		return w.fail_locked(err)
	}
	w.size += int64(n)
	return nil
}

// Sync flushes the current segment file to durable storage, using
// fdatasync where the platform supports it to skip the metadata sync
// f.Sync() would otherwise perform.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return mmap.Fdatasync(w.f)
}

// Close closes the current segment file. A later AppendFrame on the same
// Writer starts a new segment.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeCurrent_locked()
}

func (w *Writer) closeCurrent_locked() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *Writer) fail_locked(err error) error {
	w.logger.Error("filestream: write failed", slog.String("dir", w.dir), slog.Any("err", err))
	w.closeErr = err
	w.closeCurrent_locked()
	return err
}

func (w *Writer) rotate_locked() error {
	w.closeCurrent_locked()
	w.segOrdinal++

	name := formatSegmentName(w.prefix, w.suffix, w.segOrdinal, w.now())
	f, err := os.OpenFile(filepath.Join(w.dir, name), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}

	hdr := newFileHeader(w.invariant)
	buf, err := encodeFileHeader(hdr)
	if err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		return err
	}

	w.f = f
	w.size = int64(len(buf))
	return nil
}

// ListSegments returns the names (not full paths) of every segment file in
// dir matching the writer-style naming pattern, oldest first.
func ListSegments(dir, fileNamePattern string) ([]string, error) {
	prefix, suffix, _ := strings.Cut(fileNamePattern, "*")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		if ent.Type()&fs.ModeType != 0 {
			continue
		}
		name := ent.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	return names, nil
}

func formatSegmentName(prefix, suffix string, ordinal uint32, ts time.Time) string {
	return fmt.Sprintf("%s%010d-%d%s", prefix, ordinal, ts.UTC().Unix(), suffix)
}

func segmentOrdinal(name, prefix, suffix string) (uint32, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	ordStr, _, _ := strings.Cut(trimmed, "-")
	v, err := strconv.ParseUint(ordStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("filestream: invalid segment file name %q: %w", name, err)
	}
	return uint32(v), nil
}

func newFileHeader(invariant [32]byte) fileHeader {
	h := fileHeader{Magic: leUint64(magic[:]), Version: currentVersion, Invariant: invariant}
	return h
}

func encodeFileHeader(h fileHeader) ([]byte, error) {
	buf := make([]byte, fileHeaderStructSize)
	n, err := binary.Encode(buf, binary.LittleEndian, h)
	if err != nil {
		return nil, err
	}
	buf = buf[:n]
	h.Checksum = checksumBytes(buf[:n-8])
	binary.LittleEndian.PutUint64(buf[n-8:], h.Checksum)
	return buf, nil
}

func decodeFileHeader(buf []byte) (fileHeader, error) {
	var h fileHeader
	n, err := binary.Decode(buf, binary.LittleEndian, &h)
	if err != nil {
		return h, err
	}
	if checksumBytes(buf[:n-8]) != h.Checksum {
		return h, fmt.Errorf("filestream: %w", errCorruptedHeader)
	}
	if h.Version > currentVersion {
		return h, ErrUnsupportedVersion
	}
	if leUint64(magic[:]) != h.Magic {
		return h, fmt.Errorf("filestream: %w", errCorruptedHeader)
	}
	return h, nil
}

func leUint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

var errCorruptedHeader = fmt.Errorf("corrupted segment header")
