package clpir

import (
	"encoding/binary"
	"io"
	"math"
)

// appendTag appends a single tag byte to buf.
func appendTag(buf []byte, tag Tag) []byte {
	return append(buf, byte(tag))
}

// appendBigEndian appends the big-endian encoding of an unsigned integer of
// the given byte width to buf. width must be 1, 2, 4, or 8.
func appendBigEndian(buf []byte, v uint64, width int) []byte {
	switch width {
	case 1:
		return append(buf, byte(v))
	case 2:
		return binary.BigEndian.AppendUint16(buf, uint16(v))
	case 4:
		return binary.BigEndian.AppendUint32(buf, uint32(v))
	case 8:
		return binary.BigEndian.AppendUint64(buf, v)
	default:
		panic("clpir: invalid integer width")
	}
}

// AppendStandardString appends a length-prefixed, tagged UTF-8 string to
// buf, choosing the narrowest length tag that fits. It fails with
// [ErrValueOutOfRange] if s is 2^32 bytes or longer.
func AppendStandardString(buf []byte, s string) ([]byte, error) {
	n := len(s)
	switch {
	case n <= math.MaxUint8:
		buf = appendTag(buf, TagStandardStrLenByte)
		buf = appendBigEndian(buf, uint64(n), 1)
	case n <= math.MaxUint16:
		buf = appendTag(buf, TagStandardStrLenShort)
		buf = appendBigEndian(buf, uint64(n), 2)
	case uint64(n) <= math.MaxUint32:
		buf = appendTag(buf, TagStandardStrLenInt)
		buf = appendBigEndian(buf, uint64(n), 4)
	default:
		return buf, ErrValueOutOfRange
	}
	return append(buf, s...), nil
}

// ReadStandardString reads the length of a standard string (selected by
// tag, one of the TagStandardStrLen* tags) and then its bytes, from r.
func ReadStandardString(r io.Reader, tag Tag) (string, error) {
	var width int
	switch tag {
	case TagStandardStrLenByte:
		width = 1
	case TagStandardStrLenShort:
		width = 2
	case TagStandardStrLenInt:
		width = 4
	default:
		return "", ErrUnknownTag
	}
	n, err := readBigEndian(r, width)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrIncompleteStream
	}
	return string(buf), nil
}

// readBigEndian reads width bytes from r (1, 2, 4, or 8) and returns them
// as an unsigned integer. Any short read is reported as
// [ErrIncompleteStream].
func readBigEndian(r io.Reader, width int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:width]); err != nil {
		return 0, ErrIncompleteStream
	}
	switch width {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf[:2])), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf[:4])), nil
	case 8:
		return binary.BigEndian.Uint64(buf[:8]), nil
	default:
		panic("clpir: invalid integer width")
	}
}

// readTag reads the next single tag byte from r. It returns
// [ErrEndOfStream] if the byte read is [TagEof], or [ErrIncompleteStream]
// if the read is short.
func readTag(r io.Reader) (Tag, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, ErrIncompleteStream
	}
	tag := Tag(int8(buf[0]))
	if tag == TagEof {
		return tag, ErrEndOfStream
	}
	return tag, nil
}
