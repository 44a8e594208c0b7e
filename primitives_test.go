package clpir

import (
	"bytes"
	"strings"
	"testing"
)

func TestStandardStringLenTagBoundaries(t *testing.T) {
	cases := []struct {
		n       int
		wantTag Tag
	}{
		{0, TagStandardStrLenByte},
		{255, TagStandardStrLenByte},
		{256, TagStandardStrLenShort},
		{65535, TagStandardStrLenShort},
		{65536, TagStandardStrLenInt},
	}
	for _, c := range cases {
		s := strings.Repeat("x", c.n)
		buf, err := AppendStandardString(nil, s)
		if err != nil {
			t.Fatalf("n=%d: AppendStandardString: %v", c.n, err)
		}
		if Tag(int8(buf[0])) != c.wantTag {
			t.Fatalf("n=%d: tag = 0x%x, want 0x%x", c.n, buf[0], c.wantTag)
		}
		got, err := ReadStandardString(bytes.NewReader(buf[1:]), Tag(int8(buf[0])))
		if err != nil {
			t.Fatalf("n=%d: ReadStandardString: %v", c.n, err)
		}
		if got != s {
			t.Fatalf("n=%d: round trip mismatch (got len %d)", c.n, len(got))
		}
	}
}

func TestReadStandardStringTruncated(t *testing.T) {
	buf, err := AppendStandardString(nil, "hello world")
	if err != nil {
		t.Fatalf("AppendStandardString: %v", err)
	}
	// Drop the last byte of the payload.
	truncated := buf[1 : len(buf)-1]
	if _, err := ReadStandardString(bytes.NewReader(truncated), Tag(int8(buf[0]))); err != ErrIncompleteStream {
		t.Fatalf("err = %v, want ErrIncompleteStream", err)
	}
}

func TestReadTagEndOfStream(t *testing.T) {
	buf := []byte{byte(TagEof)}
	if _, err := readTag(bytes.NewReader(buf)); err != ErrEndOfStream {
		t.Fatalf("err = %v, want ErrEndOfStream", err)
	}
}

func TestReadTagIncomplete(t *testing.T) {
	if _, err := readTag(bytes.NewReader(nil)); err != ErrIncompleteStream {
		t.Fatalf("err = %v, want ErrIncompleteStream", err)
	}
}

func TestAppendBigEndianRoundTrip(t *testing.T) {
	widths := []int{1, 2, 4, 8}
	values := []uint64{0, 1, 127, 255, 32768, 65535, 1 << 31, ^uint64(0)}
	for _, width := range widths {
		for _, v := range values {
			mask := uint64(1)<<(uint(width)*8) - 1
			if width == 8 {
				mask = ^uint64(0)
			}
			want := v & mask
			buf := appendBigEndian(nil, want, width)
			got, err := readBigEndian(bytes.NewReader(buf), width)
			if err != nil {
				t.Fatalf("width=%d v=%d: readBigEndian: %v", width, v, err)
			}
			if got != want {
				t.Fatalf("width=%d: got %d, want %d", width, got, want)
			}
		}
	}
}

func TestIntValueTagBoundaries(t *testing.T) {
	cases := []struct {
		v         int64
		wantShort Tag // with short-int compression on
		wantLong  Tag // with it off (the default)
	}{
		{0, TagValueInt8, TagValueInt32},
		{127, TagValueInt8, TagValueInt32},
		{-128, TagValueInt8, TagValueInt32},
		{128, TagValueInt16, TagValueInt32},
		{32767, TagValueInt16, TagValueInt32},
		{-32768, TagValueInt16, TagValueInt32},
		{32768, TagValueInt32, TagValueInt32},
		{1<<31 - 1, TagValueInt32, TagValueInt32},
		{-1 << 31, TagValueInt32, TagValueInt32},
		{1 << 31, TagValueInt64, TagValueInt64},
		{1<<63 - 1, TagValueInt64, TagValueInt64},
	}

	saved := EnableShortIntCompression
	defer func() { EnableShortIntCompression = saved }()

	for _, c := range cases {
		EnableShortIntCompression = false
		buf := appendIntValue(nil, c.v)
		if Tag(int8(buf[0])) != c.wantLong {
			t.Errorf("v=%d (compression off): tag = 0x%x, want 0x%x", c.v, buf[0], c.wantLong)
		}
		EnableShortIntCompression = true
		buf = appendIntValue(nil, c.v)
		if Tag(int8(buf[0])) != c.wantShort {
			t.Errorf("v=%d (compression on): tag = 0x%x, want 0x%x", c.v, buf[0], c.wantShort)
		}
	}
}
