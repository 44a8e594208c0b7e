// Package clpstring implements a default, self-contained CLP-string codec:
// the logtype/dictionary-variable/encoded-variable factoring that the core
// protocol treats as opaque. It is one concrete implementation of
// clpir.ClpStringCodec, not the only possible one.
//
// A text is split into a "logtype" skeleton — the original text with each
// tokenized variable replaced by a single placeholder byte — plus the
// extracted tokens: integers fitting the target variable width become
// encoded vars carried inline in the wire payload, everything else becomes
// a dictionary var string. This mirrors the scheme used by CLP proper,
// simplified to the two variable kinds this IR's Value model carries
// (int64 encoded vars, string dict vars; no distinct float-var kind).
package clpstring

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/clp-ir/clpir"
)

const (
	dictVarPlaceholder byte = 0x11
	intVarPlaceholder  byte = 0x12
	escapeByte         byte = 0x5c
)

// Codec is a clpir.ClpStringCodec. The zero value is ready to use; a
// *Codec interns dictionary-variable tokens across calls to reduce
// allocations on repeated strings, keyed by their xxhash64 digest.
type Codec struct {
	intern map[uint64]string
}

// New returns a ready-to-use Codec.
func New() *Codec {
	return &Codec{intern: make(map[uint64]string)}
}

var _ clpir.ClpStringCodec = (*Codec)(nil)

// SerializeFourByte implements clpir.ClpStringCodec, encoding vars that fit
// an int32 as encoded vars.
func (c *Codec) SerializeFourByte(text string, buf *[]byte) error {
	return c.serialize(text, buf, false)
}

// SerializeEightByte implements clpir.ClpStringCodec, encoding vars that
// fit an int64 as encoded vars.
func (c *Codec) SerializeEightByte(text string, buf *[]byte) error {
	return c.serialize(text, buf, true)
}

func (c *Codec) serialize(text string, buf *[]byte, eightByte bool) error {
	logtype, encodedVars, dictVars := c.encode(text, eightByte)

	out := *buf
	out = appendLenPrefixed(out, logtype)

	out = binary.BigEndian.AppendUint32(out, uint32(len(encodedVars)))
	width := 4
	if eightByte {
		width = 8
	}
	for _, v := range encodedVars {
		out = appendVarWidth(out, v, width)
	}

	out = binary.BigEndian.AppendUint32(out, uint32(len(dictVars)))
	for _, s := range dictVars {
		out = appendLenPrefixed(out, s)
	}

	*buf = out
	return nil
}

// DeserializeFourByte implements clpir.ClpStringCodec.
func (c *Codec) DeserializeFourByte(r io.Reader) (string, []int64, []string, error) {
	return deserialize(r, 4)
}

// DeserializeEightByte implements clpir.ClpStringCodec.
func (c *Codec) DeserializeEightByte(r io.Reader) (string, []int64, []string, error) {
	return deserialize(r, 8)
}

// DecodeParts implements clpir.ClpStringCodec, reassembling text from a
// (logtype, encoded_vars, dict_vars) triple produced by either this codec
// or a wire-compatible one.
func (c *Codec) DecodeParts(logtype string, encodedVars []int64, dictVars []string) (string, error) {
	var out strings.Builder
	out.Grow(len(logtype))

	ei, di := 0, 0
	escaped := false
	for i := 0; i < len(logtype); i++ {
		b := logtype[i]
		if escaped {
			out.WriteByte(b)
			escaped = false
			continue
		}
		switch b {
		case escapeByte:
			escaped = true
		case intVarPlaceholder:
			if ei >= len(encodedVars) {
				return "", fmt.Errorf("clpstring: logtype references more int vars than provided: %w", clpir.ErrDecodeError)
			}
			out.WriteString(strconv.FormatInt(encodedVars[ei], 10))
			ei++
		case dictVarPlaceholder:
			if di >= len(dictVars) {
				return "", fmt.Errorf("clpstring: logtype references more dict vars than provided: %w", clpir.ErrDecodeError)
			}
			out.WriteString(dictVars[di])
			di++
		default:
			out.WriteByte(b)
		}
	}
	if escaped {
		return "", fmt.Errorf("clpstring: logtype ends mid-escape: %w", clpir.ErrDecodeError)
	}
	if ei != len(encodedVars) || di != len(dictVars) {
		return "", fmt.Errorf("clpstring: logtype does not reference all supplied vars: %w", clpir.ErrDecodeError)
	}
	return out.String(), nil
}

// encode splits text into a logtype skeleton plus its extracted vars.
// Tokens are maximal runs of non-space bytes; everything else (spaces) is
// copied into the logtype literally.
func (c *Codec) encode(text string, eightByte bool) (logtype string, encodedVars []int64, dictVars []string) {
	var out strings.Builder
	out.Grow(len(text))

	i := 0
	for i < len(text) {
		if text[i] == ' ' {
			out.WriteByte(' ')
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] != ' ' {
			j++
		}
		token := text[i:j]
		i = j

		if v, ok := parseIntVar(token, eightByte); ok {
			out.WriteByte(intVarPlaceholder)
			encodedVars = append(encodedVars, v)
			continue
		}
		out.WriteByte(dictVarPlaceholder)
		dictVars = append(dictVars, c.internToken(token))
	}
	return out.String(), encodedVars, dictVars
}

// internToken returns a canonical string for token, reusing a prior
// allocation with the same xxhash64 digest and byte content when one
// exists in this codec instance.
func (c *Codec) internToken(token string) string {
	h := xxhash.Sum64String(token)
	if s, ok := c.intern[h]; ok && s == token {
		return s
	}
	if c.intern == nil {
		c.intern = make(map[uint64]string)
	}
	s := strings.Clone(token)
	c.intern[h] = s
	return s
}

// parseIntVar reports whether token is a bare base-10 signed integer that
// fits the target variable width; tokens with leading zeros (other than
// "0" itself) are rejected so the decoded text matches byte-for-byte.
func parseIntVar(token string, eightByte bool) (int64, bool) {
	if token == "" {
		return 0, false
	}
	rest := token
	if rest[0] == '-' {
		rest = rest[1:]
	}
	if rest == "" {
		return 0, false
	}
	if rest[0] == '0' && rest != "0" {
		return 0, false
	}
	if rest == "0" && token != "0" {
		// "-0" would decode as "0".
		return 0, false
	}
	for k := 0; k < len(rest); k++ {
		if rest[k] < '0' || rest[k] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, false
	}
	if !eightByte && (v < math.MinInt32 || v > math.MaxInt32) {
		return 0, false
	}
	return v, true
}

func appendLenPrefixed(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func appendVarWidth(buf []byte, v int64, width int) []byte {
	if width == 4 {
		return binary.BigEndian.AppendUint32(buf, uint32(int32(v)))
	}
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

func readLenPrefixed(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", mapReadErr(err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", mapReadErr(err)
	}
	return string(data), nil
}

func deserialize(r io.Reader, width int) (string, []int64, []string, error) {
	logtype, err := readLenPrefixed(r)
	if err != nil {
		return "", nil, nil, err
	}

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return "", nil, nil, mapReadErr(err)
	}
	numEncoded := binary.BigEndian.Uint32(countBuf[:])
	encodedVars := make([]int64, numEncoded)
	for i := range encodedVars {
		varBuf := make([]byte, width)
		if _, err := io.ReadFull(r, varBuf); err != nil {
			return "", nil, nil, mapReadErr(err)
		}
		if width == 4 {
			encodedVars[i] = int64(int32(binary.BigEndian.Uint32(varBuf)))
		} else {
			encodedVars[i] = int64(binary.BigEndian.Uint64(varBuf))
		}
	}

	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return "", nil, nil, mapReadErr(err)
	}
	numDict := binary.BigEndian.Uint32(countBuf[:])
	dictVars := make([]string, numDict)
	for i := range dictVars {
		s, err := readLenPrefixed(r)
		if err != nil {
			return "", nil, nil, err
		}
		dictVars[i] = s
	}

	return logtype, encodedVars, dictVars, nil
}

func mapReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return clpir.ErrIncompleteStream
	}
	return err
}
