// Package recordpack adapts decoded msgpack values to clpir.RecordReader,
// the abstract record model the serializer walks. Rather than unmarshaling
// into map[string]any — which loses key order, a property the serializer's
// schema growth depends on — it walks the msgpack wire form directly using
// the decoder's low-level Decode*Len/PeekCode API.
package recordpack

import (
	"bytes"
	"fmt"
	"io"
	"iter"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/clp-ir/clpir"
)

// node is an in-memory clpir.RecordReader built from a decoded msgpack
// value, preserving map member order as encountered on the wire.
type node struct {
	kind clpir.Kind
	i    int64
	f    float64
	b    bool
	s    string
	keys []string
	vals []*node
	arr  []*node
}

var _ clpir.RecordReader = (*node)(nil)

func (n *node) Kind() clpir.Kind { return n.kind }

func (n *node) AsInt() (int64, bool) {
	if n.kind != clpir.KindInt {
		return 0, false
	}
	return n.i, true
}

func (n *node) AsFloat() (float64, bool) {
	if n.kind != clpir.KindFloat {
		return 0, false
	}
	return n.f, true
}

func (n *node) AsBool() (bool, bool) {
	if n.kind != clpir.KindBool {
		return false, false
	}
	return n.b, true
}

func (n *node) AsStr() (string, bool) {
	if n.kind != clpir.KindStr {
		return "", false
	}
	return n.s, true
}

func (n *node) MapLen() int {
	if n.kind != clpir.KindMap {
		return 0
	}
	return len(n.keys)
}

func (n *node) MapPairs() iter.Seq2[string, clpir.RecordReader] {
	return func(yield func(string, clpir.RecordReader) bool) {
		if n.kind != clpir.KindMap {
			return
		}
		for i, k := range n.keys {
			if !yield(k, n.vals[i]) {
				return
			}
		}
	}
}

func (n *node) ArrayLen() int {
	if n.kind != clpir.KindArray {
		return 0
	}
	return len(n.arr)
}

func (n *node) ArrayItems() iter.Seq[clpir.RecordReader] {
	return func(yield func(clpir.RecordReader) bool) {
		if n.kind != clpir.KindArray {
			return
		}
		for _, item := range n.arr {
			if !yield(item) {
				return
			}
		}
	}
}

// FromMsgpackBytes decodes one msgpack-encoded value from data into a
// clpir.RecordReader.
func FromMsgpackBytes(data []byte) (clpir.RecordReader, error) {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(bytes.NewReader(data))
	return decodeNode(dec)
}

// FromMsgpackReader decodes one msgpack-encoded value read from r into a
// clpir.RecordReader.
func FromMsgpackReader(r io.Reader) (clpir.RecordReader, error) {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(r)
	return decodeNode(dec)
}

func decodeNode(dec *msgpack.Decoder) (*node, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, fmt.Errorf("recordpack: %w: %w", err, clpir.ErrDecodeError)
	}

	switch {
	case code == msgpcode.Nil:
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		return &node{kind: clpir.KindNil}, nil

	case code == msgpcode.True || code == msgpcode.False:
		b, err := dec.DecodeBool()
		if err != nil {
			return nil, err
		}
		return &node{kind: clpir.KindBool, b: b}, nil

	case code == msgpcode.Float || code == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return nil, err
		}
		return &node{kind: clpir.KindFloat, f: f}, nil

	case msgpcode.IsString(code) || msgpcode.IsBin(code):
		s, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return &node{kind: clpir.KindStr, s: s}, nil

	case msgpcode.IsFixedArray(code) || code == msgpcode.Array16 || code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		items := make([]*node, 0, n)
		for i := 0; i < n; i++ {
			child, err := decodeNode(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return &node{kind: clpir.KindArray, arr: items}, nil

	case msgpcode.IsFixedMap(code) || code == msgpcode.Map16 || code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, n)
		vals := make([]*node, 0, n)
		for i := 0; i < n; i++ {
			k, err := dec.DecodeString()
			if err != nil {
				return nil, err
			}
			v, err := decodeNode(dec)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		return &node{kind: clpir.KindMap, keys: keys, vals: vals}, nil

	default:
		// Everything left (fixnum, uint/int 8..64) is an integer per the
		// msgpack spec.
		i, err := dec.DecodeInt64()
		if err != nil {
			return nil, fmt.Errorf("recordpack: unrecognized msgpack code 0x%02x: %w", code, clpir.ErrDecodeError)
		}
		return &node{kind: clpir.KindInt, i: i}, nil
	}
}

// FromValue adapts an already-decoded Go value — as produced by a generic
// JSON or msgpack Unmarshal into `any` — to a clpir.RecordReader. Map key
// order is not preserved by Go's map type; callers that need order-stable
// schema growth should decode with FromMsgpackBytes/FromMsgpackReader
// instead.
func FromValue(v any) clpir.RecordReader {
	return fromValue(v)
}

func fromValue(v any) *node {
	switch x := v.(type) {
	case nil:
		return &node{kind: clpir.KindNil}
	case bool:
		return &node{kind: clpir.KindBool, b: x}
	case string:
		return &node{kind: clpir.KindStr, s: x}
	case int:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case int8:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case int16:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case int32:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case int64:
		return &node{kind: clpir.KindInt, i: x}
	case uint8:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case uint16:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case uint32:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case uint64:
		return &node{kind: clpir.KindInt, i: int64(x)}
	case float32:
		return &node{kind: clpir.KindFloat, f: float64(x)}
	case float64:
		return &node{kind: clpir.KindFloat, f: x}
	case []any:
		items := make([]*node, len(x))
		for i, e := range x {
			items[i] = fromValue(e)
		}
		return &node{kind: clpir.KindArray, arr: items}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		vals := make([]*node, len(keys))
		for i, k := range keys {
			vals[i] = fromValue(x[k])
		}
		return &node{kind: clpir.KindMap, keys: keys, vals: vals}
	default:
		return &node{kind: clpir.KindOther}
	}
}
