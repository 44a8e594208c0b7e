package clpir

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"
)

// ErrRootNotObject is returned by SerializeRecord when the record's root
// node is not a map.
var ErrRootNotObject = errors.New("clpir: record root is not an object")

// traversalFrame is one level of the serializer's explicit DFS stack: a
// pull-style iterator over one map's members, plus the schema-tree
// id of that map's own node (the parent id new children are inserted
// under).
type traversalFrame struct {
	next     func() (string, RecordReader, bool)
	stop     func()
	parentID int
}

// SerializeRecord appends a complete record frame to buf.Out and returns
// true on success. On failure, it reverts any schema-tree mutations made
// while processing this record and leaves buf.Out unchanged, returning
// false and an error.
func (buf *SerializationBuffer) SerializeRecord(r RecordReader) (bool, error) {
	if r.Kind() != KindMap {
		return false, ErrRootNotObject
	}
	if r.MapLen() == 0 {
		buf.Out = appendTag(buf.Out, TagValueEmpty)
		return true, nil
	}

	buf.Tree.TakeSnapshot()
	buf.NodesScratch = buf.NodesScratch[:0]
	buf.KeysScratch = buf.KeysScratch[:0]
	buf.ValuesScratch = buf.ValuesScratch[:0]

	next0, stop0 := iter.Pull2(r.MapPairs())
	stack := []traversalFrame{{next: next0, stop: stop0, parentID: RootID}}

	var failErr error
traversal:
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		key, val, ok := top.next()
		if !ok {
			top.stop()
			stack = stack[:len(stack)-1]
			continue
		}

		kind := val.Kind()
		nt, known := kind.nodeType()
		if !known {
			failErr = fmt.Errorf("clpir: record value of kind %v has no schema representation: %w", kind, ErrDecodeError)
			break traversal
		}

		id, exists := buf.Tree.Has(top.parentID, key, nt)
		if !exists {
			var err error
			id, err = buf.Tree.Insert(top.parentID, key, nt)
			if err != nil {
				failErr = err
				break traversal
			}
			buf.NodesScratch, err = appendSchemaNodeDelta(buf.NodesScratch, top.parentID, key, nt)
			if err != nil {
				failErr = err
				break traversal
			}
		}

		if nt == NodeTypeObj {
			switch kind {
			case KindMap:
				if val.MapLen() > 0 {
					childNext, childStop := iter.Pull2(val.MapPairs())
					stack = append(stack, traversalFrame{next: childNext, stop: childStop, parentID: id})
					continue traversal
				}
				if err := buf.appendLeaf(id, func(vb []byte) ([]byte, error) {
					return appendTag(vb, TagValueEmpty), nil
				}); err != nil {
					failErr = err
					break traversal
				}
			case KindNil:
				if err := buf.appendLeaf(id, func(vb []byte) ([]byte, error) {
					return appendTag(vb, TagValueNull), nil
				}); err != nil {
					failErr = err
					break traversal
				}
			default:
				failErr = fmt.Errorf("clpir: schema type Obj with unexpected record kind %v: %w", kind, ErrDecodeError)
				break traversal
			}
			continue traversal
		}

		if err := buf.appendLeaf(id, func(vb []byte) ([]byte, error) {
			return buf.appendValue(vb, val, nt)
		}); err != nil {
			failErr = err
			break traversal
		}
	}

	if failErr != nil {
		for _, fr := range stack {
			fr.stop()
		}
		if err := buf.Tree.Revert(); err != nil {
			return false, errors.Join(failErr, err)
		}
		return false, failErr
	}

	buf.Out = append(buf.Out, buf.NodesScratch...)
	buf.Out = append(buf.Out, buf.KeysScratch...)
	buf.Out = append(buf.Out, buf.ValuesScratch...)
	return true, nil
}

// appendLeaf appends a key id for id to KeysScratch, then calls appendVal
// to append the corresponding value to ValuesScratch.
func (buf *SerializationBuffer) appendLeaf(id int, appendVal func([]byte) ([]byte, error)) error {
	keys, err := appendKeyID(buf.KeysScratch, id)
	if err != nil {
		return err
	}
	buf.KeysScratch = keys
	vals, err := appendVal(buf.ValuesScratch)
	if err != nil {
		return err
	}
	buf.ValuesScratch = vals
	return nil
}

// appendSchemaNodeDelta appends the wire form of a newly discovered schema
// node: type tag, tagged parent id, then the key name as a
// standard string.
func appendSchemaNodeDelta(buf []byte, parentID int, keyName string, typ NodeType) ([]byte, error) {
	tag, ok := typ.schemaNodeTag()
	if !ok {
		return buf, fmt.Errorf("clpir: node type %v has no wire tag: %w", typ, ErrDecodeError)
	}
	buf = appendTag(buf, tag)
	switch {
	case parentID <= math.MaxUint8:
		buf = appendTag(buf, TagSchemaNodeParentIdByte)
		buf = appendBigEndian(buf, uint64(parentID), 1)
	case parentID <= math.MaxUint16:
		buf = appendTag(buf, TagSchemaNodeParentIdShort)
		buf = appendBigEndian(buf, uint64(parentID), 2)
	default:
		return buf, ErrValueOutOfRange
	}
	return AppendStandardString(buf, keyName)
}

// appendKeyID appends the wire form of a key id, choosing the
// narrowest tag that fits.
func appendKeyID(buf []byte, id int) ([]byte, error) {
	switch {
	case id <= math.MaxUint8:
		buf = appendTag(buf, TagKeyIdByte)
		return appendBigEndian(buf, uint64(id), 1), nil
	case id <= math.MaxUint16:
		buf = appendTag(buf, TagKeyIdShort)
		return appendBigEndian(buf, uint64(id), 2), nil
	default:
		return buf, ErrValueOutOfRange
	}
}

// appendValue appends the wire form of a leaf value, dispatching
// on the schema-tree node type.
func (buf *SerializationBuffer) appendValue(vb []byte, val RecordReader, typ NodeType) ([]byte, error) {
	switch typ {
	case NodeTypeInt:
		v, ok := val.AsInt()
		if !ok {
			return vb, fmt.Errorf("clpir: Int-typed value did not yield an int64: %w", ErrValueOutOfRange)
		}
		return appendIntValue(vb, v), nil
	case NodeTypeFloat:
		v, ok := val.AsFloat()
		if !ok {
			return vb, fmt.Errorf("clpir: Float-typed value did not yield a float64: %w", ErrDecodeError)
		}
		vb = appendTag(vb, TagValueDouble)
		return appendBigEndian(vb, math.Float64bits(v), 8), nil
	case NodeTypeBool:
		v, ok := val.AsBool()
		if !ok {
			return vb, fmt.Errorf("clpir: Bool-typed value did not yield a bool: %w", ErrDecodeError)
		}
		if v {
			return appendTag(vb, TagValueTrue), nil
		}
		return appendTag(vb, TagValueFalse), nil
	case NodeTypeStr:
		s, ok := val.AsStr()
		if !ok {
			return vb, fmt.Errorf("clpir: Str-typed value did not yield a string: %w", ErrDecodeError)
		}
		return buf.appendStrValue(vb, s)
	case NodeTypeArray:
		text, err := Render(val)
		if err != nil {
			return vb, err
		}
		return buf.appendClpStr(vb, text)
	default:
		return vb, fmt.Errorf("clpir: node type %v has no value encoding: %w", typ, ErrDecodeError)
	}
}

// appendIntValue appends the narrowest signed-integer tag and payload that
// fits v, subject to EnableShortIntCompression.
func appendIntValue(buf []byte, v int64) []byte {
	if EnableShortIntCompression && math.MinInt8 <= v && v <= math.MaxInt8 {
		buf = appendTag(buf, TagValueInt8)
		return appendBigEndian(buf, uint64(uint8(int8(v))), 1)
	}
	if EnableShortIntCompression && math.MinInt16 <= v && v <= math.MaxInt16 {
		buf = appendTag(buf, TagValueInt16)
		return appendBigEndian(buf, uint64(uint16(int16(v))), 2)
	}
	if math.MinInt32 <= v && v <= math.MaxInt32 {
		buf = appendTag(buf, TagValueInt32)
		return appendBigEndian(buf, uint64(uint32(int32(v))), 4)
	}
	buf = appendTag(buf, TagValueInt64)
	return appendBigEndian(buf, uint64(v), 8)
}

// appendStrValue encodes strings containing a space as CLP strings and
// everything else as a standard string. Space-bearing strings are likely
// tokenizable log lines, which factor well into a logtype plus variables.
func (buf *SerializationBuffer) appendStrValue(vb []byte, s string) ([]byte, error) {
	if strings.IndexByte(s, ' ') < 0 {
		return AppendStandardString(vb, s)
	}
	return buf.appendClpStr(vb, s)
}

// appendClpStr appends the TagValueStrCLPFourByte tag followed by the
// codec's opaque serialization of text.
func (buf *SerializationBuffer) appendClpStr(vb []byte, text string) ([]byte, error) {
	if buf.Codec == nil {
		return vb, fmt.Errorf("clpir: serializing a CLP string requires a codec")
	}
	vb = appendTag(vb, TagValueStrCLPFourByte)
	if err := buf.Codec.SerializeFourByte(text, &vb); err != nil {
		return vb, err
	}
	return vb, nil
}
