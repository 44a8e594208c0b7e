package clpir

import (
	"io"
	"math"
)

// DeserializeNextRecord reads one record frame from r, applying any schema
// node deltas it contains to tree, and writing the record's flat leaf-id
// list and decoded values into *schema and *values (both cleared on
// entry). The frame layout is fixed: zero or more schema-node deltas, then
// the key ids, then exactly one value per key id.
//
// It returns nil on a complete record, [ErrEndOfStream] when the
// end-of-stream tag is read before any per-record content, and one of
// [ErrIncompleteStream], [ErrCorruptedStream], [ErrDecodeError], or
// [ErrUnknownTag] otherwise. codec decodes CLP-string value payloads; it
// must not be nil if the stream may contain CLP strings.
func DeserializeNextRecord(r io.Reader, tree *SchemaTree, codec ClpStringCodec, schema *[]int, values *[]*Value) error {
	*schema = (*schema)[:0]
	*values = (*values)[:0]

	tag, err := readTag(r)
	if err != nil {
		return err
	}

	// Schema-node deltas.
	for isNewSchemaTreeNodeTag(tag) {
		if err := deserializeSchemaNodeDelta(r, tag, tree); err != nil {
			return err
		}
		tag, err = readRecordTag(r)
		if err != nil {
			return err
		}
	}

	// Key ids.
	for tag == TagKeyIdByte || tag == TagKeyIdShort {
		width := 1
		if tag == TagKeyIdShort {
			width = 2
		}
		id, err := readBigEndian(r, width)
		if err != nil {
			return err
		}
		*schema = append(*schema, int(id))
		tag, err = readRecordTag(r)
		if err != nil {
			return err
		}
	}

	numLeaves := len(*schema)
	if numLeaves == 0 {
		switch {
		case tag == TagValueEmpty:
			// The canonical empty record: a lone Empty-value byte.
			return nil
		case isValueTag(tag):
			return ErrCorruptedStream
		default:
			return ErrUnknownTag
		}
	}

	// Values, exactly one per key id.
	for {
		v, err := decodeValue(r, tag, codec)
		if err != nil {
			return err
		}
		*values = append(*values, v)
		if len(*values) == numLeaves {
			return nil
		}
		tag, err = readRecordTag(r)
		if err != nil {
			return err
		}
	}
}

// readRecordTag reads a tag in the middle of a record frame, where the
// end-of-stream byte is a framing violation rather than a clean end.
func readRecordTag(r io.Reader) (Tag, error) {
	tag, err := readTag(r)
	if err == ErrEndOfStream {
		return tag, ErrCorruptedStream
	}
	return tag, err
}

// isValueTag reports whether tag begins a leaf-value encoding.
func isValueTag(tag Tag) bool {
	switch tag {
	case TagValueInt8, TagValueInt16, TagValueInt32, TagValueInt64,
		TagValueDouble, TagValueTrue, TagValueFalse,
		TagValueStrCLPFourByte, TagValueStrCLPEightByte,
		TagValueEmpty, TagValueNull,
		TagStandardStrLenByte, TagStandardStrLenShort, TagStandardStrLenInt:
		return true
	}
	return false
}

// deserializeSchemaNodeDelta decodes and applies one schema-node delta —
// tagged parent id, then key name — given that its type tag has already
// been read.
func deserializeSchemaNodeDelta(r io.Reader, typeTag Tag, tree *SchemaTree) error {
	typ, ok := nodeTypeFromSchemaNodeTag(typeTag)
	if !ok {
		return ErrUnknownTag
	}

	parentTag, err := readTag(r)
	if err != nil {
		return err
	}
	var width int
	switch parentTag {
	case TagSchemaNodeParentIdByte:
		width = 1
	case TagSchemaNodeParentIdShort:
		width = 2
	default:
		return ErrUnknownTag
	}
	parentID, err := readBigEndian(r, width)
	if err != nil {
		return err
	}

	nameTag, err := readTag(r)
	if err != nil {
		return err
	}
	keyName, err := ReadStandardString(r, nameTag)
	if err != nil {
		return err
	}

	if _, exists := tree.Has(int(parentID), keyName, typ); exists {
		return ErrCorruptedStream
	}
	if _, err := tree.Insert(int(parentID), keyName, typ); err != nil {
		if err == ErrInvalidParent {
			return ErrCorruptedStream
		}
		return err
	}
	return nil
}

// decodeValue decodes one leaf value, given that its tag has already been
// read.
func decodeValue(r io.Reader, tag Tag, codec ClpStringCodec) (*Value, error) {
	switch tag {
	case TagValueInt8:
		raw, err := readBigEndian(r, 1)
		if err != nil {
			return nil, err
		}
		return NewIntValue(int64(int8(uint8(raw)))), nil
	case TagValueInt16:
		raw, err := readBigEndian(r, 2)
		if err != nil {
			return nil, err
		}
		return NewIntValue(int64(int16(uint16(raw)))), nil
	case TagValueInt32:
		raw, err := readBigEndian(r, 4)
		if err != nil {
			return nil, err
		}
		return NewIntValue(int64(int32(uint32(raw)))), nil
	case TagValueInt64:
		raw, err := readBigEndian(r, 8)
		if err != nil {
			return nil, err
		}
		return NewIntValue(int64(raw)), nil
	case TagValueDouble:
		raw, err := readBigEndian(r, 8)
		if err != nil {
			return nil, err
		}
		return NewFloatValue(math.Float64frombits(raw)), nil
	case TagValueTrue:
		return NewBoolValue(true), nil
	case TagValueFalse:
		return NewBoolValue(false), nil
	case TagStandardStrLenByte, TagStandardStrLenShort, TagStandardStrLenInt:
		s, err := ReadStandardString(r, tag)
		if err != nil {
			return nil, err
		}
		return NewStrValue(s), nil
	case TagValueStrCLPFourByte:
		if codec == nil {
			return nil, ErrNotImplemented
		}
		logtype, encodedVars, dictVars, err := codec.DeserializeFourByte(r)
		if err != nil {
			return nil, err
		}
		return newClpStrValue(false, logtype, encodedVars, dictVars), nil
	case TagValueStrCLPEightByte:
		if codec == nil {
			return nil, ErrNotImplemented
		}
		logtype, encodedVars, dictVars, err := codec.DeserializeEightByte(r)
		if err != nil {
			return nil, err
		}
		return newClpStrValue(true, logtype, encodedVars, dictVars), nil
	case TagValueEmpty:
		return NewEmptyValue(), nil
	case TagValueNull:
		return NewNullValue(), nil
	default:
		return nil, ErrUnknownTag
	}
}
