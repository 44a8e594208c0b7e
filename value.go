package clpir

import "fmt"

// NodeType is the type half of a schema-tree locator, and also the variant
// discriminator for schema-node deltas on the wire.
type NodeType int8

const (
	NodeTypeInt NodeType = iota
	NodeTypeFloat
	NodeTypeBool
	NodeTypeStr
	NodeTypeArray
	NodeTypeObj
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeInt:
		return "Int"
	case NodeTypeFloat:
		return "Float"
	case NodeTypeBool:
		return "Bool"
	case NodeTypeStr:
		return "Str"
	case NodeTypeArray:
		return "Array"
	case NodeTypeObj:
		return "Obj"
	default:
		return fmt.Sprintf("NodeType(%d)", int8(t))
	}
}

func (t NodeType) schemaNodeTag() (Tag, bool) {
	switch t {
	case NodeTypeInt:
		return TagSchemaNodeInt, true
	case NodeTypeFloat:
		return TagSchemaNodeFloat, true
	case NodeTypeBool:
		return TagSchemaNodeBool, true
	case NodeTypeStr:
		return TagSchemaNodeStr, true
	case NodeTypeArray:
		return TagSchemaNodeArray, true
	case NodeTypeObj:
		return TagSchemaNodeObj, true
	default:
		return 0, false
	}
}

func nodeTypeFromSchemaNodeTag(tag Tag) (NodeType, bool) {
	switch tag {
	case TagSchemaNodeInt:
		return NodeTypeInt, true
	case TagSchemaNodeFloat:
		return NodeTypeFloat, true
	case TagSchemaNodeBool:
		return NodeTypeBool, true
	case TagSchemaNodeStr:
		return NodeTypeStr, true
	case TagSchemaNodeArray:
		return NodeTypeArray, true
	case TagSchemaNodeObj:
		return NodeTypeObj, true
	default:
		return 0, false
	}
}

// ValueKind discriminates the variants of [Value].
type ValueKind int8

const (
	ValueKindNull ValueKind = iota
	ValueKindInt
	ValueKindFloat
	ValueKindBool
	ValueKindStr
	ValueKindClpStr4
	ValueKindClpStr8
	ValueKindEmpty
)

// clpStrParts holds the decomposed form of a CLP-encoded string: a logtype
// skeleton with placeholder bytes, the numeric tokens extracted as encoded
// variables, and the non-numeric tokens extracted as dictionary variables.
// The exact placeholder scheme and dictionary format are owned by whatever
// [ClpStringCodec] produced them; clpir treats the three fields as opaque
// payload it stores and hands back.
type clpStrParts struct {
	logtype     string
	encodedVars []int64
	dictVars    []string
}

// Value is a tagged sum of the leaf variants a record can hold:
// Null, Int, Float, Bool, Str, a CLP-encoded string (4- or 8-byte variable
// width), or Empty ("this key existed and referenced an empty object").
//
// Value is a plain struct, not a boxed interface, so that deserializing a
// record's leaves doesn't allocate one interface value per leaf.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	b    bool
	s    string
	clp  clpStrParts
}

// NewNullValue returns the Null variant.
func NewNullValue() *Value { return &Value{kind: ValueKindNull} }

// NewEmptyValue returns the Empty variant, denoting a key that referenced
// an object with zero members.
func NewEmptyValue() *Value { return &Value{kind: ValueKindEmpty} }

// NewIntValue returns the Int variant.
func NewIntValue(v int64) *Value { return &Value{kind: ValueKindInt, i: v} }

// NewFloatValue returns the Float variant.
func NewFloatValue(v float64) *Value { return &Value{kind: ValueKindFloat, f: v} }

// NewBoolValue returns the Bool variant.
func NewBoolValue(v bool) *Value { return &Value{kind: ValueKindBool, b: v} }

// NewStrValue returns the standard (non-CLP) Str variant.
func NewStrValue(v string) *Value { return &Value{kind: ValueKindStr, s: v} }

// newClpStrValue returns a ClpStr4 or ClpStr8 variant, used internally by
// the deserializer once it has decoded the opaque CLP-string payload.
func newClpStrValue(eight bool, logtype string, encodedVars []int64, dictVars []string) *Value {
	kind := ValueKindClpStr4
	if eight {
		kind = ValueKindClpStr8
	}
	return &Value{kind: kind, clp: clpStrParts{logtype: logtype, encodedVars: encodedVars, dictVars: dictVars}}
}

// Kind reports the value's variant.
func (v *Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is the Null variant.
func (v *Value) IsNull() bool { return v != nil && v.kind == ValueKindNull }

// IsEmpty reports whether v is the Empty variant.
func (v *Value) IsEmpty() bool { return v != nil && v.kind == ValueKindEmpty }

// IsClpStr reports whether v is either CLP-string variant.
func (v *Value) IsClpStr() bool {
	return v != nil && (v.kind == ValueKindClpStr4 || v.kind == ValueKindClpStr8)
}

// Int returns the Int payload, or [ErrInvalidTypeConvert] if v is not Int.
func (v *Value) Int() (int64, error) {
	if v.kind != ValueKindInt {
		return 0, ErrInvalidTypeConvert
	}
	return v.i, nil
}

// Float returns the Float payload, or [ErrInvalidTypeConvert] if v is not
// Float.
func (v *Value) Float() (float64, error) {
	if v.kind != ValueKindFloat {
		return 0, ErrInvalidTypeConvert
	}
	return v.f, nil
}

// Bool returns the Bool payload, or [ErrInvalidTypeConvert] if v is not
// Bool.
func (v *Value) Bool() (bool, error) {
	if v.kind != ValueKindBool {
		return false, ErrInvalidTypeConvert
	}
	return v.b, nil
}

// Str returns the standard-string payload, or [ErrInvalidTypeConvert] if v
// is not the Str variant.
func (v *Value) Str() (string, error) {
	if v.kind != ValueKindStr {
		return "", ErrInvalidTypeConvert
	}
	return v.s, nil
}

// ClpStrParts returns the decomposed CLP-string payload, or
// [ErrInvalidTypeConvert] if v is not a CLP-string variant.
func (v *Value) ClpStrParts() (logtype string, encodedVars []int64, dictVars []string, err error) {
	if !v.IsClpStr() {
		return "", nil, nil, ErrInvalidTypeConvert
	}
	return v.clp.logtype, v.clp.encodedVars, v.clp.dictVars, nil
}

// Dump renders v as a JSON-compatible text: numbers via
// shortest-roundtrip formatting, booleans as true/false, strings quoted and
// escaped, CLP strings decoded through codec first. codec may be nil if v
// is known not to be a CLP-string variant.
func (v *Value) Dump(codec ClpStringCodec) (string, error) {
	switch v.kind {
	case ValueKindNull:
		return "null", nil
	case ValueKindEmpty:
		return "{}", nil
	case ValueKindInt:
		return dumpInt(v.i), nil
	case ValueKindFloat:
		return dumpFloat(v.f), nil
	case ValueKindBool:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case ValueKindStr:
		return quoteJSONString(v.s)
	case ValueKindClpStr4, ValueKindClpStr8:
		if codec == nil {
			return "", fmt.Errorf("clpir: dumping a CLP string requires a codec: %w", ErrDecodeError)
		}
		text, err := codec.DecodeParts(v.clp.logtype, v.clp.encodedVars, v.clp.dictVars)
		if err != nil {
			return "", fmt.Errorf("clpir: decoding CLP string: %w", err)
		}
		return quoteJSONString(text)
	default:
		return "", fmt.Errorf("clpir: unknown value kind %d", v.kind)
	}
}
