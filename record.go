package clpir

import "iter"

// Kind discriminates the shape of a record node as seen by the serializer.
type Kind int8

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindStr
	KindNil
	KindArray
	KindMap
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindStr:
		return "Str"
	case KindNil:
		return "Nil"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	default:
		return "Other"
	}
}

// nodeType maps a record Kind to its schema-tree node type. Kind values
// with no corresponding node type (KindOther) return false.
func (k Kind) nodeType() (NodeType, bool) {
	switch k {
	case KindInt:
		return NodeTypeInt, true
	case KindFloat:
		return NodeTypeFloat, true
	case KindStr:
		return NodeTypeStr, true
	case KindBool:
		return NodeTypeBool, true
	case KindNil, KindMap:
		return NodeTypeObj, true
	case KindArray:
		return NodeTypeArray, true
	default:
		return 0, false
	}
}

// RecordReader is the abstract in-memory record the serializer consumes.
// It is implemented by the recordpack package's msgpack-backed
// adapter, and may be implemented by anything else that can discriminate
// its own kind and walk its own children without requiring random access.
type RecordReader interface {
	// Kind reports the node's shape.
	Kind() Kind

	// AsInt returns the node's value as an int64, if Kind() == KindInt.
	AsInt() (int64, bool)

	// AsFloat returns the node's value as a float64, if Kind() == KindFloat.
	AsFloat() (float64, bool)

	// AsBool returns the node's value as a bool, if Kind() == KindBool.
	AsBool() (bool, bool)

	// AsStr returns the node's value as a string, if Kind() == KindStr.
	AsStr() (string, bool)

	// MapLen returns the number of members, if Kind() == KindMap.
	MapLen() int

	// MapPairs iterates the node's members in their original order, if
	// Kind() == KindMap.
	MapPairs() iter.Seq2[string, RecordReader]

	// ArrayLen returns the number of elements, if Kind() == KindArray.
	ArrayLen() int

	// ArrayItems iterates the node's elements in order, if
	// Kind() == KindArray.
	ArrayItems() iter.Seq[RecordReader]
}
