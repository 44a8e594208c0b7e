package clpir_test

import (
	"iter"

	"github.com/clp-ir/clpir"
)

// testNode is a minimal, order-controlled clpir.RecordReader used to build
// exact test fixtures without going through recordpack's msgpack decode.
type testNode struct {
	kind clpir.Kind
	i    int64
	f    float64
	b    bool
	s    string
	keys []string
	vals []*testNode
	arr  []*testNode
}

var _ clpir.RecordReader = (*testNode)(nil)

func obj(pairs ...any) *testNode {
	n := &testNode{kind: clpir.KindMap}
	for i := 0; i+1 < len(pairs); i += 2 {
		n.keys = append(n.keys, pairs[i].(string))
		n.vals = append(n.vals, pairs[i+1].(*testNode))
	}
	return n
}

func arrNode(items ...*testNode) *testNode {
	return &testNode{kind: clpir.KindArray, arr: items}
}

func intNode(v int64) *testNode     { return &testNode{kind: clpir.KindInt, i: v} }
func floatNode(v float64) *testNode { return &testNode{kind: clpir.KindFloat, f: v} }
func boolNode(v bool) *testNode     { return &testNode{kind: clpir.KindBool, b: v} }
func strNode(v string) *testNode    { return &testNode{kind: clpir.KindStr, s: v} }
func nilNode() *testNode            { return &testNode{kind: clpir.KindNil} }

func (n *testNode) Kind() clpir.Kind { return n.kind }

func (n *testNode) AsInt() (int64, bool) {
	if n.kind != clpir.KindInt {
		return 0, false
	}
	return n.i, true
}

func (n *testNode) AsFloat() (float64, bool) {
	if n.kind != clpir.KindFloat {
		return 0, false
	}
	return n.f, true
}

func (n *testNode) AsBool() (bool, bool) {
	if n.kind != clpir.KindBool {
		return false, false
	}
	return n.b, true
}

func (n *testNode) AsStr() (string, bool) {
	if n.kind != clpir.KindStr {
		return "", false
	}
	return n.s, true
}

func (n *testNode) MapLen() int {
	if n.kind != clpir.KindMap {
		return 0
	}
	return len(n.keys)
}

func (n *testNode) MapPairs() iter.Seq2[string, clpir.RecordReader] {
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

func (n *testNode) ArrayLen() int {
	if n.kind != clpir.KindArray {
		return 0
	}
	return len(n.arr)
}

func (n *testNode) ArrayItems() iter.Seq[clpir.RecordReader] {
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
