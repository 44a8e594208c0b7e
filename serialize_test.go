package clpir_test

import (
	"bytes"
	"testing"

	"github.com/clp-ir/clpir"
	"github.com/clp-ir/clpir/clpstring"
)

// TestSerializeEmptyRecord checks that an empty root object
// serializes to the single Empty-value tag byte, with no schema-tree
// growth and no key-id/value sections.
func TestSerializeEmptyRecord(t *testing.T) {
	buf := clpir.NewSerializationBuffer(clpstring.New())
	ok, err := buf.SerializeRecord(obj())
	if err != nil || !ok {
		t.Fatalf("SerializeRecord(empty) = (%v, %v), want (true, nil)", ok, err)
	}
	want := []byte{byte(clpir.TagValueEmpty)}
	if !bytes.Equal(buf.Out, want) {
		t.Fatalf("Out = % x, want % x", buf.Out, want)
	}
	if buf.Tree.Size() != 1 {
		t.Fatalf("Tree.Size() = %d, want 1 (root only)", buf.Tree.Size())
	}
}

// TestSerializeFlatPrimitiveRecord checks that a flat record
// with one int leaf produces exactly
// [schema-node-delta][key-id][value] with no extraneous bytes.
func TestSerializeFlatPrimitiveRecord(t *testing.T) {
	buf := clpir.NewSerializationBuffer(clpstring.New())
	ok, err := buf.SerializeRecord(obj("a", intNode(5)))
	if err != nil || !ok {
		t.Fatalf("SerializeRecord = (%v, %v), want (true, nil)", ok, err)
	}

	want := []byte{
		byte(clpir.TagSchemaNodeInt),
		byte(clpir.TagSchemaNodeParentIdByte), 0x00,
		byte(clpir.TagStandardStrLenByte), 0x01, 'a',
		byte(clpir.TagKeyIdByte), 0x01,
		byte(clpir.TagValueInt32), 0x00, 0x00, 0x00, 0x05,
	}
	if !bytes.Equal(buf.Out, want) {
		t.Fatalf("Out =\n% x\nwant\n% x", buf.Out, want)
	}
}

// TestSerializeFourFieldRecordExactBytes pins down the full frame byte
// layout for a record with one leaf of each flat primitive shape,
// including the big-endian integer payload.
func TestSerializeFourFieldRecordExactBytes(t *testing.T) {
	buf := clpir.NewSerializationBuffer(clpstring.New())
	rec := obj("a", intNode(1), "b", strNode("hi"), "c", boolNode(true), "d", nilNode())
	ok, err := buf.SerializeRecord(rec)
	if err != nil || !ok {
		t.Fatalf("SerializeRecord = (%v, %v)", ok, err)
	}

	want := []byte{
		// nodes
		byte(clpir.TagSchemaNodeInt), byte(clpir.TagSchemaNodeParentIdByte), 0x00,
		byte(clpir.TagStandardStrLenByte), 0x01, 'a',
		byte(clpir.TagSchemaNodeStr), byte(clpir.TagSchemaNodeParentIdByte), 0x00,
		byte(clpir.TagStandardStrLenByte), 0x01, 'b',
		byte(clpir.TagSchemaNodeBool), byte(clpir.TagSchemaNodeParentIdByte), 0x00,
		byte(clpir.TagStandardStrLenByte), 0x01, 'c',
		byte(clpir.TagSchemaNodeObj), byte(clpir.TagSchemaNodeParentIdByte), 0x00,
		byte(clpir.TagStandardStrLenByte), 0x01, 'd',
		// keys
		byte(clpir.TagKeyIdByte), 0x01,
		byte(clpir.TagKeyIdByte), 0x02,
		byte(clpir.TagKeyIdByte), 0x03,
		byte(clpir.TagKeyIdByte), 0x04,
		// values
		byte(clpir.TagValueInt32), 0x00, 0x00, 0x00, 0x01,
		byte(clpir.TagStandardStrLenByte), 0x02, 'h', 'i',
		byte(clpir.TagValueTrue),
		byte(clpir.TagValueNull),
	}
	if !bytes.Equal(buf.Out, want) {
		t.Fatalf("Out =\n% x\nwant\n% x", buf.Out, want)
	}
}

// TestSerializeSameRecordTwice checks that re-serializing an identical
// record emits no schema-node deltas the second time and byte-identical
// key-id/value sections.
func TestSerializeSameRecordTwice(t *testing.T) {
	buf := clpir.NewSerializationBuffer(clpstring.New())
	rec := obj("x", obj("y", intNode(7)))

	ok, err := buf.SerializeRecord(rec)
	if err != nil || !ok {
		t.Fatalf("record 1: SerializeRecord = (%v, %v)", ok, err)
	}
	out1 := buf.Flush()

	ok, err = buf.SerializeRecord(rec)
	if err != nil || !ok {
		t.Fatalf("record 2: SerializeRecord = (%v, %v)", ok, err)
	}
	out2 := buf.Flush()

	if len(out2) >= len(out1) {
		t.Fatalf("second frame (%d bytes) should be shorter than the first (%d bytes)", len(out2), len(out1))
	}
	// The second frame is exactly the first frame minus its nodes section.
	if !bytes.Equal(out2, out1[len(out1)-len(out2):]) {
		t.Fatalf("second frame differs from the first frame's key/value sections:\n% x\nvs\n% x", out2, out1)
	}
}

func TestSerializeRootNotObjectFails(t *testing.T) {
	buf := clpir.NewSerializationBuffer(clpstring.New())
	ok, err := buf.SerializeRecord(intNode(1))
	if ok || err != clpir.ErrRootNotObject {
		t.Fatalf("SerializeRecord(non-map root) = (%v, %v), want (false, ErrRootNotObject)", ok, err)
	}
}

// TestSerializeRevertsOnFailure checks that a failed record leaves the
// schema tree exactly as it was before the call.
func TestSerializeRevertsOnFailure(t *testing.T) {
	buf := clpir.NewSerializationBuffer(nil)
	sizeBefore := buf.Tree.Size()

	// A space-bearing string requires the codec; with Codec == nil this
	// fails partway through a record that has already grown the schema
	// tree by one node.
	ok, err := buf.SerializeRecord(obj("msg", strNode("hello world")))
	if ok || err == nil {
		t.Fatalf("SerializeRecord = (%v, %v), want a failure", ok, err)
	}
	if buf.Tree.Size() != sizeBefore {
		t.Fatalf("Tree.Size() = %d after failed record, want unchanged %d", buf.Tree.Size(), sizeBefore)
	}
	if len(buf.Out) != 0 {
		t.Fatalf("Out = % x after failed record, want empty", buf.Out)
	}
}

// TestSerializeNestedAndReopenedPaths serializes a record with
// a nested object, followed by a second record that reopens the same
// nested path without re-emitting its schema-node deltas.
func TestSerializeNestedAndReopenedPaths(t *testing.T) {
	buf := clpir.NewSerializationBuffer(clpstring.New())

	rec1 := obj("user", obj("id", intNode(1), "name", strNode("al")))
	ok, err := buf.SerializeRecord(rec1)
	if err != nil || !ok {
		t.Fatalf("record 1: SerializeRecord = (%v, %v)", ok, err)
	}
	sizeAfterFirst := buf.Tree.Size()
	if sizeAfterFirst != 4 { // root, user, user.id, user.name
		t.Fatalf("Tree.Size() after record 1 = %d, want 4", sizeAfterFirst)
	}

	out1 := append([]byte(nil), buf.Out...)
	buf.Out = nil

	rec2 := obj("user", obj("id", intNode(2), "name", strNode("bo")))
	ok, err = buf.SerializeRecord(rec2)
	if err != nil || !ok {
		t.Fatalf("record 2: SerializeRecord = (%v, %v)", ok, err)
	}
	if buf.Tree.Size() != sizeAfterFirst {
		t.Fatalf("Tree.Size() after record 2 = %d, want unchanged %d", buf.Tree.Size(), sizeAfterFirst)
	}

	// The second record's frame must carry no schema-node-delta tags at
	// all, since every path it touches already exists.
	if bytes.IndexByte(buf.Out, byte(clpir.TagSchemaNodeInt)) >= 0 ||
		bytes.IndexByte(buf.Out, byte(clpir.TagSchemaNodeStr)) >= 0 ||
		bytes.IndexByte(buf.Out, byte(clpir.TagSchemaNodeObj)) >= 0 {
		t.Fatalf("record 2 frame re-emits a schema-node delta: % x", buf.Out)
	}
	if bytes.Equal(buf.Out, out1) {
		t.Fatalf("record 2 frame is identical to record 1's, want different leaf values")
	}
}

// TestSerializeArrayLeaf checks that an array value never grows
// the schema tree below its own node and is carried as a single CLP-string
// leaf whose decoded text JSON-matches the array.
func TestSerializeArrayLeaf(t *testing.T) {
	codec := clpstring.New()
	buf := clpir.NewSerializationBuffer(codec)

	rec := obj("arr", arrNode(intNode(1), strNode("two"), boolNode(false)))
	ok, err := buf.SerializeRecord(rec)
	if err != nil || !ok {
		t.Fatalf("SerializeRecord = (%v, %v)", ok, err)
	}
	if buf.Tree.Size() != 2 { // root, arr
		t.Fatalf("Tree.Size() = %d, want 2 (array not structurally expanded)", buf.Tree.Size())
	}

	consumerTree := clpir.NewSchemaTree()
	var schema []int
	var values []*clpir.Value
	if err := clpir.DeserializeNextRecord(bytes.NewReader(buf.Out), consumerTree, codec, &schema, &values); err != nil {
		t.Fatalf("DeserializeNextRecord: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("values = %v, want 1 leaf", values)
	}
	_, _, _, err = values[0].ClpStrParts()
	if err != nil {
		t.Fatalf("leaf is not a CLP string: %v", err)
	}
	text, err := values[0].Dump(codec)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if text != `"[1,\"two\",false]"` {
		t.Fatalf("text = %s, want a quoted JSON array rendering", text)
	}
}
