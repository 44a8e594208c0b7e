package recordpack

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/clp-ir/clpir"
)

func TestFromMsgpackBytesPreservesMapOrder(t *testing.T) {
	// msgpack.Marshal of a Go map does not guarantee wire order, so build
	// the payload by hand to pin down the order this test asserts on.
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(3); err != nil {
		t.Fatalf("EncodeMapLen: %v", err)
	}
	for _, kv := range []struct {
		k string
		v int
	}{{"z", 1}, {"a", 2}, {"m", 3}} {
		if err := enc.EncodeString(kv.k); err != nil {
			t.Fatalf("EncodeString: %v", err)
		}
		if err := enc.EncodeInt(int64(kv.v)); err != nil {
			t.Fatalf("EncodeInt: %v", err)
		}
	}

	r, err := FromMsgpackBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("FromMsgpackBytes: %v", err)
	}
	if r.Kind() != clpir.KindMap {
		t.Fatalf("Kind() = %v, want KindMap", r.Kind())
	}

	var keys []string
	for k := range r.MapPairs() {
		keys = append(keys, k)
	}
	want := []string{"z", "a", "m"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestFromMsgpackBytesScalarsAndArray(t *testing.T) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.EncodeMapLen(4)
	enc.EncodeString("n")
	enc.EncodeInt(-7)
	enc.EncodeString("f")
	enc.EncodeFloat64(1.25)
	enc.EncodeString("ok")
	enc.EncodeBool(true)
	enc.EncodeString("items")
	enc.EncodeArrayLen(2)
	enc.EncodeString("x")
	enc.EncodeString("y")

	r, err := FromMsgpackBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("FromMsgpackBytes: %v", err)
	}

	got := map[string]clpir.RecordReader{}
	for k, v := range r.MapPairs() {
		got[k] = v
	}

	if v, ok := got["n"].AsInt(); !ok || v != -7 {
		t.Fatalf("n = (%d, %v), want (-7, true)", v, ok)
	}
	if v, ok := got["f"].AsFloat(); !ok || v != 1.25 {
		t.Fatalf("f = (%v, %v), want (1.25, true)", v, ok)
	}
	if v, ok := got["ok"].AsBool(); !ok || v != true {
		t.Fatalf("ok = (%v, %v), want (true, true)", v, ok)
	}
	items := got["items"]
	if items.Kind() != clpir.KindArray || items.ArrayLen() != 2 {
		t.Fatalf("items kind/len = %v/%d, want Array/2", items.Kind(), items.ArrayLen())
	}
}

func TestFromValueMapAndSlice(t *testing.T) {
	v := map[string]any{"a": int64(1)}
	r := FromValue(v)
	if r.Kind() != clpir.KindMap || r.MapLen() != 1 {
		t.Fatalf("Kind/MapLen = %v/%d, want Map/1", r.Kind(), r.MapLen())
	}

	arr := FromValue([]any{int64(1), "two", nil})
	if arr.Kind() != clpir.KindArray || arr.ArrayLen() != 3 {
		t.Fatalf("Kind/ArrayLen = %v/%d, want Array/3", arr.Kind(), arr.ArrayLen())
	}
}
