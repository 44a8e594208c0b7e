package clpir

// SerializationBuffer is the per-stream serializer state: it owns one
// schema tree, three scratch byte groups used as per-record working
// storage, and the accumulated output buffer. A producer owns one
// SerializationBuffer exclusively; it is not safe for concurrent use.
type SerializationBuffer struct {
	// Tree is the stream's schema tree, grown by every SerializeRecord call
	// that introduces new paths.
	Tree *SchemaTree

	// Codec serializes space-bearing string values and array leaves as CLP
	// strings. It must not be nil.
	Codec ClpStringCodec

	// Out accumulates complete record frames, ready to be flushed to a
	// transport.
	Out []byte

	// NodesScratch, KeysScratch, and ValuesScratch are local working
	// storage for the current call to SerializeRecord; they are cleared at
	// the start of each call and are not meaningful between calls.
	NodesScratch  []byte
	KeysScratch   []byte
	ValuesScratch []byte
}

// NewSerializationBuffer returns an empty SerializationBuffer with a fresh
// schema tree, using codec to encode CLP strings.
func NewSerializationBuffer(codec ClpStringCodec) *SerializationBuffer {
	return &SerializationBuffer{
		Tree:  NewSchemaTree(),
		Codec: codec,
	}
}

// Flush returns the accumulated output and empties Out. The schema tree
// and scratch buffers are left untouched.
func (buf *SerializationBuffer) Flush() []byte {
	out := buf.Out
	buf.Out = nil
	return out
}

// SerializeEndOfStream appends the single end-of-stream byte to Out,
// marking the stream complete. No records may be appended after it.
func (buf *SerializationBuffer) SerializeEndOfStream() {
	buf.Out = appendTag(buf.Out, TagEof)
}

// Reset clears everything: the output buffer, the scratch buffers, and the
// schema tree (back down to just the root node).
func (buf *SerializationBuffer) Reset() {
	buf.Out = nil
	buf.NodesScratch = nil
	buf.KeysScratch = nil
	buf.ValuesScratch = nil
	buf.Tree.Reset()
}
