// Package clpir implements a structured, self-describing intermediate
// representation for streams of semi-structured records.
//
// A stream is a sequence of record frames followed by a single end-of-stream
// byte. Each frame carries, in order: any newly-discovered schema-tree node
// deltas, the key ids for the record's leaves, and the leaf values
// themselves. A [SchemaTree] accumulates every (parent, key, type) triple
// ever seen on the stream so that later records only need to reference
// already-known paths by id.
//
// # Technical Details
//
// Producers call [SerializationBuffer.SerializeRecord] once per record and
// then flush [SerializationBuffer.Out] to their transport of choice.
// Consumers call [DeserializeNextRecord] in a loop against an [io.Reader],
// feeding it the same [SchemaTree] across calls so schema deltas accumulate
// the same way on both sides.
//
// The wire format, tag values, and error taxonomy are fixed by this
// package; transports, the CLP-string variable-token codec, and the decoder
// that produces an in-memory record tree from external bytes (JSON, or
// anything else) are all external collaborators reached through the
// [RecordReader] and [ClpStringCodec] interfaces.
package clpir

// Tag is a single wire-protocol tag byte.
type Tag int8

// Value tags (leaf payloads).
const (
	TagValueInt8            Tag = 0x51
	TagValueInt16           Tag = 0x52
	TagValueInt32           Tag = 0x53
	TagValueInt64           Tag = 0x54
	TagValueDouble          Tag = 0x55
	TagValueTrue            Tag = 0x56
	TagValueFalse           Tag = 0x57
	TagValueStrCLPFourByte  Tag = 0x58
	TagValueStrCLPEightByte Tag = 0x59
	TagValueEmpty           Tag = 0x5e
	TagValueNull            Tag = 0x5f
)

// Standard (non-CLP) string tags, chosen by the narrowest length prefix.
const (
	TagStandardStrLenByte  Tag = 0x41
	TagStandardStrLenShort Tag = 0x42
	TagStandardStrLenInt   Tag = 0x43
)

// Schema-node-delta framing tags.
const (
	TagSchemaNodeParentIdByte  Tag = 0x60
	TagSchemaNodeParentIdShort Tag = 0x61
)

// Key-id framing tags.
const (
	TagKeyIdByte  Tag = 0x65
	TagKeyIdShort Tag = 0x66
)

// Schema-node type tags.
const (
	TagSchemaNodeUnknown Tag = 0x70
	TagSchemaNodeInt     Tag = 0x71
	TagSchemaNodeFloat   Tag = 0x72
	TagSchemaNodeBool    Tag = 0x73
	TagSchemaNodeStr     Tag = 0x74
	TagSchemaNodeArray   Tag = 0x75
	TagSchemaNodeObj     Tag = 0x76
)

// TagEof is the single byte that marks the end of a stream.
const TagEof Tag = 0x00

// isNewSchemaTreeNodeTag reports whether tag introduces a schema-tree node.
func isNewSchemaTreeNodeTag(tag Tag) bool {
	return TagSchemaNodeInt <= tag && tag <= TagSchemaNodeObj
}

// EnableShortIntCompression controls whether the 1- and 2-byte integer
// forms ([TagValueInt8], [TagValueInt16]) are ever emitted by the
// serializer. Decoders always accept all four integer widths regardless of
// this setting. Defaults to false, matching the reference encoder.
var EnableShortIntCompression = false

// Metadata holds the stream-preamble keys recognized by this protocol.
// The core codec does not require a preamble; producing and consuming one
// is left to the caller.
type Metadata struct {
	Version                   string
	TimestampPattern          string
	TimestampPatternSyntax    string
	TimeZoneId                string
	ReferenceTimestamp        string
	VariablesSchemaId         string
	VariableEncodingMethodsId string
}

// MetadataVersion is the fixed VERSION metadata value for this protocol
// revision.
const MetadataVersion = "0.0.1"

// EncodingKindJSON is the metadata encoding-kind constant for a JSON-encoded
// preamble.
const EncodingKindJSON = 0x01

const (
	metadataVersionKey                   = "VERSION"
	metadataTimestampPatternKey          = "TIMESTAMP_PATTERN"
	metadataTimestampPatternSyntaxKey    = "TIMESTAMP_PATTERN_SYNTAX"
	metadataTimeZoneIdKey                = "TZ_ID"
	metadataReferenceTimestampKey        = "REFERENCE_TIMESTAMP"
	metadataVariablesSchemaIdKey         = "VARIABLES_SCHEMA_ID"
	metadataVariableEncodingMethodsIdKey = "VARIABLE_ENCODING_METHODS_ID"
)

// MetadataKeys returns the metadata map form of m, using the protocol's
// fixed key names.
func (m Metadata) MetadataKeys() map[string]string {
	return map[string]string{
		metadataVersionKey:                   m.Version,
		metadataTimestampPatternKey:          m.TimestampPattern,
		metadataTimestampPatternSyntaxKey:    m.TimestampPatternSyntax,
		metadataTimeZoneIdKey:                m.TimeZoneId,
		metadataReferenceTimestampKey:        m.ReferenceTimestamp,
		metadataVariablesSchemaIdKey:         m.VariablesSchemaId,
		metadataVariableEncodingMethodsIdKey: m.VariableEncodingMethodsId,
	}
}
