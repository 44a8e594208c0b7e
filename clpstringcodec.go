package clpir

import "io"

// ClpStringCodec is the pluggable "CLP string" collaborator: an external
// codec that factors a text's literal skeleton (the
// "logtype") apart from its variable tokens, so that downstream compression
// can dictionary-encode the skeleton once per distinct shape. clpir treats
// everything this codec writes between the 0x58/0x59 tag and the next tag
// as opaque; it only fixes that framing.
//
// The "four byte" and "eight byte" variants refer to the width used to
// encode numeric ("encoded") variables; both exist on the wire
// (TagValueStrCLPFourByte / TagValueStrCLPEightByte) and a codec may decline
// to support one of them by returning [ErrNotImplemented].
type ClpStringCodec interface {
	// SerializeFourByte appends the four-byte-variable encoding of text to
	// *buf. The caller has already appended the TagValueStrCLPFourByte tag.
	SerializeFourByte(text string, buf *[]byte) error

	// SerializeEightByte is the eight-byte-variable analogue of
	// SerializeFourByte.
	SerializeEightByte(text string, buf *[]byte) error

	// DeserializeFourByte reads a four-byte-variable CLP string payload
	// (as written by SerializeFourByte) from r, stopping exactly at the end
	// of the payload.
	DeserializeFourByte(r io.Reader) (logtype string, encodedVars []int64, dictVars []string, err error)

	// DeserializeEightByte is the eight-byte-variable analogue of
	// DeserializeFourByte.
	DeserializeEightByte(r io.Reader) (logtype string, encodedVars []int64, dictVars []string, err error)

	// DecodeParts reconstructs the original text from a previously
	// deserialized (logtype, encodedVars, dictVars) triple.
	DecodeParts(logtype string, encodedVars []int64, dictVars []string) (string, error)
}
