package clpir

import "errors"

// Framing errors, returned by the deserializer's tag-driven state machine.
var (
	ErrUnknownTag       = errors.New("clpir: unknown tag")
	ErrCorruptedStream  = errors.New("clpir: corrupted stream")
	ErrIncompleteStream = errors.New("clpir: incomplete stream")
	ErrEndOfStream      = errors.New("clpir: end of stream")
)

// Semantic errors, returned by the schema tree and value accessors.
var (
	ErrInvalidTypeConvert = errors.New("clpir: invalid type conversion")
	ErrInvalidParent      = errors.New("clpir: schema node references a non-existent parent")
	ErrAlreadyExists      = errors.New("clpir: schema node already exists")
	ErrNoSnapshot         = errors.New("clpir: revert called without a snapshot")
	ErrOutOfBounds        = errors.New("clpir: schema node id out of bounds")
)

// Encoding-range errors, returned when a value or name exceeds what the
// wire format can represent.
var ErrValueOutOfRange = errors.New("clpir: value exceeds encodable range")

// Decoding-payload errors, returned when bytes were read successfully but
// do not form a valid payload.
var ErrDecodeError = errors.New("clpir: failed to decode payload")

// ErrNotImplemented is returned by a [ClpStringCodec] that chooses not to
// support a given CLP-string variant. The codecs shipped with this module
// implement both variants. [DeserializeNextRecord] also returns it when it
// reads a CLP-string value and was given a nil codec.
var ErrNotImplemented = errors.New("clpir: not implemented")
