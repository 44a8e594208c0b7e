package filestream

import "encoding/binary"

// On disk, each frame is: tagData (1 byte) | uvarint length | payload |
// checksum (8 bytes, little-endian xxhash64 of payload). A Reader that
// finds anything other than tagData where a tag is expected, or a length
// whose payload+checksum don't fully fit what remains, stops cleanly at
// that point and treats everything before it as the valid prefix.
const tagData = 0x01

const frameChecksumSize = 8

// appendFrame appends the on-disk encoding of one frame to buf.
func appendFrame(buf []byte, payload []byte) []byte {
	buf = append(buf, tagData)
	buf = binary.AppendUvarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	var cbuf [frameChecksumSize]byte
	binary.LittleEndian.PutUint64(cbuf[:], checksumBytes(payload))
	return append(buf, cbuf[:]...)
}
