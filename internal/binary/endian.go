package binary

import "encoding/binary"

// Every multi-byte field in the container and in comment blocks is
// little-endian. These accessors keep importers off encoding/binary,
// which would otherwise collide with this package's name.

// Uint32 decodes a little-endian uint32 from the first 4 bytes of b.
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Uint64 decodes a little-endian uint64 from the first 8 bytes of b.
func Uint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// PutUint32 encodes v little-endian into the first 4 bytes of b.
func PutUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// PutUint64 encodes v little-endian into the first 8 bytes of b.
func PutUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}
