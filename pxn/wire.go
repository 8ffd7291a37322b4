package pxn

import "encoding/binary"

// wireEncode/wireDecode carry a tagged-width atomic operand as a 64-bit
// word on the wire, matching atomics' own encode/decode scheme (spec.md
// §4.10's "the wire only ever carries 64 bits regardless of the logical
// datatype").
func wireEncode(v uint64, width int) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return buf[:width]
}

func wireDecode(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}
