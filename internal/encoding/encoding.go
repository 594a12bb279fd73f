// Package encoding provides serialization utilities for the int32 regions
// of a compiled graph file.
//
// All values are stored little-endian, 4 bytes each. The helpers use
// encoding/binary so they are correct on any architecture; the regions are
// read once at open time, never on the decode path.
package encoding

import "encoding/binary"

// Int32Size is the encoded size of one value.
const Int32Size = 4

// PutInt32s writes src into dst as consecutive little-endian int32 values
// and returns the number of bytes written.
// dst must have at least len(src)*Int32Size bytes available.
func PutInt32s(dst []byte, src []int32) int {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*Int32Size:], uint32(v))
	}
	return len(src) * Int32Size
}

// Int32s decodes n little-endian int32 values from the front of src into a
// freshly allocated slice. The result does not alias src, so src may be
// unmapped afterwards.
// src must have at least n*Int32Size bytes.
func Int32s(src []byte, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(src[i*Int32Size:]))
	}
	return out
}

// Int32sSize returns the encoded size of n values.
func Int32sSize(n int) int {
	return n * Int32Size
}
