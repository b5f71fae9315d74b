package wasm

// SizeLEB128u returns the encoded length of v without encoding it.
func SizeLEB128u(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
