package codec

import "unsafe"

func unsafeBytes(f []float32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4)
}

// aliases reports whether f points into b.
func aliases(b []byte, f []float32) bool {
	base := uintptr(unsafe.Pointer(&b[0]))
	p := uintptr(unsafe.Pointer(&f[0]))
	return p >= base && p < base+uintptr(len(b))
}
