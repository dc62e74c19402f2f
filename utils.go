package dartrie

import "unicode/utf8"

// decodeRune reads the next character of s and how many bytes it
// occupied, substituting the replacement character for invalid UTF-8 so a
// malformed byte never panics a query (spec.md §4.E requires queries to be
// infallible).
func decodeRune(s string) (rune, int) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		size = 1
	}
	return r, size
}

// packSize returns the smallest number of bytes that can hold n, the Go
// counterpart of original_source/src/bytes.rs's pack_size. The minimal-
// prefix tail store (component F) uses this to pick a fixed width for code
// units and values once, at build time, rather than varint-encoding each
// one.
func packSize(n uint32) byte {
	switch {
	case n < 1<<8:
		return 1
	case n < 1<<16:
		return 2
	case n < 1<<24:
		return 3
	default:
		return 4
	}
}

// packInto appends n to dst using exactly nbytes little-endian bytes,
// mirroring bytes.rs's pack_u32.
func packInto(dst []byte, n uint32, nbytes byte) []byte {
	for i := byte(0); i < nbytes; i++ {
		dst = append(dst, byte(n))
		n >>= 8
	}
	return dst
}

// unpackFrom is the dual of packInto: it reads nbytes little-endian bytes
// starting at src[0], mirroring bytes.rs's unpack_u32.
func unpackFrom(src []byte, nbytes byte) uint32 {
	var n uint32
	for i := byte(0); i < nbytes; i++ {
		n |= uint32(src[i]) << (8 * i)
	}
	return n
}
