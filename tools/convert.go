package tools

import (
	"encoding/binary"
	"math"
)

// Converts an int into a 4 bytes little endian array
func ConvertIntToByteArray(value int) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(value))
	return b
}

// Converts a float32 slice into a little endian byte array
func ConvertFloat32ArrayToByteArray(values []float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

// Returns how many bytes must be appended to length to reach a multiple of alignment
func PaddingLength(length int, alignment int) int {
	if rem := length % alignment; rem != 0 {
		return alignment - rem
	}
	return 0
}
