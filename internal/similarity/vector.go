package similarity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrInvalidEncoding indicates a byte slice that is not a whole number of float32 values.
var ErrInvalidEncoding = errors.New("invalid vector encoding")

const floatWidth = 4

// Encode serializes v as consecutive little-endian IEEE-754 float32 values.
// A nil or empty vector encodes to nil so it can be stored as NULL.
func Encode(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}

	buf := make([]byte, len(v)*floatWidth)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*floatWidth:], math.Float32bits(f))
	}
	return buf
}

// Decode reverses Encode. Decode(Encode(v)) is bit-for-bit equal to v.
// Nil or empty input decodes to a nil vector.
func Decode(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%floatWidth != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidEncoding, len(b))
	}

	v := make([]float32, len(b)/floatWidth)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*floatWidth:]))
	}
	return v, nil
}
