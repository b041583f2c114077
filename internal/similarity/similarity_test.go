package similarity_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/JaimeStill/callbook/internal/similarity"
)

func TestCosineZeroCases(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
	}{
		{"both empty", nil, nil},
		{"a empty", nil, []float32{1, 2}},
		{"b empty", []float32{1, 2}, []float32{}},
		{"length mismatch", []float32{1, 2, 3}, []float32{1, 2}},
		{"a all zero", []float32{0, 0, 0}, []float32{1, 2, 3}},
		{"b all zero", []float32{1, 2, 3}, []float32{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := similarity.Cosine(tt.a, tt.b); got != 0 {
				t.Errorf("Cosine(%v, %v) = %f, want 0", tt.a, tt.b, got)
			}
		})
	}
}

func TestCosineKnownValues(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1},
		{"45 degrees", []float32{1, 0}, []float32{1, 1}, math.Sqrt2 / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := similarity.Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Cosine(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := range 200 {
		dim := 1 + rng.IntN(64)
		a := randomVector(rng, dim)
		b := randomVector(rng, dim)

		ab := similarity.Cosine(a, b)
		ba := similarity.Cosine(b, a)
		if ab != ba {
			t.Fatalf("case %d: not symmetric: %f != %f", i, ab, ba)
		}
		if ab < -1 || ab > 1 {
			t.Fatalf("case %d: out of range: %f", i, ab)
		}
		if !isZero(a) {
			if self := similarity.Cosine(a, a); math.Abs(self-1) > 1e-9 {
				t.Fatalf("case %d: self similarity = %f, want 1", i, self)
			}
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		sim  float64
		want float64
	}{
		{1, 100},
		{0.8234, 82.3},
		{0.82351, 82.4},
		{0, 0},
	}

	for _, tt := range tests {
		if got := similarity.Percent(tt.sim); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percent(%f) = %f, want %f", tt.sim, got, tt.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	vectors := [][]float32{
		{0.5},
		{1, -1, 0, float32(math.Copysign(0, -1))},
		{math.MaxFloat32, math.SmallestNonzeroFloat32, float32(math.Inf(1)), float32(math.Inf(-1))},
		{float32(math.NaN()), 3.14159},
		randomVector(rng, 1536),
	}

	for i, v := range vectors {
		encoded := similarity.Encode(v)
		if len(encoded) != len(v)*4 {
			t.Fatalf("case %d: encoded length = %d, want %d", i, len(encoded), len(v)*4)
		}

		decoded, err := similarity.Decode(encoded)
		if err != nil {
			t.Fatalf("case %d: decode failed: %v", i, err)
		}
		if len(decoded) != len(v) {
			t.Fatalf("case %d: decoded length = %d, want %d", i, len(decoded), len(v))
		}
		for j := range v {
			if math.Float32bits(decoded[j]) != math.Float32bits(v[j]) {
				t.Fatalf("case %d index %d: got bits %x, want %x", i, j, math.Float32bits(decoded[j]), math.Float32bits(v[j]))
			}
		}
	}
}

func TestEncodeLittleEndian(t *testing.T) {
	got := similarity.Encode([]float32{1})
	want := []byte{0x00, 0x00, 0x80, 0x3f}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Encode(1) = %x, want %x", got, want)
		}
	}
}

func TestDecodeEdgeCases(t *testing.T) {
	if v, err := similarity.Decode(nil); err != nil || v != nil {
		t.Errorf("Decode(nil) = %v, %v; want nil, nil", v, err)
	}
	if b := similarity.Encode(nil); b != nil {
		t.Errorf("Encode(nil) = %v, want nil", b)
	}

	_, err := similarity.Decode([]byte{1, 2, 3})
	if !errors.Is(err, similarity.ErrInvalidEncoding) {
		t.Errorf("Decode(3 bytes) error = %v, want ErrInvalidEncoding", err)
	}
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
