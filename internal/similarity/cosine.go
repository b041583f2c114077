// Package similarity provides vector comparison and the fixed-width binary
// encoding used to persist embeddings.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// It returns 0 when either vector is empty, the lengths differ,
// or either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp(sim, -1, 1)
}

// Percent converts a similarity to a percentage rounded to one decimal place.
func Percent(sim float64) float64 {
	return math.Round(sim*1000) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
