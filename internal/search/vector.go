package search

import (
	"math"
	"sort"
)

// SparseVector holds the non-zero entries of a vector.
// Indices are strictly ascending and parallel to Values.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored entries
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no non-zero entries
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// Get returns the value at column idx, zero when absent
func (v SparseVector) Get(idx int) float64 {
	i := sort.SearchInts(v.Indices, idx)
	if i < len(v.Indices) && v.Indices[i] == idx {
		return v.Values[i]
	}
	return 0
}

// Dot computes the dot product with a merge-join over both index lists
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm returns the Euclidean length
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector in place to unit length. Zero vectors stay zero.
func (v SparseVector) Normalize() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	for i := range v.Values {
		v.Values[i] /= norm
	}
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b SparseVector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}
	return a.Dot(b) / (normA * normB)
}
