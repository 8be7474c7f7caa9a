package search

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidSpace is returned when a persisted vector space is inconsistent
var ErrInvalidSpace = errors.New("search: invalid vector space")

// Vectorizer turns text into a vector
type Vectorizer interface {
	Fit(docs []string)
	Transform(text string) SparseVector
}

// VectorSpace is the fitted state of a TF-IDF vectorizer.
// Terms[i] is the term of column i and IDF[i] its weight.
type VectorSpace struct {
	Terms []string  `json:"terms"`
	IDF   []float64 `json:"idf"`
}

// Validate checks that terms and weights line up, terms are unique and
// non-empty, and every weight is positive
func (s VectorSpace) Validate() error {
	if len(s.Terms) != len(s.IDF) {
		return fmt.Errorf("%w: %d terms but %d weights", ErrInvalidSpace, len(s.Terms), len(s.IDF))
	}
	seen := make(map[string]struct{}, len(s.Terms))
	for i, t := range s.Terms {
		if t == "" {
			return fmt.Errorf("%w: empty term at column %d", ErrInvalidSpace, i)
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: duplicate term %q", ErrInvalidSpace, t)
		}
		seen[t] = struct{}{}
		// NaN fails this comparison too
		if !(s.IDF[i] > 0) || math.IsInf(s.IDF[i], 0) {
			return fmt.Errorf("%w: weight %v for term %q", ErrInvalidSpace, s.IDF[i], t)
		}
	}
	return nil
}

// TFIDFVectorizer implements Term Frequency - Inverse Document Frequency
type TFIDFVectorizer struct {
	Vocabulary map[string]int
	Terms      []string
	IDF        []float64
}

func NewTFIDFVectorizer() *TFIDFVectorizer {
	return &TFIDFVectorizer{
		Vocabulary: make(map[string]int),
	}
}

// NewTFIDFVectorizerFromSpace restores a fitted vectorizer from persisted state
func NewTFIDFVectorizerFromSpace(space VectorSpace) (*TFIDFVectorizer, error) {
	if err := space.Validate(); err != nil {
		return nil, err
	}
	v := &TFIDFVectorizer{
		Vocabulary: make(map[string]int, len(space.Terms)),
		Terms:      append([]string(nil), space.Terms...),
		IDF:        append([]float64(nil), space.IDF...),
	}
	for i, t := range v.Terms {
		v.Vocabulary[t] = i
	}
	return v, nil
}

// Fit analyzes the corpus to build vocabulary and IDF stats.
// Columns are assigned in discovery order.
func (v *TFIDFVectorizer) Fit(docs []string) {
	v.Vocabulary = make(map[string]int)
	v.Terms = nil
	var docCounts []int

	for _, doc := range docs {
		seenInDoc := make(map[int]bool)
		for _, token := range Tokenize(doc) {
			idx, exists := v.Vocabulary[token]
			if !exists {
				idx = len(v.Terms)
				v.Vocabulary[token] = idx
				v.Terms = append(v.Terms, token)
				docCounts = append(docCounts, 0)
			}
			if !seenInDoc[idx] {
				docCounts[idx]++
				seenInDoc[idx] = true
			}
		}
	}

	// idf = ln((1 + N) / (1 + df)) + 1
	n := float64(len(docs))
	v.IDF = make([]float64, len(v.Terms))
	for idx, df := range docCounts {
		v.IDF[idx] = math.Log((1+n)/(1+float64(df))) + 1
	}
}

// Transform converts text to an L2-normalized TF-IDF vector.
// Tokens outside the vocabulary are ignored.
func (v *TFIDFVectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, token := range Tokenize(text) {
		if idx, exists := v.Vocabulary[token]; exists {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, counts[idx]*v.IDF[idx])
	}
	vec.Normalize()
	return vec
}

// Space returns a copy of the fitted state
func (v *TFIDFVectorizer) Space() VectorSpace {
	return VectorSpace{
		Terms: append([]string(nil), v.Terms...),
		IDF:   append([]float64(nil), v.IDF...),
	}
}
