package search

import (
	"sort"
)

// SearchResult holds a matching document and its score
type SearchResult struct {
	Document *Document
	Score    float64
}

// VectorStore holds the vectorized corpus. Row i is the document with ID i.
// It is not modified after indexing and is safe for concurrent reads.
type VectorStore struct {
	Documents  []*Document
	Vectorizer Vectorizer
}

func NewVectorStore(vectorizer Vectorizer) *VectorStore {
	return &VectorStore{
		Documents:  make([]*Document, 0),
		Vectorizer: vectorizer,
	}
}

// Fit trains the vectorizer on the contents and indexes them
func (vs *VectorStore) Fit(contents []string) {
	vs.Vectorizer.Fit(contents)
	vs.Index(contents)
}

// Index vectorizes the contents with the already fitted vectorizer.
// Document ids are the positions in contents.
func (vs *VectorStore) Index(contents []string) {
	docs := make([]*Document, len(contents))
	for i, c := range contents {
		docs[i] = &Document{
			ID:      i,
			Content: c,
			Vector:  vs.Vectorizer.Transform(c),
		}
	}
	vs.Documents = docs
}

// Len returns the number of indexed rows
func (vs *VectorStore) Len() int {
	return len(vs.Documents)
}

// Row returns the vector of row id
func (vs *VectorStore) Row(id int) SparseVector {
	return vs.Documents[id].Vector
}

// Scores returns the similarity of the query with every row, in row order.
// Rows are unit length so the dot product is the cosine similarity.
func (vs *VectorStore) Scores(query SparseVector) []float64 {
	scores := make([]float64, len(vs.Documents))
	for i, doc := range vs.Documents {
		scores[i] = query.Dot(doc.Vector)
	}
	return scores
}

// Rank orders all rows by descending similarity to the query, keeping row
// order among equal scores, drops the row whose id is exclude and returns
// at most n results. A negative exclude keeps every row.
func (vs *VectorStore) Rank(query SparseVector, exclude int, n int) []SearchResult {
	if n <= 0 {
		return []SearchResult{}
	}

	scores := vs.Scores(query)
	results := make([]SearchResult, 0, len(vs.Documents))
	for i, doc := range vs.Documents {
		if doc.ID == exclude {
			continue
		}
		results = append(results, SearchResult{Document: doc, Score: scores[i]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > n {
		return results[:n]
	}
	return results
}

// Search finds the documents most similar to a free-text query.
// Only documents sharing at least one term with the query are returned.
func (vs *VectorStore) Search(query string, topK int) []SearchResult {
	queryVector := vs.Vectorizer.Transform(query)
	if queryVector.IsZero() || topK <= 0 {
		return []SearchResult{}
	}

	var results []SearchResult
	for _, r := range vs.Rank(queryVector, -1, len(vs.Documents)) {
		if r.Score <= 0 {
			break
		}
		results = append(results, r)
		if len(results) == topK {
			break
		}
	}
	if results == nil {
		return []SearchResult{}
	}
	return results
}
