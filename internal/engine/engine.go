package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/metrics"
	"github.com/cinematch/backend/internal/search"
)

var (
	// ErrArtifactMismatch is returned when a vector space was fit on a different catalog
	ErrArtifactMismatch = errors.New("engine: vector space does not match catalog")
	// ErrInvalidCatalog is returned when entry ids are not their positions
	ErrInvalidCatalog = errors.New("engine: invalid catalog")
)

// Recommendation is one ranked neighbour of the seed title
type Recommendation struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Categories string  `json:"categories"`
	Score      float64 `json:"score"`
}

// Manifest records the catalog a vector space was fit on
type Manifest struct {
	CorpusSize         int
	CatalogFingerprint string
	FittedAt           time.Time
}

// Source supplies the persisted catalog and its fitted vector space
type Source interface {
	LoadCatalog(ctx context.Context) ([]catalog.Entry, error)
	LoadModel(ctx context.Context) (search.VectorSpace, Manifest, error)
}

// Stats describes the loaded corpus
type Stats struct {
	CatalogSize     int       `json:"catalog_size"`
	VocabularySize  int       `json:"vocabulary_size"`
	DuplicateTitles int       `json:"duplicate_titles"`
	Fingerprint     string    `json:"fingerprint"`
	FittedAt        time.Time `json:"fitted_at,omitempty"`
	LoadedAt        time.Time `json:"loaded_at"`
}

// Engine answers similarity lookups over a fixed catalog.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	logger     *logrus.Entry
	entries    []catalog.Entry
	vectorizer *search.TFIDFVectorizer
	store      *search.VectorStore
	titles     *catalog.TitleIndex
	stats      Stats
}

// Fit learns a vector space from the feature texts of the entries
func Fit(entries []catalog.Entry) search.VectorSpace {
	v := search.NewTFIDFVectorizer()
	v.Fit(featureTexts(entries))
	return v.Space()
}

// New builds the corpus matrix and title index for entries using a fitted space
func New(entries []catalog.Entry, space search.VectorSpace, logger *logrus.Entry) (*Engine, error) {
	for i, e := range entries {
		if e.ID != i {
			return nil, fmt.Errorf("%w: entry at position %d has id %d", ErrInvalidCatalog, i, e.ID)
		}
	}

	vectorizer, err := search.NewTFIDFVectorizerFromSpace(space)
	if err != nil {
		return nil, fmt.Errorf("failed to restore vectorizer: %w", err)
	}

	store := search.NewVectorStore(vectorizer)
	store.Index(featureTexts(entries))

	titles := catalog.NewTitleIndex(entries)

	e := &Engine{
		logger:     logger.WithField("component", "engine"),
		entries:    entries,
		vectorizer: vectorizer,
		store:      store,
		titles:     titles,
		stats: Stats{
			CatalogSize:     len(entries),
			VocabularySize:  len(space.Terms),
			DuplicateTitles: titles.Duplicates(),
			Fingerprint:     catalog.Fingerprint(entries),
			LoadedAt:        time.Now().UTC(),
		},
	}

	if titles.Duplicates() > 0 {
		e.logger.WithField("duplicates", titles.Duplicates()).Warn("Duplicate titles shadowed in title index")
	}
	metrics.SetIndexSize(len(entries), len(space.Terms))

	e.logger.WithFields(logrus.Fields{
		"entries":    len(entries),
		"vocabulary": len(space.Terms),
	}).Info("Similarity index built")

	return e, nil
}

// Load reads both artifacts from src, verifies they belong together and builds the engine
func Load(ctx context.Context, src Source, logger *logrus.Entry) (*Engine, error) {
	entries, err := src.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	space, manifest, err := src.LoadModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector space: %w", err)
	}

	if manifest.CorpusSize != len(entries) {
		return nil, fmt.Errorf("%w: fit on %d entries, catalog has %d", ErrArtifactMismatch, manifest.CorpusSize, len(entries))
	}
	if fp := catalog.Fingerprint(entries); manifest.CatalogFingerprint != fp {
		return nil, fmt.Errorf("%w: fingerprint %s, catalog is %s", ErrArtifactMismatch, manifest.CatalogFingerprint, fp)
	}

	e, err := New(entries, space, logger)
	if err != nil {
		return nil, err
	}
	e.stats.FittedAt = manifest.FittedAt
	return e, nil
}

// Recommend returns up to n entries most similar to the entry titled title.
// An unknown title yields an empty slice. n is clamped to [0, corpus size - 1].
func (e *Engine) Recommend(title string, n int) []Recommendation {
	id, ok := e.titles.Lookup(title)
	if !ok {
		metrics.RecordRecommendation(false, 0)
		e.logger.WithField("title", title).Debug("Title not in catalog")
		return []Recommendation{}
	}

	start := time.Now()
	n = clamp(n, 0, len(e.entries)-1)
	results := e.store.Rank(e.store.Row(id), id, n)
	metrics.RecordRecommendation(true, time.Since(start))

	return e.toRecommendations(results)
}

// Search ranks entries against free text. Only entries sharing a term with text are returned.
func (e *Engine) Search(text string, k int) []Recommendation {
	return e.toRecommendations(e.store.Search(text, k))
}

// Titles returns entries whose title contains q, ignoring case
func (e *Engine) Titles(q string, limit int) []catalog.Entry {
	return catalog.Search(e.entries, q, limit)
}

// Similarity returns the cosine similarity of two corpus rows
func (e *Engine) Similarity(a, b int) float64 {
	if a < 0 || b < 0 || a >= len(e.entries) || b >= len(e.entries) {
		return 0
	}
	return search.CosineSimilarity(e.store.Row(a), e.store.Row(b))
}

// Transform vectorizes text in the engine's vector space
func (e *Engine) Transform(text string) search.SparseVector {
	return e.vectorizer.Transform(text)
}

// Row returns the corpus matrix row of entry id
func (e *Engine) Row(id int) search.SparseVector {
	return e.store.Row(id)
}

// Entries returns the catalog in id order. Callers must not modify it.
func (e *Engine) Entries() []catalog.Entry {
	return e.entries
}

func (e *Engine) Entry(id int) (catalog.Entry, bool) {
	if id < 0 || id >= len(e.entries) {
		return catalog.Entry{}, false
	}
	return e.entries[id], true
}

// Lookup resolves a title to its entry id
func (e *Engine) Lookup(title string) (int, bool) {
	return e.titles.Lookup(title)
}

func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) toRecommendations(results []search.SearchResult) []Recommendation {
	recs := make([]Recommendation, len(results))
	for i, r := range results {
		entry := e.entries[r.Document.ID]
		recs[i] = Recommendation{
			ID:         entry.ID,
			Title:      entry.Title,
			Categories: entry.CategoryString(),
			Score:      r.Score,
		}
	}
	return recs
}

func featureTexts(entries []catalog.Entry) []string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.FeatureText
	}
	return texts
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
