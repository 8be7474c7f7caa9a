package catalog

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// TitleIndex maps normalized titles to entry ids.
// When several entries share a normalized title the first one keeps the key.
type TitleIndex struct {
	ids        map[string]int
	duplicates int
}

// NewTitleIndex indexes the entries in id order
func NewTitleIndex(entries []Entry) *TitleIndex {
	idx := &TitleIndex{ids: make(map[string]int, len(entries))}
	for _, e := range entries {
		key := NormalizeLookupKey(e.Title)
		if _, exists := idx.ids[key]; exists {
			idx.duplicates++
			continue
		}
		idx.ids[key] = e.ID
	}
	return idx
}

// Lookup resolves a title regardless of case and surrounding whitespace
func (t *TitleIndex) Lookup(title string) (int, bool) {
	id, ok := t.ids[NormalizeLookupKey(title)]
	return id, ok
}

// Len returns the number of distinct normalized titles
func (t *TitleIndex) Len() int {
	return len(t.ids)
}

// Duplicates returns how many entries were shadowed by an earlier title
func (t *TitleIndex) Duplicates() int {
	return t.duplicates
}

// Fingerprint hashes the catalog rows in order. A fitted vector space records
// the fingerprint of the catalog it was fit on.
func Fingerprint(entries []Entry) string {
	d := xxhash.New()
	for _, e := range entries {
		_, _ = d.WriteString(e.Title)
		_, _ = d.WriteString("\x1f")
		_, _ = d.WriteString(e.CategoryString())
		_, _ = d.WriteString("\x1e")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
