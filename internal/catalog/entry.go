package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// CategoryDelimiter separates category tags in the raw catalog rows.
const CategoryDelimiter = "|"

var (
	trailingYear = regexp.MustCompile(`\(\d{4}\)$`)
	anyYear      = regexp.MustCompile(`\((\d{4})\)`)
)

// Entry is a single movie in the catalog
type Entry struct {
	ID          int
	Title       string
	Categories  []string
	FeatureText string
}

// NewEntry builds an entry and its feature text from the raw row values
func NewEntry(id int, title string, categories []string) Entry {
	return Entry{
		ID:          id,
		Title:       title,
		Categories:  categories,
		FeatureText: BuildFeatureText(title, categories),
	}
}

// CategoryString returns the categories joined with the catalog delimiter
func (e Entry) CategoryString() string {
	return strings.Join(e.Categories, CategoryDelimiter)
}

// Year returns the release year encoded in the title, if any
func (e Entry) Year() (int, bool) {
	return ExtractYear(e.Title)
}

// BuildFeatureText concatenates the normalized title and categories.
// A nil or empty category list contributes an empty string.
func BuildFeatureText(title string, categories []string) string {
	return NormalizeTitle(title) + " " + NormalizeCategories(categories)
}

// NormalizeTitle strips a trailing "(YYYY)" token and lowercases the rest
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	t = trailingYear.ReplaceAllString(t, "")
	return strings.ToLower(strings.TrimSpace(t))
}

// NormalizeCategories flattens delimiter-joined tags into space separated tokens
func NormalizeCategories(categories []string) string {
	var parts []string
	for _, c := range categories {
		for _, p := range strings.Split(c, CategoryDelimiter) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	}
	return strings.Join(parts, " ")
}

// SplitCategories parses a delimiter-joined category column
func SplitCategories(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, CategoryDelimiter) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractYear returns the first parenthesized four digit year in a title
func ExtractYear(title string) (int, bool) {
	m := anyYear.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// NormalizeLookupKey is the key used by the title index
func NormalizeLookupKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
