package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/backend/internal/catalog"
)

func TestBuildFeatureText(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		categories []string
		expected   string
	}{
		{"Strips trailing year", "Toy Story (1995)", []string{"Animation", "Children", "Comedy"}, "toy story animation children comedy"},
		{"Splits delimited categories", "Heat (1995)", []string{"Action|Crime|Thriller"}, "heat action crime thriller"},
		{"Nil categories", "Jumanji (1995)", nil, "jumanji "},
		{"Empty categories", "Jumanji (1995)", []string{}, "jumanji "},
		{"Year not at end is kept", "1941 (1979) Redux", []string{"Comedy"}, "1941 (1979) redux comedy"},
		{"No year", "Solaris", []string{"Drama"}, "solaris drama"},
		{"Trailing whitespace after year", "Casino (1995)  ", []string{"Crime"}, "casino crime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, catalog.BuildFeatureText(tt.title, tt.categories))
		})
	}
}

func TestBuildFeatureText_Deterministic(t *testing.T) {
	a := catalog.BuildFeatureText("Toy Story (1995)", []string{"Animation"})
	b := catalog.BuildFeatureText("Toy Story (1995)", []string{"Animation"})
	assert.Equal(t, a, b)
}

func TestExtractYear(t *testing.T) {
	year, ok := catalog.ExtractYear("Toy Story (1995)")
	assert.True(t, ok)
	assert.Equal(t, 1995, year)

	_, ok = catalog.ExtractYear("Solaris")
	assert.False(t, ok)
}

func TestSplitCategories(t *testing.T) {
	assert.Equal(t, []string{"Adventure", "Children", "Fantasy"}, catalog.SplitCategories("Adventure|Children|Fantasy"))
	assert.Nil(t, catalog.SplitCategories(""))
	assert.Equal(t, []string{"Drama"}, catalog.SplitCategories("|Drama|"))
}

func TestTitleIndex(t *testing.T) {
	entries := []catalog.Entry{
		catalog.NewEntry(0, "Toy Story (1995)", nil),
		catalog.NewEntry(1, "Heat (1995)", nil),
		catalog.NewEntry(2, "HEAT (1995)", nil),
	}
	idx := catalog.NewTitleIndex(entries)

	id, ok := idx.Lookup("  toy STORY (1995) ")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	// first write wins
	id, ok = idx.Lookup("heat (1995)")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, 1, idx.Duplicates())
	assert.Equal(t, 2, idx.Len())

	_, ok = idx.Lookup("this title does not exist")
	assert.False(t, ok)
}

func TestReadCSV_MovieLensLayout(t *testing.T) {
	input := "movieId,title,genres\n" +
		"1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy\n" +
		"2,\"American President, The (1995)\",Comedy|Drama|Romance\n" +
		"3,Untitled,\n"

	entries, err := catalog.ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 0, entries[0].ID)
	assert.Equal(t, "American President, The (1995)", entries[1].Title)
	assert.Equal(t, []string{"Comedy", "Drama", "Romance"}, entries[1].Categories)
	assert.Empty(t, entries[2].Categories)
	assert.Equal(t, "untitled ", entries[2].FeatureText)
}

func TestReadCSV_MissingTitle(t *testing.T) {
	_, err := catalog.ReadCSV(strings.NewReader("id,genres\n1,Drama\n"))
	assert.ErrorIs(t, err, catalog.ErrMissingColumn)

	_, err = catalog.ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, catalog.ErrMissingColumn)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	entries := []catalog.Entry{
		catalog.NewEntry(0, "Toy Story (1995)", []string{"Animation", "Children"}),
		catalog.NewEntry(1, "Heat (1995)", nil),
	}

	var buf bytes.Buffer
	require.NoError(t, catalog.WriteCSV(&buf, entries))

	loaded, err := catalog.ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
	assert.Equal(t, catalog.Fingerprint(entries), catalog.Fingerprint(loaded))
}

func TestFingerprint_ChangesWithOrder(t *testing.T) {
	a := catalog.NewEntry(0, "A (2000)", []string{"Drama"})
	b := catalog.NewEntry(1, "B (2001)", []string{"Drama"})

	assert.NotEqual(t,
		catalog.Fingerprint([]catalog.Entry{a, b}),
		catalog.Fingerprint([]catalog.Entry{b, a}),
	)
}

func TestSearch(t *testing.T) {
	entries := []catalog.Entry{
		catalog.NewEntry(0, "Toy Story (1995)", nil),
		catalog.NewEntry(1, "Toy Story 2 (1999)", nil),
		catalog.NewEntry(2, "Heat (1995)", nil),
	}

	hits := catalog.Search(entries, "TOY story", 0)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].ID)
	assert.Equal(t, 1, hits[1].ID)

	assert.Len(t, catalog.Search(entries, "toy", 1), 1)
	assert.Empty(t, catalog.Search(entries, "  ", 0))
}
