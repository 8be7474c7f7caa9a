package chat_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/chat"
	"github.com/cinematch/backend/internal/engine"
)

func testCatalog() []catalog.Entry {
	rows := []struct {
		title      string
		categories []string
	}{
		{"Toy Story (1995)", []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
		{"Jumanji (1995)", []string{"Adventure", "Children", "Fantasy"}},
		{"Heat (1995)", []string{"Action", "Crime", "Thriller"}},
		{"Inception (2010)", []string{"Action", "Crime", "Drama", "Mystery", "Sci-Fi", "Thriller", "IMAX"}},
		{"Interstellar (2014)", []string{"Sci-Fi", "IMAX"}},
		{"Untitled", nil},
	}
	entries := make([]catalog.Entry, len(rows))
	for i, r := range rows {
		entries[i] = catalog.NewEntry(i, r.title, r.categories)
	}
	return entries
}

func TestGenrePreferences(t *testing.T) {
	tests := []struct {
		name     string
		mood     string
		genre    string
		expected []string
	}{
		{"Keywords in both answers", "I want a funny and romantic movie", "sci-fi and kids", []string{"Children", "Comedy", "Romance", "Sci-Fi"}},
		{"Synonyms collapse", "Scary", "horror, more HORROR", []string{"Horror"}},
		{"Multi word keyword", "", "science fiction", []string{"Sci-Fi"}},
		{"Substring match", "", "I love cartoons", []string{"Animation", "Romance"}},
		{"Nothing recognised", "meh", "whatever", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chat.GenrePreferences(tt.mood, tt.genre)
			if tt.expected == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPacePreferences(t *testing.T) {
	assert.ElementsMatch(t, []string{"Drama", "Romance"}, chat.PacePreferences("slow and thoughtful"))
	assert.ElementsMatch(t, []string{"Action", "Thriller", "Adventure", "Sci-Fi"}, chat.PacePreferences("Fast, edge of my seat"))
	assert.ElementsMatch(t, []string{"Drama", "Comedy"}, chat.PacePreferences("balanced"))
	assert.ElementsMatch(t, []string{"Drama", "Comedy"}, chat.PacePreferences(""))

	// slow is checked first
	assert.ElementsMatch(t, []string{"Drama", "Romance"}, chat.PacePreferences("calm but intense"))
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		text     string
		expected chat.Period
	}{
		{"something recent", chat.PeriodRecent},
		{"After 2010 please", chat.PeriodRecent},
		{"2000s", chat.Period2000s},
		{"the 1990s", chat.Period90s},
		{"90s", chat.Period90s},
		{"older classic", chat.PeriodClassic},
		{"80s", chat.PeriodClassic},
		{"no preference", chat.PeriodAny},
		{"", chat.PeriodAny},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, chat.ParsePeriod(tt.text))
		})
	}
}

func TestParseTone(t *testing.T) {
	tests := []struct {
		text     string
		expected chat.Tone
	}{
		{"light and happy", chat.ToneLight},
		{"Feel good family night", chat.ToneLight},
		{"dark, gritty", chat.ToneDark},
		{"something intense", chat.ToneDark},
		{"whatever", chat.ToneAny},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, chat.ParseTone(tt.text))
		})
	}
}

func TestFindLikedTitles(t *testing.T) {
	entries := testCatalog()

	assert.Equal(t, []string{"Inception (2010)", "Interstellar (2014)"}, chat.FindLikedTitles(entries, "inception, INTERSTELLAR"))
	assert.Equal(t, []string{"Toy Story (1995)"}, chat.FindLikedTitles(entries, "toy, story"))
	assert.Equal(t, []string{"Interstellar (2014)", "Toy Story (1995)"}, chat.FindLikedTitles(entries, "interstellar, toy"))
	assert.Empty(t, chat.FindLikedTitles(entries, "skip"))
	assert.Empty(t, chat.FindLikedTitles(entries, " SKIP "))
	assert.Empty(t, chat.FindLikedTitles(entries, ""))
	assert.Empty(t, chat.FindLikedTitles(entries, " , "))
	assert.Empty(t, chat.FindLikedTitles(entries, "the godfather"))
}

func TestPickSeed_PrefersLikedTitle(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	seed, ok := chat.PickSeed(testCatalog(), chat.Answers{Liked: "jumanji", Genre: "crime"}, rng)

	assert.True(t, ok)
	assert.Equal(t, "Jumanji (1995)", seed)
}

func TestPickSeed_UsesTargetGenres(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	answers := chat.Answers{Genre: "crime", Pace: "slow", Liked: "skip"}

	for i := 0; i < 50; i++ {
		seed, ok := chat.PickSeed(testCatalog(), answers, rng)
		assert.True(t, ok)
		assert.Contains(t, []string{"Heat (1995)", "Inception (2010)"}, seed)
	}
}

func TestPickSeed_FallsBackToCategorizedEntries(t *testing.T) {
	entries := []catalog.Entry{
		catalog.NewEntry(0, "Untitled", nil),
		catalog.NewEntry(1, "Shoah (1985)", []string{"Documentary"}),
	}
	rng := rand.New(rand.NewPCG(3, 4))

	seed, ok := chat.PickSeed(entries, chat.Answers{Genre: "horror"}, rng)

	assert.True(t, ok)
	assert.Equal(t, "Shoah (1985)", seed)

	_, ok = chat.PickSeed(nil, chat.Answers{}, rng)
	assert.False(t, ok)
}

func TestPickSeed_Deterministic(t *testing.T) {
	answers := chat.Answers{Pace: "fast"}

	a, _ := chat.PickSeed(testCatalog(), answers, rand.New(rand.NewPCG(7, 7)))
	b, _ := chat.PickSeed(testCatalog(), answers, rand.New(rand.NewPCG(7, 7)))

	assert.Equal(t, a, b)
}

func TestInPeriod(t *testing.T) {
	assert.True(t, chat.InPeriod("Inception (2010)", chat.PeriodRecent))
	assert.False(t, chat.InPeriod("Memento (2000)", chat.PeriodRecent))
	assert.True(t, chat.InPeriod("Memento (2000)", chat.Period2000s))
	assert.False(t, chat.InPeriod("Inception (2010)", chat.Period2000s))
	assert.True(t, chat.InPeriod("Heat (1995)", chat.Period90s))
	assert.True(t, chat.InPeriod("Alien (1979)", chat.PeriodClassic))
	assert.False(t, chat.InPeriod("Untitled", chat.PeriodClassic))
	assert.True(t, chat.InPeriod("Untitled", chat.PeriodAny))
}

func TestFilterByPeriodAndTone(t *testing.T) {
	recs := []engine.Recommendation{
		{ID: 3, Title: "Inception (2010)", Categories: "Action|Crime|Drama|Mystery|Sci-Fi|Thriller|IMAX"},
		{ID: 1, Title: "Jumanji (1995)", Categories: "Adventure|Children|Fantasy"},
		{ID: 4, Title: "Interstellar (2014)", Categories: "Sci-Fi|IMAX"},
		{ID: 0, Title: "Toy Story (1995)", Categories: "Adventure|Animation|Children|Comedy|Fantasy"},
		{ID: 5, Title: "Untitled", Categories: ""},
	}

	assert.Equal(t, recs, chat.FilterByPeriodAndTone(recs, chat.PeriodAny, chat.ToneAny))

	got := chat.FilterByPeriodAndTone(recs, chat.PeriodRecent, chat.ToneAny)
	assert.Equal(t, []int{3, 4}, ids(got))

	got = chat.FilterByPeriodAndTone(recs, chat.PeriodAny, chat.ToneLight)
	assert.Equal(t, []int{1, 0}, ids(got))

	got = chat.FilterByPeriodAndTone(recs, chat.PeriodRecent, chat.ToneDark)
	assert.Equal(t, []int{3}, ids(got))

	assert.Empty(t, chat.FilterByPeriodAndTone(recs, chat.PeriodClassic, chat.ToneAny))
}

func ids(recs []engine.Recommendation) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
