package chat

import (
	"slices"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Period is the release era asked for by the user
type Period string

const (
	PeriodAny     Period = ""
	PeriodRecent  Period = "recent"
	Period2000s   Period = "2000s"
	Period90s     Period = "90s"
	PeriodClassic Period = "classic"
)

// Tone is the overall feel asked for by the user
type Tone string

const (
	ToneAny   Tone = ""
	ToneLight Tone = "light"
	ToneDark  Tone = "dark"
)

// keywordMatcher finds keyword occurrences anywhere in lowercased text
type keywordMatcher struct {
	machine *goahocorasick.Machine
	labels  map[string][]string
}

// newKeywordMatcher builds an automaton over the keys of keywords.
// Each keyword maps to the labels it contributes when found.
func newKeywordMatcher(keywords map[string][]string) *keywordMatcher {
	words := lo.Keys(keywords)
	slices.Sort(words)

	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = []rune(w)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		panic("chat: invalid keyword table: " + err.Error())
	}
	return &keywordMatcher{machine: m, labels: keywords}
}

// Labels returns the sorted distinct labels of every keyword found in text
func (k *keywordMatcher) Labels(text string) []string {
	content := []rune(strings.ToLower(text))
	if len(content) == 0 {
		return nil
	}

	var labels []string
	for _, term := range k.machine.MultiPatternSearch(content, false) {
		labels = append(labels, k.labels[string(term.Word)]...)
	}
	labels = lo.Uniq(labels)
	slices.Sort(labels)
	return labels
}

// Any reports whether text contains at least one keyword
func (k *keywordMatcher) Any(text string) bool {
	content := []rune(strings.ToLower(text))
	if len(content) == 0 {
		return false
	}
	return len(k.machine.MultiPatternSearch(content, true)) > 0
}

func keywordsOf(label string, words ...string) map[string][]string {
	m := make(map[string][]string, len(words))
	for _, w := range words {
		m[w] = []string{label}
	}
	return m
}

var genreKeywords = newKeywordMatcher(map[string][]string{
	"action":          {"Action"},
	"adventure":       {"Adventure"},
	"animation":       {"Animation"},
	"cartoon":         {"Animation"},
	"comedy":          {"Comedy"},
	"funny":           {"Comedy"},
	"crime":           {"Crime"},
	"drama":           {"Drama"},
	"emotional":       {"Drama"},
	"fantasy":         {"Fantasy"},
	"horror":          {"Horror"},
	"scary":           {"Horror"},
	"mystery":         {"Mystery"},
	"romance":         {"Romance"},
	"romantic":        {"Romance"},
	"love":            {"Romance"},
	"sci-fi":          {"Sci-Fi"},
	"science fiction": {"Sci-Fi"},
	"thriller":        {"Thriller"},
	"suspense":        {"Thriller"},
	"family":          {"Children"},
	"kids":            {"Children"},
})

var (
	slowPace = newKeywordMatcher(keywordsOf("slow", "slow", "calm", "relax", "deep", "thoughtful"))
	fastPace = newKeywordMatcher(keywordsOf("fast", "fast", "intense", "thrill", "edge", "exciting"))
)

var (
	slowGenres     = []string{"Drama", "Romance"}
	fastGenres     = []string{"Action", "Adventure", "Sci-Fi", "Thriller"}
	balancedGenres = []string{"Comedy", "Drama"}
)

// Checked in order, first match wins.
var periodRules = []struct {
	period  Period
	matcher *keywordMatcher
}{
	{PeriodRecent, newKeywordMatcher(keywordsOf("recent", "recent", "new", "latest", "modern", "after 2010"))},
	{Period2000s, newKeywordMatcher(keywordsOf("2000s", "2000", "2000s"))},
	{Period90s, newKeywordMatcher(keywordsOf("90s", "90s", "1990"))},
	{PeriodClassic, newKeywordMatcher(keywordsOf("classic", "80s", "70s", "60s", "old", "classic", "older"))},
}

var toneRules = []struct {
	tone    Tone
	matcher *keywordMatcher
}{
	{ToneLight, newKeywordMatcher(keywordsOf("light", "light", "family", "kids", "wholesome", "feel good", "happy"))},
	{ToneDark, newKeywordMatcher(keywordsOf("dark", "dark", "serious", "intense", "violent", "gritty", "heavy"))},
}

// GenrePreferences extracts category tags mentioned in the mood and genre answers
func GenrePreferences(mood, genre string) []string {
	return genreKeywords.Labels(mood + " " + genre)
}

// PacePreferences infers category tags from the pace answer.
// Slow wins over fast; no match means a balanced pick.
func PacePreferences(pace string) []string {
	switch {
	case slowPace.Any(pace):
		return slices.Clone(slowGenres)
	case fastPace.Any(pace):
		return slices.Clone(fastGenres)
	default:
		return slices.Clone(balancedGenres)
	}
}

// ParsePeriod maps a free text era answer to a Period
func ParsePeriod(text string) Period {
	for _, rule := range periodRules {
		if rule.matcher.Any(text) {
			return rule.period
		}
	}
	return PeriodAny
}

// ParseTone maps a free text tone answer to a Tone
func ParseTone(text string) Tone {
	for _, rule := range toneRules {
		if rule.matcher.Any(text) {
			return rule.tone
		}
	}
	return ToneAny
}
