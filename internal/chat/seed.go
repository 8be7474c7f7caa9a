package chat

import (
	"math/rand/v2"
	"strings"

	"github.com/samber/lo"

	"github.com/cinematch/backend/internal/catalog"
)

const skipAnswer = "skip"

// FindLikedTitles matches comma separated title fragments against the catalog.
// Each fragment contributes every title containing it, in catalog order.
func FindLikedTitles(entries []catalog.Entry, text string) []string {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, skipAnswer) {
		return nil
	}

	parts := lo.FilterMap(strings.Split(text, ","), func(p string, _ int) (string, bool) {
		p = strings.ToLower(strings.TrimSpace(p))
		return p, p != ""
	})

	var matched []string
	for _, part := range parts {
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), part) {
				matched = append(matched, e.Title)
			}
		}
	}
	return lo.Uniq(matched)
}

// TargetGenres combines the genre and pace preferences of the answers
func TargetGenres(a Answers) []string {
	return lo.Union(GenrePreferences(a.Mood, a.Genre), PacePreferences(a.Pace))
}

// PickSeed chooses the title recommendations are built around.
// A liked title that exists in the catalog is preferred; otherwise a random
// entry whose categories mention one of the target genres is picked.
func PickSeed(entries []catalog.Entry, a Answers, rng *rand.Rand) (string, bool) {
	if liked := FindLikedTitles(entries, a.Liked); len(liked) > 0 {
		return liked[rng.IntN(len(liked))], true
	}

	categorized := lo.Filter(entries, func(e catalog.Entry, _ int) bool {
		return len(e.Categories) > 0
	})
	if len(categorized) == 0 {
		categorized = entries
	}

	targets := TargetGenres(a)
	candidates := lo.Filter(categorized, func(e catalog.Entry, _ int) bool {
		return containsAny(e.CategoryString(), targets)
	})
	if len(candidates) == 0 {
		candidates = categorized
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[rng.IntN(len(candidates))].Title, true
}

func containsAny(s string, subs []string) bool {
	return lo.SomeBy(subs, func(sub string) bool {
		return strings.Contains(s, sub)
	})
}
