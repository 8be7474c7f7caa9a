package chat

import (
	"github.com/samber/lo"

	"github.com/cinematch/backend/internal/catalog"
	"github.com/cinematch/backend/internal/engine"
)

var (
	lightCategories = []string{"Animation", "Children", "Comedy", "Family"}
	darkCategories  = []string{"Drama", "Thriller", "Horror", "Crime"}
)

// InPeriod reports whether a title's year falls in the period.
// Titles without a year only pass PeriodAny.
func InPeriod(title string, p Period) bool {
	if p == PeriodAny {
		return true
	}
	year, ok := catalog.ExtractYear(title)
	if !ok {
		return false
	}
	switch p {
	case PeriodRecent:
		return year >= 2010
	case Period2000s:
		return year >= 2000 && year < 2010
	case Period90s:
		return year >= 1990 && year < 2000
	case PeriodClassic:
		return year < 1990
	}
	return true
}

// HasTone reports whether the categories suit the tone
func HasTone(categories string, t Tone) bool {
	switch t {
	case ToneLight:
		return containsAny(categories, lightCategories)
	case ToneDark:
		return containsAny(categories, darkCategories)
	}
	return true
}

// FilterByPeriodAndTone keeps the recommendations matching both preferences,
// preserving rank order. The result may be empty.
func FilterByPeriodAndTone(recs []engine.Recommendation, p Period, t Tone) []engine.Recommendation {
	return lo.Filter(recs, func(r engine.Recommendation, _ int) bool {
		return InPeriod(r.Title, p) && HasTone(r.Categories, t)
	})
}
