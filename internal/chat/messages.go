package chat

import (
	"fmt"
	"strings"

	"github.com/cinematch/backend/internal/engine"
)

const (
	commandMore    = "more"
	commandRestart = "restart"
)

const (
	greetingMessage = "Hey! I'm your movie assistant.\n\n" +
		"Let's find something you'd actually want to watch.\n\n" +
		"1. What kind of mood are you in right now?"

	restartMessage = "No problem, let's start over!\n\n" +
		"1. What kind of mood are you in right now?"

	genreQuestion = "Nice, got it.\n\n" +
		"2. What kind of movies or genres do you generally enjoy?\n" +
		"(e.g. action, romance, horror, sci-fi, comedy)"

	paceQuestion = "Good taste.\n\n" +
		"3. Do you prefer slow & deep, balanced, or fast & intense movies?\n" +
		"You can describe it in your own words."

	likedQuestion = "Gotcha.\n\n" +
		"4. Name 2-3 movies you liked recently.\n" +
		"(Comma separated, e.g. \"Inception, Interstellar, Shutter Island\", or type \"skip\".)"

	periodQuestion = "Nice picks.\n\n" +
		"5. Do you prefer something recent, 2000s, 90s, or more of a classic?\n" +
		"You can say things like \"recent\", \"90s\", \"older classic\"."

	toneQuestion = "Cool.\n\n" +
		"6. Do you want something light/family-friendly, or dark/serious/intense?\n" +
		"Again, feel free to describe it in your own words."

	noMatchMessage = "Hmm, I couldn't find anything that matches all of that.\n\n" +
		"Try describing your mood and preferences a bit differently, or type \"restart\" to start over."

	noMoreMessage = "I don't have more options from that set.\n\n" +
		"You can type \"restart\" to answer the questions again and refine your taste."

	helpMessage = "If you'd like more options, type \"more\".\n\n" +
		"If you want to start over with new preferences, type \"restart\"."
)

// nextQuestion is asked after the answer to the step is stored
var nextQuestion = map[Step]string{
	StepMood:   genreQuestion,
	StepGenre:  paceQuestion,
	StepPace:   likedQuestion,
	StepLiked:  periodQuestion,
	StepPeriod: toneQuestion,
}

func recommendationMessage(r engine.Recommendation) string {
	return fmt.Sprintf("Thanks, that gives me a pretty clear idea of your taste.\n\n"+
		"Based on everything you said, here's a movie I strongly recommend:\n\n"+
		"%s\nGenres: %s\n\n"+
		"If you're not satisfied, type \"more\" and I'll suggest a few more options.\n"+
		"You can also type \"restart\" to try a completely different vibe.",
		r.Title, displayCategories(r.Categories))
}

func moreMessage(recs []engine.Recommendation) string {
	var b strings.Builder
	b.WriteString("Here are some more movies I think you'd enjoy:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "\n- %s\n  Genres: %s", r.Title, displayCategories(r.Categories))
	}
	return b.String()
}

func displayCategories(categories string) string {
	if categories == "" {
		return "-"
	}
	return categories
}
