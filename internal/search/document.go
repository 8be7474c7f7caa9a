package search

import (
	"strings"
	"unicode"
)

// Document is a row of the vector store. ID is the row position.
type Document struct {
	ID      int
	Content string
	Vector  SparseVector
}

// Tokenize splits text into lowercase word tokens of at least two runes
// and drops English stop words.
func Tokenize(text string) []string {
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c) && c != '_'
	}
	fields := strings.FieldsFunc(strings.ToLower(text), f)
	var tokens []string
	for _, field := range fields {
		if len([]rune(field)) < 2 || IsStopWord(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}
