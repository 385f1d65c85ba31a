package textproc

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Tokenize lowercases text, splits it on non-letter boundaries, drops
// stopwords, and stems each remaining token to its root form.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		stemmed, err := snowball.Stem(w, "english", false)
		if err != nil || stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}
