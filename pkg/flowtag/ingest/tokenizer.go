package ingest

import (
	"strings"
	"unicode"
)

// Token is one content run of the text handed to Tokenize. Original is the
// run exactly as it appears there; Normalized is its lowercase form with edge
// hyphens and underscores trimmed.
//
// Inside a Pipeline the tokenizer sees segmented text, so Original is already
// normalized and carries the underscores of merged n-grams. The user's
// surface text is kept in Processed.Input.
type Token struct {
	Original   string
	Normalized string
}

// Tokenizer splits text into content runs. Letters, digits, '-' and '_'
// are content; everything else separates tokens.
type Tokenizer struct{}

// NewTokenizer creates a tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize returns the tokens of text in order.
func (t *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}
		original := text[start:end]
		if word := cleanToken(strings.ToLower(original)); word != "" {
			tokens = append(tokens, Token{Original: original, Normalized: word})
		}
		start = -1
	}

	for i, r := range text {
		if isContent(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

// Strings returns the normalized forms of tokens.
func Strings(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Normalized
	}
	return out
}

func isContent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_'
}

// cleanToken strips leading/trailing hyphens and underscores and collapses
// consecutive hyphens.
func cleanToken(token string) string {
	token = strings.Trim(token, "-_")
	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}
	return token
}
