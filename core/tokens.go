package core

import "unicode/utf8"

// CharsPerToken is the heuristic used wherever a provider does not report usage.
const CharsPerToken = 4

// EstimateTokens approximates the token count of text as ceil(runes/4).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}
