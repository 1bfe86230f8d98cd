package chunk

import (
	"unicode"
)

// DefaultMaxChunkChars bounds chunk length in runes.
const DefaultMaxChunkChars = 1000

// Chunker greedily packs whole sentences into chunks of at most MaxChunkChars runes.
type Chunker struct {
	maxChunkChars int
}

// New returns a Chunker with the given bound. Non-positive values use DefaultMaxChunkChars.
func New(maxChunkChars int) *Chunker {
	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}
	return &Chunker{maxChunkChars: maxChunkChars}
}

// MaxChunkChars returns the chunk bound in runes.
func (c *Chunker) MaxChunkChars() int {
	return c.maxChunkChars
}

// Split sanitizes text and divides it into chunks. Sentences are joined with
// a single space while they fit; a sentence longer than the bound is cut into
// bound-sized pieces and its remainder starts the next chunk.
// Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	clean := Sanitize(text)
	if clean == "" {
		return nil
	}

	var chunks []string
	var buf []rune
	flush := func() {
		if s := Sanitize(string(buf)); s != "" {
			chunks = append(chunks, s)
		}
		buf = buf[:0]
	}

	for _, sentence := range Sentences(clean) {
		s := []rune(sentence)
		switch {
		case len(buf) == 0 && len(s) <= c.maxChunkChars:
			buf = append(buf, s...)
		case len(buf) > 0 && len(buf)+1+len(s) <= c.maxChunkChars:
			buf = append(buf, ' ')
			buf = append(buf, s...)
		default:
			if len(buf) > 0 {
				flush()
			}
			for len(s) > c.maxChunkChars {
				buf = append(buf, s[:c.maxChunkChars]...)
				flush()
				s = s[c.maxChunkChars:]
			}
			buf = append(buf, s...)
		}
	}
	flush()
	return chunks
}

// Sentences splits sanitized text after '.', '!' or '?' when followed by
// whitespace or the end of text. Sentences are returned without the
// separating space.
func Sentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := trimSpaceRunes(runes[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := trimSpaceRunes(runes[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func trimSpaceRunes(r []rune) string {
	for len(r) > 0 && unicode.IsSpace(r[0]) {
		r = r[1:]
	}
	for len(r) > 0 && unicode.IsSpace(r[len(r)-1]) {
		r = r[:len(r)-1]
	}
	return string(r)
}
