package chat

import (
	"strconv"
	"strings"

	"github.com/poiesic/pitchroom/core"
)

// NoDocumentsContext stands in for the context block when nothing was retrieved.
const NoDocumentsContext = "No documents are available for this project."

const systemTemplate = `You are an assistant answering questions from investors about a startup on behalf of its founders.

Answer using only the information in the context below. When the context does not contain the answer, say that the information is not available in the shared documents instead of guessing. Mention the source file when you rely on it.

Keep a professional, concise and factual tone suitable for investors.

Context:
%CONTEXT%`

// AssembleContext renders retrieved chunks in rank order, one block per
// chunk, separated by a blank line.
func AssembleContext(chunks []*core.ScoredChunk) string {
	if len(chunks) == 0 {
		return NoDocumentsContext
	}

	blocks := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		c := sc.Chunk
		var b strings.Builder
		b.WriteString("Source: ")
		b.WriteString(c.Metadata.SourceFilename)
		if c.Metadata.Page > 0 {
			b.WriteString(", page ")
			b.WriteString(strconv.Itoa(c.Metadata.Page))
		}
		if c.Metadata.Sheet != "" {
			b.WriteString(", sheet ")
			b.WriteString(c.Metadata.Sheet)
		}
		b.WriteString("\nContent: ")
		b.WriteString(c.Content)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// SystemPrompt interpolates a context block into the investor assistant instructions.
func SystemPrompt(contextBlock string) string {
	if strings.TrimSpace(contextBlock) == "" {
		contextBlock = NoDocumentsContext
	}
	return strings.Replace(systemTemplate, "%CONTEXT%", contextBlock, 1)
}
