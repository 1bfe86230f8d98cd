package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns one section per page that carries text.
// The parser panics on some malformed inputs; those surface as ErrCorruptFile.
func extractPDF(data []byte) (sections []Section, err error) {
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = fmt.Errorf("%w: pdf: %v", ErrCorruptFile, r)
		}
	}()

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: pdf: empty file", ErrCorruptFile)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %w", ErrCorruptFile, err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf page %d: %w", ErrCorruptFile, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, Section{Page: i, Text: text})
	}
	return sections, nil
}
