package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Media types understood by the Extractor.
const (
	MediaTypePlain     = "text/plain"
	MediaTypeMarkdown  = "text/markdown"
	MediaTypeXMarkdown = "text/x-markdown"
	MediaTypePDF       = "application/pdf"
	MediaTypeXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MediaTypeXLS       = "application/vnd.ms-excel"
	MediaTypeDOC       = "application/msword"
	MediaTypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// WordPlaceholder is returned as the text of every Word document.
const WordPlaceholder = "Word document text extraction is not yet supported."

// Section is a contiguous piece of extracted text with its location.
type Section struct {
	Page  int    // 1-based page number, 0 when not paginated
	Sheet string // sheet name for spreadsheets
	Text  string
}

// Extraction is the ordered result of extracting one document.
type Extraction struct {
	Sections []Section
}

// Text joins the sections with a blank line.
func (e *Extraction) Text() string {
	parts := make([]string, 0, len(e.Sections))
	for _, s := range e.Sections {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n\n")
}

type extractFunc func(data []byte) ([]Section, error)

// Extractor dispatches on media type to a format-specific extractor.
type Extractor struct {
	formats map[string]extractFunc
	logger  *slog.Logger
}

// Option is a functional option for configuring an Extractor.
type Option func(*Extractor) error

// WithLogger sets the logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "extractor")
		return nil
	}
}

// New creates an Extractor for every supported media type.
func New(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		logger: slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.formats = map[string]extractFunc{
		MediaTypePlain:     extractPlain,
		MediaTypeMarkdown:  extractPlain,
		MediaTypeXMarkdown: extractPlain,
		MediaTypePDF:       extractPDF,
		MediaTypeXLSX:      extractXLSX,
		MediaTypeXLS:       extractXLS,
		MediaTypeDOC:       extractWord,
		MediaTypeDOCX:      extractWord,
	}
	return e, nil
}

// NormalizeMediaType lowercases a media type and strips its parameters.
func NormalizeMediaType(mediaType string) string {
	base, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

var extensionTypes = map[string]string{
	".txt":      MediaTypePlain,
	".md":       MediaTypeMarkdown,
	".markdown": MediaTypeMarkdown,
	".pdf":      MediaTypePDF,
	".xlsx":     MediaTypeXLSX,
	".xls":      MediaTypeXLS,
	".doc":      MediaTypeDOC,
	".docx":     MediaTypeDOCX,
}

// MediaTypeFromName guesses a media type from a filename extension.
// It returns "" for unknown extensions.
func MediaTypeFromName(name string) string {
	return extensionTypes[strings.ToLower(path.Ext(name))]
}

// IsSupported reports whether mediaType can be extracted.
func (e *Extractor) IsSupported(mediaType string) bool {
	_, ok := e.formats[NormalizeMediaType(mediaType)]
	return ok
}

// Extract converts data of the given media type to text sections.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (*Extraction, error) {
	mt := NormalizeMediaType(mediaType)
	fn, ok := e.formats[mt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sections, err := fn(data)
	if err != nil {
		e.logger.Warn("extraction failed", "media_type", mt, "size", len(data), "err", err)
		return nil, err
	}
	e.logger.Debug("extracted document", "media_type", mt, "sections", len(sections))
	return &Extraction{Sections: sections}, nil
}

func extractPlain(data []byte) ([]Section, error) {
	return []Section{{Text: string(data)}}, nil
}

func extractWord(data []byte) ([]Section, error) {
	return []Section{{Text: WordPlaceholder}}, nil
}
