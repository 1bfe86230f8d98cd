// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/extract"
)

// processor runs one document to a terminal state.
type processor interface {
	process(ctx context.Context, id core.ID) (*core.Document, error)
}

// FileReader returns the stored bytes of an uploaded document.
type FileReader interface {
	Read(ctx context.Context, storedName string) ([]byte, error)
}

// documentProcessor extracts, chunks and embeds a single document.
type documentProcessor struct {
	files     FileReader
	extractor *extract.Extractor
	indexer   *indexer
	lifecycle *lifecycle
}

var _ processor = (*documentProcessor)(nil)

// process is idempotent: a document left in processing by an earlier run is
// purged and processed from scratch. Content errors mark the document failed
// and are not returned. Storage errors and cancellation are returned and
// leave the document in processing for a later recovery run.
func (dp *documentProcessor) process(ctx context.Context, id core.ID) (*core.Document, error) {
	doc, proceed, err := dp.lifecycle.begin(ctx, id)
	if err != nil || !proceed {
		return doc, err
	}

	res, chars, err := dp.run(ctx, doc)
	if err != nil {
		if isInterrupted(err) {
			return doc, err
		}
		return dp.lifecycle.fail(ctx, doc, err)
	}
	return dp.lifecycle.complete(ctx, doc, res, chars)
}

func (dp *documentProcessor) run(ctx context.Context, doc *core.Document) (indexResult, int, error) {
	data, err := dp.files.Read(ctx, doc.StoredName)
	if err != nil {
		return indexResult{}, 0, fmt.Errorf("failed to read stored file: %w", err)
	}

	ext, err := dp.extractor.Extract(ctx, data, doc.MediaType)
	if err != nil {
		return indexResult{}, 0, err
	}

	res, err := dp.indexer.index(ctx, doc, ext)
	if err != nil {
		return res, 0, err
	}
	if res.chunks == 0 {
		return res, 0, ErrEmptyExtraction
	}
	return res, utf8.RuneCountInString(ext.Text()), nil
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
