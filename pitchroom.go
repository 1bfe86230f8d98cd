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

package pitchroom

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/ai/anthropic"
	"github.com/poiesic/pitchroom/ai/googleai"
	"github.com/poiesic/pitchroom/ai/openai"
	"github.com/poiesic/pitchroom/chat"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/extract"
	"github.com/poiesic/pitchroom/filestore"
	"github.com/poiesic/pitchroom/ingestion"
	"github.com/poiesic/pitchroom/ledger"
	"github.com/poiesic/pitchroom/notify"
	"github.com/poiesic/pitchroom/reembed"
	"github.com/poiesic/pitchroom/search"
	"github.com/poiesic/pitchroom/storage/badger"
)

// DefaultModel answers chat requests that name no model.
const DefaultModel = "gpt-4o-mini"

// notifyWorkers bounds concurrent webhook deliveries.
const notifyWorkers = 4

// Platform wires storage, ingestion, retrieval and chat together.
type Platform struct {
	repos     *badger.Repositories
	files     *filestore.Store
	provider  ai.Provider
	embedder  ai.Embedder
	notifier  *notify.Async
	pipeline  *ingestion.Pipeline
	retriever *search.Retriever
	router    *chat.Router
	ledger    *ledger.Ledger
	chat      *chat.Service
	model     string
	scratch   string
	logger    *slog.Logger
}

// Option configures a Platform.
type Option func(*options)

type options struct {
	inMemory      bool
	fileStoreURL  string
	aiConfig      *ai.Config
	embedder      ai.Embedder
	completers    []ai.CompletionProvider
	notifier      notify.Notifier
	maxChunkChars int
	poolSize      int
	topK          int
	minSimilarity *float32
	rates         ledger.RateTable
	catalog       chat.Catalog
	model         string
	logger        *slog.Logger
}

// WithInMemory keeps the database in memory. Uploaded files go to a
// temporary directory removed on Close unless WithFileStoreURL is given.
func WithInMemory() Option {
	return func(o *options) { o.inMemory = true }
}

// WithFileStoreURL sets where uploaded files are kept. Plain paths are
// treated as local directories.
func WithFileStoreURL(u string) Option {
	return func(o *options) { o.fileStoreURL = u }
}

// WithAIConfig sets the provider configuration used for the embedder and
// for every completion family that has a key.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) { o.aiConfig = cfg }
}

// WithEmbedder injects the embedding provider instead of building one
// from the AI configuration.
func WithEmbedder(e ai.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithCompletionProvider registers p for its family, replacing any
// provider built from the AI configuration.
func WithCompletionProvider(p ai.CompletionProvider) Option {
	return func(o *options) { o.completers = append(o.completers, p) }
}

// WithNotifier sets where lifecycle events are delivered.
// Default logs them.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithMaxChunkChars(n int) Option {
	return func(o *options) { o.maxChunkChars = n }
}

func WithPoolSize(n int) Option {
	return func(o *options) { o.poolSize = n }
}

func WithTopK(k int) Option {
	return func(o *options) { o.topK = k }
}

// WithMinSimilarity drops retrieved chunks scoring below min.
func WithMinSimilarity(min float32) Option {
	return func(o *options) { o.minSimilarity = &min }
}

// WithRates sets the per-thousand-token price list.
func WithRates(rates ledger.RateTable) Option {
	return func(o *options) { o.rates = rates }
}

// WithCatalog sets the models offered to investors.
func WithCatalog(c chat.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithDefaultModel sets the model used when a chat request names none.
func WithDefaultModel(id string) Option {
	return func(o *options) { o.model = id }
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewPlatform opens the database at path and wires every component.
// path is ignored with WithInMemory.
func NewPlatform(path string, opts ...Option) (*Platform, error) {
	o := &options{
		aiConfig: ai.DefaultConfig(),
		model:    DefaultModel,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.aiConfig == nil {
		o.aiConfig = ai.DefaultConfig()
	}
	if !o.inMemory && strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	p := &Platform{
		model:  o.model,
		logger: o.logger.With("component", "platform"),
	}
	fail := func(err error) (*Platform, error) {
		return nil, errors.Join(err, p.Close())
	}

	var err error
	if o.inMemory {
		p.repos, err = badger.NewMemoryRepositories()
	} else {
		p.repos, err = badger.OpenRepositories(path, o.logger)
	}
	if err != nil {
		return nil, err
	}

	storeURL := o.fileStoreURL
	if storeURL == "" {
		if o.inMemory {
			if p.scratch, err = os.MkdirTemp("", "pitchroom-files-"); err != nil {
				return fail(err)
			}
			storeURL = p.scratch
		} else {
			storeURL = filepath.Join(path, "files")
		}
	}
	if p.files, err = filestore.New(storeURL, filestore.WithLogger(o.logger)); err != nil {
		return fail(err)
	}

	p.embedder = o.embedder
	if p.embedder == nil {
		if p.provider, err = openai.NewProvider(o.aiConfig); err != nil {
			return fail(err)
		}
		p.embedder = p.provider.Embedder()
	}

	base := o.notifier
	if base == nil {
		base = notify.NewLogNotifier(o.logger)
	}
	if p.notifier, err = notify.NewAsync(base, notifyWorkers, o.logger); err != nil {
		return fail(err)
	}

	pipelineOpts := []ingestion.Option{
		ingestion.WithNotifier(p.notifier),
		ingestion.WithLogger(o.logger),
	}
	if o.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(o.poolSize))
	}
	if o.maxChunkChars > 0 {
		pipelineOpts = append(pipelineOpts, ingestion.WithMaxChunkChars(o.maxChunkChars))
	}
	if p.pipeline, err = ingestion.NewPipeline(p.repos.Documents, p.repos.Chunks, p.files, p.embedder, pipelineOpts...); err != nil {
		return fail(err)
	}

	retrieverOpts := []search.Option{search.WithLogger(o.logger)}
	if o.minSimilarity != nil {
		retrieverOpts = append(retrieverOpts, search.WithMinSimilarity(*o.minSimilarity))
	}
	if p.retriever, err = search.NewRetriever(p.repos.Documents, p.repos.Chunks, p.embedder, retrieverOpts...); err != nil {
		return fail(err)
	}

	p.router = chat.NewRouter(o.catalog, o.logger)
	configured, err := configuredCompleters(o.aiConfig, p.provider)
	if err != nil {
		return fail(err)
	}
	for _, c := range append(configured, o.completers...) {
		p.router.Register(c)
	}

	if p.ledger, err = ledger.New(p.repos.Conversations, o.rates, o.logger); err != nil {
		return fail(err)
	}

	chatOpts := []chat.Option{
		chat.WithLogger(o.logger),
		chat.WithNotifier(p.notifier),
	}
	if o.topK > 0 {
		chatOpts = append(chatOpts, chat.WithTopK(o.topK))
	}
	p.chat, err = chat.NewService(p.repos.Links, p.repos.Conversations, p.repos.Messages,
		p.retriever, p.router, p.ledger, chatOpts...)
	if err != nil {
		return fail(err)
	}

	p.logger.Debug("platform ready", "families", p.router.Families(), "files", p.files.BaseURL())
	return p, nil
}

// configuredCompleters builds a provider for every family with a key.
func configuredCompleters(cfg *ai.Config, provider ai.Provider) ([]ai.CompletionProvider, error) {
	var out []ai.CompletionProvider

	switch {
	case provider != nil && provider.Completer() != nil:
		out = append(out, provider.Completer())
	case provider == nil && cfg.OpenAIKey != "":
		c, err := openai.NewChatProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		out = append(out, c)
	}

	if cfg.AnthropicKey != "" {
		c, err := anthropic.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		out = append(out, c)
	}
	if cfg.GoogleKey != "" {
		c, err := googleai.New(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("googleai: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Ingest stores an upload and queues it for processing. The returned
// document is still processing; its outcome is recorded on the document.
// An empty mediaType is guessed from the filename.
func (p *Platform) Ingest(ctx context.Context, projectID core.ID, data []byte, originalName, mediaType string) (*core.Document, error) {
	name := strings.TrimSpace(originalName)
	if name == "" {
		return nil, ErrNameRequired
	}
	mt := extract.NormalizeMediaType(mediaType)
	if mt == "" {
		mt = extract.MediaTypeFromName(name)
	}

	stored, err := p.files.Save(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	doc, err := p.repos.Documents.AddDocument(ctx, &core.Document{
		ProjectId:    projectID,
		StoredName:   stored,
		OriginalName: name,
		SizeBytes:    int64(len(data)),
		MediaType:    mt,
		Checksum:     core.IDFromContent(data),
	})
	if err != nil {
		if derr := p.files.Delete(ctx, stored); derr != nil {
			p.logger.Warn("failed to remove orphaned upload", "stored_name", stored, "err", derr)
		}
		return nil, err
	}

	if err := p.pipeline.Submit(doc.Id); err != nil {
		// The document stays in processing and is picked up by Recover.
		p.logger.Error("failed to queue document", "document_id", doc.Id, "err", err)
		return nil, fmt.Errorf("failed to queue document %d: %w", doc.Id, err)
	}
	p.logger.Info("document uploaded",
		"document_id", doc.Id,
		"project_id", projectID,
		"filename", name,
		"size", doc.SizeBytes)
	return doc, nil
}

// Chat answers an investor question. Requests without a model use the
// platform default.
func (p *Platform) Chat(ctx context.Context, req chat.Request) (*chat.Response, error) {
	if strings.TrimSpace(req.ModelID) == "" {
		req.ModelID = p.model
	}
	return p.chat.Chat(ctx, req)
}

// Search returns the k chunks of the project most similar to query.
func (p *Platform) Search(ctx context.Context, projectID core.ID, query string, k int) ([]*core.ScoredChunk, error) {
	return p.retriever.Retrieve(ctx, projectID, query, k)
}

// Documents lists every document of a project in upload order.
func (p *Platform) Documents(ctx context.Context, projectID core.ID) ([]*core.Document, error) {
	return p.repos.Documents.ListDocuments(ctx, projectID)
}

func (p *Platform) Document(ctx context.Context, id core.ID) (*core.Document, error) {
	return p.repos.Documents.GetDocument(ctx, id)
}

// DeleteDocument removes a document with its chunks and stored file.
// Documents still processing cannot be deleted.
func (p *Platform) DeleteDocument(ctx context.Context, id core.ID) error {
	doc, err := p.repos.Documents.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == core.StatusProcessing {
		return fmt.Errorf("%w: %d", ErrDocumentProcessing, id)
	}

	removed, err := p.repos.Documents.DeleteDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := p.files.Delete(ctx, doc.StoredName); err != nil {
		return fmt.Errorf("failed to delete stored file: %w", err)
	}
	p.logger.Info("document deleted", "document_id", id, "chunks", removed)
	return nil
}

func (p *Platform) Conversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	return p.repos.Conversations.GetConversation(ctx, id)
}

// Messages returns a conversation's messages in timestamp order.
func (p *Platform) Messages(ctx context.Context, conversationID core.ID) ([]*core.Message, error) {
	return p.repos.Messages.GetMessages(ctx, conversationID)
}

// CreateLink creates an active shareable link to a project.
func (p *Platform) CreateLink(ctx context.Context, projectID core.ID) (*core.Link, error) {
	return p.repos.Links.AddLink(ctx, &core.Link{ProjectId: projectID, Active: true})
}

// SetLinkActive enables or revokes a link.
func (p *Platform) SetLinkActive(ctx context.Context, id core.ID, active bool) (*core.Link, error) {
	return p.repos.Links.SetLinkActive(ctx, id, active)
}

// Families returns the completion families that can answer chats.
func (p *Platform) Families() []ai.Family {
	return p.router.Families()
}

// Recover requeues documents left in processing by an earlier run.
func (p *Platform) Recover(ctx context.Context) (int, error) {
	return p.pipeline.Recover(ctx)
}

// Wait blocks until queued documents and pending notifications are done.
func (p *Platform) Wait() {
	p.pipeline.Wait()
	p.notifier.Wait()
}

// Reembed recomputes every stored chunk vector with embedder, or with the
// platform embedder when nil. Progress lines go to progress when set.
func (p *Platform) Reembed(ctx context.Context, embedder ai.Embedder, cfg *reembed.Config, progress io.Writer) (*reembed.Result, error) {
	if embedder == nil {
		embedder = p.embedder
	}
	r := reembed.NewReembedder(p.repos.Documents, p.repos.Chunks, embedder, cfg, progress, p.logger)
	return r.Run(ctx)
}

// Close stops ingestion and releases every resource. Documents interrupted
// mid-processing are resumed by Recover on the next start.
func (p *Platform) Close() error {
	var errs []error
	if p.pipeline != nil {
		p.pipeline.Release()
	}
	if p.notifier != nil {
		p.notifier.Wait()
		p.notifier.Release()
	}
	if p.provider != nil {
		if err := p.provider.Close(); err != nil {
			p.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if p.repos != nil {
		if err := p.repos.Close(); err != nil {
			p.logger.Error("error closing repositories", "err", err)
			errs = append(errs, err)
		}
	}
	if p.scratch != "" {
		errs = append(errs, os.RemoveAll(p.scratch))
	}
	return errors.Join(errs...)
}
