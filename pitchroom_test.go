package pitchroom

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/ai/mock"
	"github.com/poiesic/pitchroom/chat"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/extract"
	"github.com/poiesic/pitchroom/filestore"
	"github.com/poiesic/pitchroom/notify"
	"github.com/poiesic/pitchroom/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metricsText = "Monthly recurring revenue reached 120k in March. " +
	"Net revenue retention is 135 percent. " +
	"Gross margin improved to 78 percent after the infrastructure migration."

type fixture struct {
	platform  *Platform
	embedder  *mock.MockEmbedder
	completer *mock.MockCompleter
	events    *notify.Recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		embedder:  mock.NewMockEmbedder(),
		completer: mock.NewMockCompleter(ai.FamilyOpenAI, "Revenue grew strongly, see metrics.md for details."),
		events:    &notify.Recorder{},
	}
	base := []Option{
		WithInMemory(),
		WithFileStoreURL(t.TempDir()),
		WithEmbedder(f.embedder),
		WithCompletionProvider(f.completer),
		WithNotifier(f.events),
		WithPoolSize(2),
	}
	p, err := NewPlatform("", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	f.platform = p
	return f
}

func (f *fixture) ingest(t *testing.T, projectID core.ID, name, text string) *core.Document {
	t.Helper()
	doc, err := f.platform.Ingest(context.Background(), projectID, []byte(text), name, "")
	require.NoError(t, err)
	require.Equal(t, core.StatusProcessing, doc.Status)
	f.platform.Wait()
	done, err := f.platform.Document(context.Background(), doc.Id)
	require.NoError(t, err)
	return done
}

func eventNames(r *notify.Recorder) []string {
	var names []string
	for _, e := range r.Events() {
		names = append(names, e.Event)
	}
	return names
}

func TestNewPlatform(t *testing.T) {
	t.Run("persistent database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		p, err := NewPlatform(dir, WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		require.NotNil(t, p)

		assert.NotNil(t, p.repos)
		assert.Equal(t, "file://"+filepath.Join(dir, "files"), p.files.BaseURL())
		assert.Empty(t, p.Families())
		assert.NoError(t, p.Close())
	})

	t.Run("default provider from ai config", func(t *testing.T) {
		p, err := NewPlatform("", WithInMemory(), WithAIConfig(ai.NewConfig(ai.WithOpenAIKey("sk-test"))))
		require.NoError(t, err)
		defer p.Close()

		assert.NotNil(t, p.provider)
		assert.Equal(t, []ai.Family{ai.FamilyOpenAI}, p.Families())
	})

	t.Run("path required", func(t *testing.T) {
		p, err := NewPlatform("  ")
		assert.ErrorIs(t, err, ErrPathRequired)
		assert.Nil(t, p)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		p, err := NewPlatform(tmpFile, WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, p)
	})

	t.Run("scratch file store removed on close", func(t *testing.T) {
		p, err := NewPlatform("", WithInMemory(), WithEmbedder(mock.NewMockEmbedder()))
		require.NoError(t, err)
		scratch := p.scratch
		require.DirExists(t, scratch)

		require.NoError(t, p.Close())
		assert.NoDirExists(t, scratch)
	})
}

func TestPlatform_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("completes and notifies", func(t *testing.T) {
		f := newFixture(t)
		doc := f.ingest(t, 7, "metrics.md", metricsText)

		assert.Equal(t, core.StatusCompleted, doc.Status)
		assert.Equal(t, extract.MediaTypeMarkdown, doc.MediaType)
		assert.Equal(t, core.IDFromContent([]byte(metricsText)), doc.Checksum)
		assert.Equal(t, int64(len(metricsText)), doc.SizeBytes)
		assert.Positive(t, doc.TokenCount)
		assert.Equal(t, 1, doc.PageEstimate)
		assert.Contains(t, eventNames(f.events), notify.EventDocumentProcessed)

		docs, err := f.platform.Documents(ctx, 7)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, doc.Id, docs[0].Id)
	})

	t.Run("explicit media type wins", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.platform.Ingest(ctx, 1, []byte(metricsText), "notes.bin", "Text/Plain; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, extract.MediaTypePlain, doc.MediaType)
		f.platform.Wait()
	})

	t.Run("unsupported type fails the document", func(t *testing.T) {
		f := newFixture(t)
		doc := f.ingest(t, 1, "archive.zip", "PK")

		assert.Equal(t, core.StatusFailed, doc.Status)
		assert.NotEmpty(t, doc.Error)
	})

	t.Run("name required", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.platform.Ingest(ctx, 1, []byte("x"), " ", extract.MediaTypePlain)
		assert.ErrorIs(t, err, ErrNameRequired)
	})
}

func TestPlatform_IngestPDFKeepsPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithTopK(50))
	data, err := os.ReadFile(filepath.Join("extract", "testdata", "sample.pdf"))
	require.NoError(t, err)

	doc := f.ingest(t, 4, "deck.pdf", string(data))
	require.Equal(t, core.StatusCompleted, doc.Status, doc.Error)
	assert.Equal(t, extract.MediaTypePDF, doc.MediaType)

	chunks, err := f.platform.Search(ctx, 4, "continued from page 1", 50)
	require.NoError(t, err)
	pages := map[int]bool{}
	for _, sc := range chunks {
		assert.Equal(t, "deck.pdf", sc.Chunk.Metadata.SourceFilename)
		pages[sc.Chunk.Metadata.Page] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true}, pages)

	_, err = f.platform.Chat(ctx, chat.Request{ProjectID: 4, Text: "What happens on page two?"})
	require.NoError(t, err)
	system := f.completer.LastRequest().System
	assert.Contains(t, system, "Source: deck.pdf, page 1\n")
	assert.Contains(t, system, "Source: deck.pdf, page 2\n")
}

func TestPlatform_Chat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ingest(t, 7, "metrics.md", metricsText)

	link, err := f.platform.CreateLink(ctx, 7)
	require.NoError(t, err)
	assert.True(t, link.Active)

	resp, err := f.platform.Chat(ctx, chat.Request{
		LinkID:        link.Id,
		InvestorEmail: "lp@fund.example",
		Text:          "How fast is revenue growing?",
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", f.completer.LastRequest().Model)
	assert.Contains(t, f.completer.LastRequest().System, "Source: metrics.md")
	require.NotEmpty(t, resp.Message.Citations)
	assert.Equal(t, "metrics.md", resp.Message.Citations[0].Source)
	assert.Positive(t, resp.Totals.TotalTokens)
	assert.Positive(t, resp.Totals.CostUSD)

	conv, err := f.platform.Conversation(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, core.ID(7), conv.ProjectId)
	assert.Equal(t, resp.Totals.TotalTokens, conv.TotalTokens)

	msgs, err := f.platform.Messages(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Role)

	f.platform.Wait()
	assert.Contains(t, eventNames(f.events), notify.EventInvestorEngaged)

	t.Run("revoked link", func(t *testing.T) {
		_, err := f.platform.SetLinkActive(ctx, link.Id, false)
		require.NoError(t, err)

		_, err = f.platform.Chat(ctx, chat.Request{LinkID: link.Id, Text: "Still there?"})
		assert.ErrorIs(t, err, chat.ErrLinkInactive)
	})
}

func TestPlatform_Search(t *testing.T) {
	f := newFixture(t)
	f.ingest(t, 3, "metrics.md", metricsText)

	results, err := f.platform.Search(context.Background(), 3, "margin", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "metrics.md", results[0].Chunk.Metadata.SourceFilename)

	empty, err := f.platform.Search(context.Background(), 99, "margin", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPlatform_DeleteDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("removes chunks and file", func(t *testing.T) {
		f := newFixture(t)
		doc := f.ingest(t, 1, "metrics.md", metricsText)
		require.Equal(t, core.StatusCompleted, doc.Status)

		require.NoError(t, f.platform.DeleteDocument(ctx, doc.Id))

		_, err := f.platform.Document(ctx, doc.Id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		n, err := f.platform.repos.Chunks.CountChunks(ctx, doc.Id)
		require.NoError(t, err)
		assert.Zero(t, n)
		_, err = f.platform.files.Read(ctx, doc.StoredName)
		assert.ErrorIs(t, err, filestore.ErrFileNotFound)
	})

	t.Run("processing document rejected", func(t *testing.T) {
		f := newFixture(t)
		doc, err := f.platform.repos.Documents.AddDocument(ctx, &core.Document{
			ProjectId:    1,
			OriginalName: "pending.txt",
			MediaType:    extract.MediaTypePlain,
		})
		require.NoError(t, err)

		err = f.platform.DeleteDocument(ctx, doc.Id)
		assert.ErrorIs(t, err, ErrDocumentProcessing)
	})

	t.Run("unknown document", func(t *testing.T) {
		f := newFixture(t)
		err := f.platform.DeleteDocument(ctx, 404)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestPlatform_Recover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	stored, err := f.platform.files.Save(ctx, "deck.txt", []byte(metricsText))
	require.NoError(t, err)
	doc, err := f.platform.repos.Documents.AddDocument(ctx, &core.Document{
		ProjectId:    2,
		StoredName:   stored,
		OriginalName: "deck.txt",
		MediaType:    extract.MediaTypePlain,
	})
	require.NoError(t, err)

	n, err := f.platform.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Eventually(t, func() bool {
		got, err := f.platform.Document(ctx, doc.Id)
		return err == nil && got.Status == core.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestPlatform_Reembed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ingest(t, 1, "metrics.md", metricsText)
	f.ingest(t, 1, "team.txt", strings.Repeat("The founding team previously scaled a payments company. ", 30))

	next := mock.NewMockEmbedder()
	result, err := f.platform.Reembed(ctx, next, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Documents)
	assert.Positive(t, result.Chunks)
	assert.Len(t, next.Texts(), result.Chunks)
}
