package badger

import (
	"context"
	"testing"

	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func addDoc(t *testing.T, repo storage.DocumentRepository, projectID core.ID, name string) *core.Document {
	t.Helper()
	doc, err := repo.AddDocument(context.Background(), &core.Document{
		ProjectId:    projectID,
		OriginalName: name,
		MediaType:    "text/plain",
	})
	require.NoError(t, err)
	return doc
}

func TestDocumentBasics(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	doc := addDoc(t, repos.Documents, 1, "deck.pdf")
	assert.NotZero(t, doc.Id)
	assert.Equal(t, core.StatusProcessing, doc.Status)
	assert.False(t, doc.CreatedAt.IsZero())

	got, err := repos.Documents.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "deck.pdf", got.OriginalName)
	assert.Equal(t, core.ID(1), got.ProjectId)
}

func TestGetDocument_NotFound(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Documents.GetDocument(context.Background(), 999)
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddDocument_Invalid(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Documents.AddDocument(context.Background(), &core.Document{ProjectId: 1})
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestListDocuments_ScopedToProject(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	a := addDoc(t, repos.Documents, 1, "a.md")
	b := addDoc(t, repos.Documents, 1, "b.md")
	addDoc(t, repos.Documents, 2, "other.md")

	docs, err := repos.Documents.ListDocuments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a.Id, docs[0].Id)
	assert.Equal(t, b.Id, docs[1].Id)

	docs, err = repos.Documents.ListDocuments(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentLifecycleTransitions(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	done := addDoc(t, repos.Documents, 1, "done.md")
	failed := addDoc(t, repos.Documents, 1, "failed.md")
	addDoc(t, repos.Documents, 1, "pending.md")

	completed, err := repos.Documents.CompleteDocument(ctx, done.Id, 600, 1)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, completed.Status)
	assert.Equal(t, int64(600), completed.TokenCount)
	assert.Equal(t, 1, completed.PageEstimate)

	f, err := repos.Documents.SetDocumentStatus(ctx, failed.Id, core.StatusFailed, "corrupt file")
	require.NoError(t, err)
	assert.Equal(t, "corrupt file", f.Error)

	t.Run("completed listed once", func(t *testing.T) {
		docs, err := repos.Documents.ListCompletedDocuments(ctx, 1)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, done.Id, docs[0].Id)
	})

	t.Run("status index follows transitions", func(t *testing.T) {
		processing, err := repos.Documents.ListDocumentsByStatus(ctx, core.StatusProcessing)
		require.NoError(t, err)
		require.Len(t, processing, 1)
		assert.Equal(t, "pending.md", processing[0].OriginalName)

		failedDocs, err := repos.Documents.ListDocumentsByStatus(ctx, core.StatusFailed)
		require.NoError(t, err)
		require.Len(t, failedDocs, 1)
	})

	t.Run("repeating a terminal status is a no-op", func(t *testing.T) {
		again, err := repos.Documents.CompleteDocument(ctx, done.Id, 1, 9)
		require.NoError(t, err)
		assert.Equal(t, int64(600), again.TokenCount)

		_, err = repos.Documents.SetDocumentStatus(ctx, failed.Id, core.StatusFailed, "other")
		require.NoError(t, err)
	})

	t.Run("terminal states are final", func(t *testing.T) {
		_, err := repos.Documents.SetDocumentStatus(ctx, done.Id, core.StatusFailed, "late")
		assert.ErrorIs(t, err, storage.ErrInvalidTransition)

		_, err = repos.Documents.CompleteDocument(ctx, failed.Id, 1, 1)
		assert.ErrorIs(t, err, storage.ErrInvalidTransition)
	})
}

func TestDeleteDocument(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	doc := addDoc(t, repos.Documents, 1, "gone.md")
	removed, err := repos.Documents.DeleteDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = repos.Documents.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	docs, err := repos.Documents.ListDocumentsByStatus(ctx, core.StatusProcessing)
	require.NoError(t, err)
	assert.Empty(t, docs)

	_, err = repos.Documents.DeleteDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteDocument_TakesChunksAlong(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	doc := addDoc(t, repos.Documents, 1, "deck.md")
	other := addDoc(t, repos.Documents, 1, "keep.md")
	for _, d := range []*core.Document{doc, other} {
		_, err := repos.Chunks.AddChunks(ctx, makeChunks(d.Id, 3)...)
		require.NoError(t, err)
	}
	_, err := repos.Documents.CompleteDocument(ctx, doc.Id, 30, 1)
	require.NoError(t, err)

	removed, err := repos.Documents.DeleteDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err := repos.Chunks.CountChunks(ctx, doc.Id)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = repos.Chunks.CountChunks(ctx, other.Id)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	completed, err := repos.Documents.ListCompletedDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)
}
