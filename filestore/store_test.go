package filestore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(dir, WithLogger(nil))
	require.NoError(t, err)
	return s, dir
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestNew_PlainPathBecomesFileURL(t *testing.T) {
	s, dir := newTestStore(t)
	assert.Equal(t, "file://"+dir, s.BaseURL())
}

func TestStore_SaveReadDelete(t *testing.T) {
	s, dir := newTestStore(t)
	ctx := context.Background()

	name, err := s.Save(ctx, "Pitch Deck.PDF", []byte("%PDF-1.4 deck"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotContains(t, name, "Pitch")
	assert.FileExists(t, filepath.Join(dir, name))

	data, err := s.Read(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 deck", string(data))

	require.NoError(t, s.Delete(ctx, name))
	assert.NoFileExists(t, filepath.Join(dir, name))

	_, err = s.Read(ctx, name)
	assert.ErrorIs(t, err, ErrFileNotFound)

	// Second delete is a no-op.
	assert.NoError(t, s.Delete(ctx, name))
}

func TestStore_UniqueNames(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.Save(ctx, "notes.md", []byte("a"))
	require.NoError(t, err)
	b, err := s.Save(ctx, "notes.md", []byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStore_RejectsTraversal(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "../etc/passwd", "a/b.pdf", `a\b`} {
		_, err := s.Read(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		assert.ErrorIs(t, s.Delete(ctx, name), ErrInvalidName, name)
	}
}

func TestStore_SaveDropsUnsafeExtensions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, original := range []string{`a.b\x`, "deck.p df", "deck.", "deck", "notes.tar..", "deck.pdf/evil", "x." + strings.Repeat("z", 40)} {
		name, err := s.Save(ctx, original, []byte("body"))
		require.NoError(t, err, original)
		assert.NotContains(t, name, ".", original)

		data, err := s.Read(ctx, name)
		require.NoError(t, err, original)
		assert.Equal(t, "body", string(data))
		require.NoError(t, s.Delete(ctx, name))
	}
}

func TestStoredExt(t *testing.T) {
	tests := map[string]string{
		"Deck.PDF":     ".pdf",
		"model.xlsx":   ".xlsx",
		"archive.7z":   ".7z",
		`a.b\x`:        "",
		"no-extension": "",
		"trailing.":    "",
		"odd.ext-ü":    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, storedExt(in), in)
	}
}
