package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/pitchroom"
	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/ai/mock"
	"github.com/poiesic/pitchroom/chat"
	"github.com/poiesic/pitchroom/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type harness struct {
	t        *testing.T
	dir      string
	cfgPath  string
	embedder *mock.MockEmbedder
	reply    *mock.MockCompleter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		t:        t,
		dir:      dir,
		cfgPath:  filepath.Join(dir, "pitchroom.yaml"),
		embedder: mock.NewMockEmbedder(),
		reply:    mock.NewMockCompleter(ai.FamilyOpenAI, "Revenue tripled last year, see metrics.md."),
	}
	_, err := h.run("init", "--data-dir", filepath.Join(dir, "data"))
	require.NoError(t, err)
	return h
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	app := newApp(pitchroom.WithEmbedder(h.embedder), pitchroom.WithCompletionProvider(h.reply))
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := append([]string{"pitchroom",
		"--log-level", "error",
		"--config", h.cfgPath,
		"--env-file", filepath.Join(h.dir, "missing.env"),
	}, args...)
	err := app.Run(full)
	return out.String(), err
}

func (h *harness) writeFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const metricsDoc = "Annual recurring revenue tripled to 3.1M. Burn multiple is 1.2. " +
	"Gross margin is 81 percent and net retention is 140 percent."

func TestInitCommand(t *testing.T) {
	h := newHarness(t)

	cfg, err := config.Load(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(h.dir, "data"), cfg.DataDir)

	_, err = h.run("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err := h.run("init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
}

func TestIngestChatLifecycle(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile("metrics.md", metricsDoc)

	out, err := h.run("ingest", "-p", "7", path)
	require.NoError(t, err)
	assert.Contains(t, out, "queued metrics.md as document")
	assert.Contains(t, out, "completed")

	var docID uint64
	_, err = fmt.Sscanf(out, "queued metrics.md as document %d", &docID)
	require.NoError(t, err)

	out, err = h.run("documents", "--project", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "metrics.md")
	assert.Contains(t, out, "completed")

	out, err = h.run("link", "create", "-p", "7")
	require.NoError(t, err)
	var linkID uint64
	_, err = fmt.Sscanf(out, "link %d", &linkID)
	require.NoError(t, err)

	out, err = h.run("chat", "--link", fmt.Sprint(linkID), "--email", "lp@fund.example", "How", "fast", "is", "revenue", "growing?")
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue tripled last year")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "  - metrics.md")
	assert.Contains(t, out, "conversation ")
	assert.Equal(t, "How fast is revenue growing?", h.reply.LastRequest().Messages[0].Content)

	out, err = h.run("link", "revoke", fmt.Sprint(linkID))
	require.NoError(t, err)
	assert.Contains(t, out, "revoked")

	_, err = h.run("chat", "--link", fmt.Sprint(linkID), "Anyone there?")
	assert.ErrorIs(t, err, chat.ErrLinkInactive)

	out, err = h.run("delete", fmt.Sprint(docID))
	require.NoError(t, err)
	assert.Contains(t, out, "deleted document")

	out, err = h.run("documents", "-p", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "no documents")
}

func TestIngestCommand_Failures(t *testing.T) {
	h := newHarness(t)

	t.Run("unsupported file", func(t *testing.T) {
		path := h.writeFile("archive.zip", "PK")
		out, err := h.run("ingest", "-p", "1", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 1 documents failed")
		assert.Contains(t, out, "failed")
	})

	t.Run("no files", func(t *testing.T) {
		_, err := h.run("ingest", "-p", "1")
		require.Error(t, err)
	})

	t.Run("project required", func(t *testing.T) {
		_, err := h.run("ingest", h.writeFile("a.txt", "hello there."))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project")
	})
}

func TestRecoverCommand(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile("deck.txt", metricsDoc)

	_, err := h.run("ingest", "-p", "2", "--no-wait", path)
	require.NoError(t, err)

	out, err := h.run("recover")
	require.NoError(t, err)
	assert.Contains(t, out, "recovered")

	out, err = h.run("documents", "-p", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
}

func TestReembedCommand(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("ingest", "-p", "1", h.writeFile("metrics.md", metricsDoc))
	require.NoError(t, err)

	next := mock.NewMockEmbedder()
	var gotModel string
	orig := newEmbedder
	newEmbedder = func(cfg *ai.Config) (ai.Embedder, error) {
		gotModel = cfg.EmbeddingModel
		return next, nil
	}
	t.Cleanup(func() { newEmbedder = orig })

	_, err = h.run("reembed", "--embedding-model", "nomic-embed-text", "--update-config")
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", gotModel)
	assert.NotEmpty(t, next.Texts())

	cfg, err := config.Load(h.cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)

	t.Run("embedding-model is required", func(t *testing.T) {
		_, err := h.run("reembed")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("batch-size must be positive", func(t *testing.T) {
		_, err := h.run("reembed", "--embedding-model", "m", "--batch-size", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})
}

func TestReembedCommandFlags(t *testing.T) {
	var cmd *cli.Command
	for _, c := range newApp().Commands {
		if c.Name == "reembed" {
			cmd = c
		}
	}
	require.NotNil(t, cmd)

	flags := map[string]cli.Flag{}
	for _, f := range cmd.Flags {
		flags[f.Names()[0]] = f
	}

	model, ok := flags["embedding-model"].(*cli.StringFlag)
	require.True(t, ok)
	assert.Empty(t, model.Value)
	assert.True(t, model.Required)
	assert.Empty(t, model.EnvVars)

	assert.Equal(t, 100, flags["batch-size"].(*cli.IntFlag).Value)
	assert.Equal(t, 100, flags["report-interval"].(*cli.IntFlag).Value)
	assert.Equal(t, 3, flags["max-retries"].(*cli.IntFlag).Value)
	assert.Equal(t, time.Second, flags["retry-delay"].(*cli.DurationFlag).Value)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(*cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(context.Background(), tc.expected))
				if tc.expected > slog.LevelDebug {
					assert.False(t, slog.Default().Enabled(context.Background(), tc.expected-1))
				}
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newLoggerApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		})
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}
