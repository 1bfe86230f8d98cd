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

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/pitchroom"
	"github.com/poiesic/pitchroom/ai"
	"github.com/poiesic/pitchroom/ai/openai"
	"github.com/poiesic/pitchroom/chat"
	"github.com/poiesic/pitchroom/config"
	"github.com/poiesic/pitchroom/core"
	"github.com/poiesic/pitchroom/reembed"
	"github.com/urfave/cli/v2"
)

// newEmbedder builds the embedder used by reembed.
var newEmbedder func(*ai.Config) (ai.Embedder, error) = openai.NewEmbedder

func initCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if dir := c.String("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}

func ingestCommand(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
	if c.NArg() == 0 {
		return errors.New("at least one file is required")
	}
	projectID := core.ID(c.Uint64("project"))

	var queued []*core.Document
	for _, path := range c.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := p.Ingest(c.Context, projectID, data, filepath.Base(path), c.String("type"))
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "queued %s as document %d\n", doc.OriginalName, doc.Id)
		queued = append(queued, doc)
	}
	if c.Bool("no-wait") {
		return nil
	}

	p.Wait()
	failed := 0
	for _, q := range queued {
		doc, err := p.Document(c.Context, q.Id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%d %s %s (%d tokens)\n", doc.Id, doc.OriginalName, renderStatus(doc.Status), doc.TokenCount)
		if doc.Status == core.StatusFailed {
			failed++
			fmt.Fprintln(c.App.Writer, errorStyle.Render("  "+doc.Error))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(queued))
	}
	return nil
}

func documentsCommand(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
	docs, err := p.Documents(c.Context, core.ID(c.Uint64("project")))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(c.App.Writer, "no documents")
		return nil
	}
	fmt.Fprintln(c.App.Writer, documentsTable(docs))
	for _, d := range docs {
		if d.Status == core.StatusFailed {
			fmt.Fprintln(c.App.Writer, errorStyle.Render(fmt.Sprintf("%d: %s", d.Id, d.Error)))
		}
	}
	return nil
}

func deleteCommand(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
	if c.NArg() == 0 {
		return errors.New("at least one document ID is required")
	}
	for _, arg := range c.Args().Slice() {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		if err := p.DeleteDocument(c.Context, id); err != nil {
			return fmt.Errorf("failed to delete document %d: %w", id, err)
		}
		fmt.Fprintf(c.App.Writer, "deleted document %d\n", id)
	}
	return nil
}

func linkCreateCommand(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
	link, err := p.CreateLink(c.Context, core.ID(c.Uint64("project")))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "link %d\n", link.Id)
	return nil
}

func linkActiveCommand(active bool) platformAction {
	return func(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
		id, err := parseID(c.Args().First())
		if err != nil {
			return err
		}
		link, err := p.SetLinkActive(c.Context, id, active)
		if err != nil {
			return err
		}
		state := "revoked"
		if link.Active {
			state = "active"
		}
		fmt.Fprintf(c.App.Writer, "link %d %s\n", link.Id, state)
		return nil
	}
}

func chatCommand(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
	resp, err := p.Chat(c.Context, chat.Request{
		LinkID:         core.ID(c.Uint64("link")),
		ProjectID:      core.ID(c.Uint64("project")),
		ConversationID: core.ID(c.Uint64("conversation")),
		InvestorEmail:  c.String("email"),
		Text:           strings.Join(c.Args().Slice(), " "),
		ModelID:        c.String("model"),
	})
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, resp.Message.Content)
	if len(resp.Message.Citations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, cite := range resp.Message.Citations {
			source := cite.Source
			if cite.Page > 0 {
				source = fmt.Sprintf("%s (page %d)", source, cite.Page)
			}
			fmt.Fprintf(w, "  - %s\n", source)
		}
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("conversation %d: %d tokens, $%.6f",
		resp.ConversationID, resp.Totals.TotalTokens, resp.Totals.CostUSD)))
	return nil
}

func recoverCommand(c *cli.Context, _ *config.Config, p *pitchroom.Platform) error {
	n, err := p.Recover(c.Context)
	if err != nil {
		return err
	}
	p.Wait()
	fmt.Fprintf(c.App.Writer, "recovered %d documents\n", n)
	return nil
}

func reembedCommand(c *cli.Context, cfg *config.Config, p *pitchroom.Platform) error {
	rcfg := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxAttempts:    c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if rcfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if rcfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if rcfg.MaxAttempts <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	aiConfig := cfg.ProviderConfig()
	if host := c.String("embedding-host"); host != "" {
		aiConfig.EmbeddingHost = host
	}
	aiConfig.EmbeddingModel = c.String("embedding-model")
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	embedder, err := newEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	errw := c.App.ErrWriter
	fmt.Fprintf(errw, "Database: %s\n", cfg.StorePath())
	fmt.Fprintf(errw, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(errw, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintln(errw)

	if _, err := p.Reembed(c.Context, embedder, rcfg, errw); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	if c.Bool("update-config") {
		cfg.AI.EmbeddingHost = aiConfig.EmbeddingHost
		cfg.AI.EmbeddingModel = aiConfig.EmbeddingModel
		if err := config.Save(c.String("config"), cfg); err != nil {
			return fmt.Errorf("failed to update config: %w", err)
		}
	}
	return nil
}

func parseID(s string) (core.ID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return core.ID(id), nil
}
