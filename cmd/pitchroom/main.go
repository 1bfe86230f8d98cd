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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/poiesic/pitchroom"
	"github.com/poiesic/pitchroom/config"
	"github.com/poiesic/pitchroom/ledger"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the CLI. Extra options are applied to every platform the
// commands open.
func newApp(extra ...pitchroom.Option) *cli.App {
	return &cli.App{
		Name:  "pitchroom",
		Usage: "Document ingestion and investor chat over data room files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "pitchroom.yaml",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Files with API keys to load into the environment",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a default config file",
				Action: initCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "data-dir",
						Usage: "Directory for the database and uploaded files",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Upload files to a project and process them",
				ArgsUsage: "FILE...",
				Action:    withPlatform(extra, ingestCommand),
				Flags: []cli.Flag{
					projectFlag(),
					&cli.StringFlag{
						Name:  "type",
						Usage: "Media type of the files (guessed from the extension when empty)",
					},
					&cli.BoolFlag{
						Name:  "no-wait",
						Usage: "Return once files are queued; run recover later to finish",
					},
				},
			},
			{
				Name:   "documents",
				Usage:  "List the documents of a project",
				Action: withPlatform(extra, documentsCommand),
				Flags:  []cli.Flag{projectFlag()},
			},
			{
				Name:      "delete",
				Usage:     "Delete documents with their chunks and files",
				ArgsUsage: "DOCUMENT_ID...",
				Action:    withPlatform(extra, deleteCommand),
			},
			{
				Name:  "link",
				Usage: "Manage shareable project links",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create an active link to a project",
						Action: withPlatform(extra, linkCreateCommand),
						Flags:  []cli.Flag{projectFlag()},
					},
					{
						Name:      "revoke",
						Usage:     "Deactivate a link",
						ArgsUsage: "LINK_ID",
						Action:    withPlatform(extra, linkActiveCommand(false)),
					},
					{
						Name:      "activate",
						Usage:     "Reactivate a link",
						ArgsUsage: "LINK_ID",
						Action:    withPlatform(extra, linkActiveCommand(true)),
					},
				},
			},
			{
				Name:      "chat",
				Usage:     "Ask a question grounded in a project's documents",
				ArgsUsage: "QUESTION",
				Action:    withPlatform(extra, chatCommand),
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "link",
						Usage: "Link ID the investor arrived through",
					},
					&cli.Uint64Flag{
						Name:    "project",
						Aliases: []string{"p"},
						Usage:   "Project ID, when chatting without a link",
					},
					&cli.Uint64Flag{
						Name:  "conversation",
						Usage: "Continue an existing conversation",
					},
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Model ID (defaults to ai.default_model)",
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Investor email recorded on new conversations",
					},
				},
			},
			{
				Name:   "recover",
				Usage:  "Finish documents left processing by an interrupted run",
				Action: withPlatform(extra, recoverCommand),
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every stored chunk with a new embedding model",
				Action: withPlatform(extra, reembedCommand),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (defaults to ai.embedding_host)",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "update-config",
						Usage: "Record the new embedding model in the config file",
					},
				},
			},
		},
	}
}

func projectFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:     "project",
		Aliases:  []string{"p"},
		Usage:    "Project ID",
		Required: true,
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return config.LoadEnv(c.StringSlice("env-file")...)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func platformOptions(cfg *config.Config) []pitchroom.Option {
	opts := []pitchroom.Option{
		pitchroom.WithFileStoreURL(cfg.FilesURL()),
		pitchroom.WithAIConfig(cfg.ProviderConfig()),
		pitchroom.WithMaxChunkChars(cfg.Ingestion.MaxChunkChars),
		pitchroom.WithPoolSize(cfg.Ingestion.PoolSize),
		pitchroom.WithTopK(cfg.Retrieval.TopK),
		pitchroom.WithDefaultModel(cfg.AI.DefaultModel),
		pitchroom.WithLogger(slog.Default()),
	}
	if cfg.Retrieval.MinSimilarity != nil {
		opts = append(opts, pitchroom.WithMinSimilarity(*cfg.Retrieval.MinSimilarity))
	}
	if len(cfg.Rates) > 0 {
		rates := ledger.DefaultRates()
		for model, rate := range cfg.Rates {
			rates[model] = rate
		}
		opts = append(opts, pitchroom.WithRates(rates))
	}
	return opts
}

type platformAction func(c *cli.Context, cfg *config.Config, p *pitchroom.Platform) error

// withPlatform opens the platform described by the config file around fn.
func withPlatform(extra []pitchroom.Option, fn platformAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		opts := append(platformOptions(cfg), extra...)
		p, err := pitchroom.NewPlatform(cfg.StorePath(), opts...)
		if err != nil {
			return fmt.Errorf("failed to open platform: %w", err)
		}
		defer func() {
			if err := p.Close(); err != nil {
				slog.Error("error closing platform", "err", err)
			}
		}()
		return fn(c, cfg, p)
	}
}
