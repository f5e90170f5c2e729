// Copyright 2025 The Promptvault Authors
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
	"strings"
	"time"

	"github.com/promptvault/promptvault"
	"github.com/promptvault/promptvault/config"
	"github.com/promptvault/promptvault/migrate"
	"github.com/promptvault/promptvault/search"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "promptvault",
		Usage: "Civitai prompt collection and similarity search over a vector store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.BoolFlag{
				Name:  "env",
				Usage: "Load configuration from a .env file in the working directory",
				Value: true,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "backfill",
				Usage:  "Fetch, validate and store prompt records from the Civitai API",
				Action: backfillCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "Number of valid records to process in this run",
						Value:   1000,
					},
					&cli.StringFlag{
						Name:  "state-file",
						Usage: "Path to the resumable cursor state file (overrides STATE_PATH)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find stored prompts similar to a query prompt",
				ArgsUsage: "<prompt>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "model",
						Aliases: []string{"m"},
						Usage:   "Restrict results to a base model, or \"general\" for all",
						Value:   search.GeneralModel,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of matches",
						Value:   5,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored prompt records",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of records",
						Value:   10,
					},
				},
			},
			{
				Name:  "migrate",
				Usage: "Run one-shot payload migrations over the collection",
				Subcommands: []*cli.Command{
					{
						Name:   "model-field",
						Usage:  "Rename payload field model_name to baseModel and re-embed",
						Action: migrateModelFieldCommand,
						Flags:  migrationFlags(),
					},
					{
						Name:   "prompt-fields",
						Usage:  "Move prompt and negativePrompt from meta to the payload root",
						Action: migratePromptFieldsCommand,
						Flags:  migrationFlags(),
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of records to process in each batch",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N records",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent embedding calls per batch",
			Value: 4,
		},
	}
}

// newApp loads the configuration and builds the application facade.
func newApp(ctx context.Context, c *cli.Context) (*promptvault.App, error) {
	cfg, err := config.Load(c.Bool("env"))
	if err != nil {
		return nil, err
	}
	if path := c.String("state-file"); path != "" {
		cfg.StatePath = path
	}
	return promptvault.NewApp(ctx, cfg)
}

func backfillCommand(c *cli.Context) error {
	ctx := context.Background()

	target := c.Int("target")
	if target <= 0 {
		return fmt.Errorf("target must be greater than 0")
	}

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	pipeline, err := app.NewBackfillPipeline()
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx, target)
	if err != nil {
		return fmt.Errorf("backfill failed after storing %d records: %w", summary.Stored, err)
	}

	fmt.Printf("Backfill complete: %d stored, %d duplicates skipped, %d rejected (%d pages)\n",
		summary.Stored, summary.SkippedDuplicate, summary.Rejected, summary.Pages)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	prompt := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if prompt == "" {
		return fmt.Errorf("a query prompt is required")
	}

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	searcher, err := app.NewSearcher()
	if err != nil {
		return err
	}

	matches, err := searcher.SimilarPrompts(ctx, prompt, c.String("model"), c.Int("limit"))
	if err != nil {
		return err
	}

	if len(matches) == 0 {
		fmt.Println("No similar prompts found.")
		return nil
	}
	for i, match := range matches {
		fmt.Printf("%d. [%.3f] %s (%s)\n", i+1, match.Score, match.Prompt, match.ModelName)
		if match.URL != "" {
			fmt.Printf("   %s\n", match.URL)
		}
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.ListStored(ctx, c.Int("limit"))
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No records stored.")
		return nil
	}
	for _, record := range records {
		fmt.Printf("%d\t%s\t%s\n", record.ID, record.ModelName, record.Prompt)
	}
	return nil
}

func migrateModelFieldCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	migration, err := app.NewModelFieldMigration(migrationConfig(c), os.Stderr)
	if err != nil {
		return err
	}
	return migration.Run(ctx)
}

func migratePromptFieldsCommand(c *cli.Context) error {
	ctx := context.Background()

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	migration, err := app.NewPromptFieldsMigration(migrationConfig(c), os.Stderr)
	if err != nil {
		return err
	}
	return migration.Run(ctx)
}

func migrationConfig(c *cli.Context) *migrate.Config {
	return &migrate.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Workers:        c.Int("workers"),
	}
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
