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
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/stoa"
	"github.com/poiesic/stoa/ai"
	"github.com/poiesic/stoa/ai/openai"
	"github.com/poiesic/stoa/core"
	"github.com/poiesic/stoa/reembed"
	"github.com/poiesic/stoa/search"
	"github.com/poiesic/stoa/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "stoa",
		Usage: "Retrieval and daily-reflection engine for Stoic passages",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank passages against a free-text query or citation",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of results to return",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "diversity-cap",
						Usage: "Soft per-source cap on results",
					},
				),
			},
			{
				Name:      "fuse",
				Usage:     "Fuse rankings from several query phrasings",
				ArgsUsage: "<query> [<query> ...]",
				Action:    fuseCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Number of fused results to return",
						Value: 10,
					},
				),
			},
			{
				Name:   "daily",
				Usage:  "Show the passage of the day",
				Action: dailyCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:  "date",
						Usage: "Date to select for (YYYY-MM-DD, defaults to today)",
					},
				),
			},
			{
				Name:   "random",
				Usage:  "Show a random reflectable passage",
				Action: randomCommand,
				Flags:  databaseFlags(),
			},
			{
				Name:      "rate",
				Usage:     "Rate the most recent view of a passage (1-3)",
				ArgsUsage: "<citation> <rating>",
				Action:    rateCommand,
				Flags:     databaseFlags(),
			},
			{
				Name:      "reflectable",
				Usage:     "Include or exclude a passage from daily/random selection",
				ArgsUsage: "<citation>",
				Action:    reflectableCommand,
				Flags: append(databaseFlags(),
					&cli.BoolFlag{
						Name:  "off",
						Usage: "Exclude the passage instead of including it",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all passages with new embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
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
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// databaseFlags returns the flag set shared by the commands that open the
// database through the facade.
func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
	}
}

func openDatabase(c *cli.Context) (*stoa.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	db, err := stoa.NewDatabase(c.String("db"), stoa.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// parseCitationArg resolves a citation argument like "meditations 2.1"
// into an entry key.
func parseCitationArg(raw string) (core.EntryKey, error) {
	citation := search.ParseCitation(raw)
	if citation == nil || citation.Source == "" {
		return core.EntryKey{}, fmt.Errorf("invalid citation %q: expected \"<source> <book>.<entry>\"", raw)
	}
	return core.EntryKey{
		Source: citation.Source,
		Book:   citation.Book,
		Entry:  citation.Entry,
	}, nil
}

func printEntry(entry *core.Entry) {
	fmt.Printf("%s\n\n%s\n", entry.Key, entry.Text)
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(context.Background(), query, search.Options{
		TopK:             c.Int("top-k"),
		DiversitySoftCap: c.Int("diversity-cap"),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(results)
	return nil
}

func fuseCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.FuseQueries(context.Background(), c.Args().Slice(), c.Int("max-results"))
	if err != nil {
		return fmt.Errorf("fusion failed: %w", err)
	}

	printResults(results)
	return nil
}

func printResults(results []*core.RankedEntry) {
	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		text := hit.Entry.Text
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		fmt.Printf("%d: %s [%0.3f] %s\n", i+1, hit.Entry.Key, hit.WeightedScore, text)
	}
}

func dailyCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	date := c.String("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	entry, err := db.Daily(context.Background(), date)
	if err != nil {
		return fmt.Errorf("daily selection failed: %w", err)
	}

	printEntry(entry)
	return nil
}

func randomCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	entry, err := db.Random(context.Background())
	if err != nil {
		return fmt.Errorf("random selection failed: %w", err)
	}

	printEntry(entry)
	return nil
}

func rateCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("citation and rating are required")
	}
	args := c.Args().Slice()

	rating, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return fmt.Errorf("invalid rating %q: expected 1, 2, or 3", args[len(args)-1])
	}

	key, err := parseCitationArg(strings.Join(args[:len(args)-1], " "))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Rate(context.Background(), key, rating); err != nil {
		return fmt.Errorf("rating failed: %w", err)
	}

	fmt.Printf("Rated %s: %d\n", key, rating)
	return nil
}

func reflectableCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("citation is required")
	}

	key, err := parseCitationArg(strings.Join(c.Args().Slice(), " "))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reflectable := !c.Bool("off")
	if err := db.SetReflectable(context.Background(), key, reflectable); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Printf("%s reflectable: %t\n", key, reflectable)
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo := badger.NewEntryRepository(backend)

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	// Create reembedding config
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	// Create reembedder
	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	// Run reembedding
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
