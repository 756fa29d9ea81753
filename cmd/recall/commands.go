package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/recall"
	"github.com/poiesic/recall/config"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/observability"
	"github.com/urfave/cli/v2"
)

func setupLogger(c *cli.Context) error {
	levelStr := c.String("log-level")
	var level slog.Level

	switch strings.ToLower(levelStr) {
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

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the --config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	return cfg, nil
}

// withEngine opens the engine, runs fn and tears everything down again.
func withEngine(c *cli.Context, cfg *config.Config, fn func(*recall.Engine) error) error {
	ctx := c.Context
	if cfg == nil {
		var err error
		if cfg, err = loadConfig(c); err != nil {
			return err
		}
	}

	tp, err := observability.InitTracing(ctx, cfg.TracingConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("error shutting down tracer provider", "err", err)
		}
	}()

	engine, err := recall.Open(cfg, recall.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			slog.Warn("error closing engine", "err", err)
		}
	}()

	return fn(engine)
}

func indexCommand(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return errors.New("at least one file is required")
	}
	if len(files) > 1 && (c.String("id") != "" || c.String("title") != "") {
		return errors.New("--id and --title can only be used with a single file")
	}
	metadata, err := parseMetadata(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	docs := make([]recall.Document, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		doc := recall.Document{
			ID:       name,
			Title:    name,
			Content:  string(content),
			DocType:  c.String("type"),
			Metadata: metadata,
		}
		if id := c.String("id"); id != "" {
			doc.ID = id
		}
		if title := c.String("title"); title != "" {
			doc.Title = title
		}
		docs = append(docs, doc)
	}

	return withEngine(c, nil, func(e *recall.Engine) error {
		ids, err := e.Index(c.Context, docs...)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintf(c.App.Writer, "Indexed %s\n", id)
		}
		return nil
	})
}

func updateCommand(c *cli.Context) error {
	content, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.String("file"), err)
	}
	return withEngine(c, nil, func(e *recall.Engine) error {
		if err := e.Update(c.Context, c.String("id"), string(content)); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Updated %s\n", c.String("id"))
		return nil
	})
}

func removeCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("document ID is required")
	}
	return withEngine(c, nil, func(e *recall.Engine) error {
		doc, err := e.Remove(c.Context, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Removed %s (%d chunks)\n", doc.ID, len(doc.Chunks))
		return nil
	})
}

func getCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("document ID is required")
	}
	return withEngine(c, nil, func(e *recall.Engine) error {
		doc, err := e.Get(id)
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "ID:      %s\n", doc.ID)
		fmt.Fprintf(w, "Title:   %s\n", doc.Title)
		fmt.Fprintf(w, "Type:    %s\n", doc.DocType)
		fmt.Fprintf(w, "Indexed: %s\n", doc.IndexedAt.Format("2006-01-02 15:04:05"))
		for _, key := range sortedKeys(doc.Metadata) {
			fmt.Fprintf(w, "  %s=%s\n", key, doc.Metadata[key])
		}
		fmt.Fprintf(w, "Chunks:  %d\n", len(doc.Chunks))
		for _, chunk := range doc.Chunks {
			fmt.Fprintf(w, "  [%d] %d-%d %s\n", chunk.Index, chunk.StartPos, chunk.EndPos, preview(chunk.Content, 60))
		}
		return nil
	})
}

func listCommand(c *cli.Context) error {
	return withEngine(c, nil, func(e *recall.Engine) error {
		docs := e.List()
		if docType := c.String("type"); docType != "" {
			docs = e.ListByType(docType)
		}
		if len(docs) == 0 {
			fmt.Fprintln(c.App.Writer, "No documents found")
			return nil
		}
		for _, doc := range docs {
			fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%d chunks\n", doc.ID, doc.DocType, doc.Title, len(doc.Chunks))
		}
		return nil
	})
}

func statsCommand(c *cli.Context) error {
	return withEngine(c, nil, func(e *recall.Engine) error {
		stats := e.Stats()
		w := c.App.Writer
		fmt.Fprintf(w, "Documents:          %d\n", stats.TotalDocuments)
		fmt.Fprintf(w, "Chunks:             %d\n", stats.TotalChunks)
		fmt.Fprintf(w, "Chunks per doc:     %.2f\n", stats.AvgChunksPerDoc)
		fmt.Fprintf(w, "Average chunk size: %.1f bytes\n", stats.AvgChunkSize)
		fmt.Fprintf(w, "Total size:         %d bytes\n", stats.TotalSizeBytes)
		return nil
	})
}

func searchCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	intent, err := core.ParseIntent(strings.ToLower(c.String("intent")))
	if err != nil {
		return fmt.Errorf("invalid intent %q: %w", c.String("intent"), err)
	}
	q := &core.SearchQuery{
		Text:    text,
		Intent:  intent,
		Context: c.String("context"),
	}
	if types, tags := c.StringSlice("type"), c.StringSlice("tag"); len(types) > 0 || len(tags) > 0 {
		q.Filters = &core.SearchFilters{DocTypes: types, Tags: tags}
	}

	return withEngine(c, nil, func(e *recall.Engine) error {
		results, pages, err := e.SearchPage(c.Context, q, c.Int("page"))
		if err != nil {
			return err
		}
		w := c.App.Writer
		if len(results) == 0 {
			fmt.Fprintln(w, "No results")
			return nil
		}
		for i, r := range results {
			fmt.Fprintf(w, "%d. %s (score %.3f, similarity %.3f)\n", i+1, r.ID, r.CompositeScore, r.OriginalSimilarity)
			if title := r.Metadata[core.MetaTitle]; title != "" {
				fmt.Fprintf(w, "   %s\n", title)
			}
			if c.Bool("explain") {
				s := r.Scores
				fmt.Fprintf(w, "   vector=%.3f context=%.3f recency=%.3f authority=%.3f graph=%.3f\n",
					s.VectorSimilarity, s.ContextRelevance, s.Recency, s.Authority, s.GraphPosition)
				if r.Explanation != "" {
					fmt.Fprintf(w, "   %s\n", r.Explanation)
				}
			}
		}
		fmt.Fprintf(w, "Page %d of %d\n", c.Int("page")+1, pages)
		return nil
	})
}

func suggestCommand(c *cli.Context) error {
	prefix := strings.Join(c.Args().Slice(), " ")
	return withEngine(c, nil, func(e *recall.Engine) error {
		for _, s := range e.Suggest(prefix) {
			fmt.Fprintln(c.App.Writer, s)
		}
		return nil
	})
}

func reembedCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if n := c.Int("batch-size"); n > 0 {
		cfg.Ingestion.BatchSize = n
	}
	if n := c.Int("max-retries"); n > 0 {
		cfg.Ingestion.MaxRetries = n
	}
	return withEngine(c, cfg, func(e *recall.Engine) error {
		_, err := e.Reembed(c.Context, c.App.Writer)
		return err
	})
}

func initConfigCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("config path is required")
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote default configuration to %s\n", path)
	return nil
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

// preview returns the first n runes of s on a single line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
