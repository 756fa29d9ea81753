package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const notesText = "Badger is an embedded key value store written in Go."

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestGlobalFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level defaults to info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
				break
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
		assert.Equal(t, []string{"l"}, levelFlag.Aliases)
	})

	t.Run("config and db have no default value", func(t *testing.T) {
		for _, flag := range app.Flags {
			f, ok := flag.(*cli.StringFlag)
			if !ok || (f.Name != "config" && f.Name != "db") {
				continue
			}
			assert.Empty(t, f.Value, f.Name)
			assert.Empty(t, f.EnvVars, f.Name)
		}
	})

	t.Run("every command has an action", func(t *testing.T) {
		names := make([]string, 0, len(app.Commands))
		for _, cmd := range app.Commands {
			assert.NotNil(t, cmd.Action, cmd.Name)
			names = append(names, cmd.Name)
		}
		assert.ElementsMatch(t, []string{
			"index", "update", "remove", "get", "list", "stats",
			"search", "suggest", "reembed", "init-config",
		}, names)
	})
}

func TestUpdateCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "update")
	for _, flag := range cmd.Flags {
		f, ok := flag.(*cli.StringFlag)
		require.True(t, ok)
		assert.True(t, f.Required, f.Name)
	}

	t.Run("missing file flag fails", func(t *testing.T) {
		err := newApp().Run([]string{"recall", "update", "--id", "notes"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file")
	})
}

func TestReembedCommandFlags(t *testing.T) {
	cmd := findCommand(t, newApp(), "reembed")
	for _, flag := range cmd.Flags {
		f, ok := flag.(*cli.IntFlag)
		require.True(t, ok)
		// Zero keeps the configured value
		assert.Zero(t, f.Value, f.Name)
	}
}

func TestParseMetadata(t *testing.T) {
	metadata, err := parseMetadata([]string{"author=alice", "tags=go,db", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"author": "alice", "tags": "go,db", "empty": ""}, metadata)

	metadata, err = parseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, metadata)

	_, err = parseMetadata([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseMetadata([]string{"=value"})
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short text", preview("short\n  text", 20))
	assert.Equal(t, "abc...", preview("abcdef", 3))
	assert.Equal(t, "héé...", preview("hééllo", 3))
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "recall.toml")
	dbPath := filepath.Join(dir, "db")
	notesPath := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(notesPath, []byte(notesText), 0o600))

	run := func(t *testing.T, args ...string) string {
		t.Helper()
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		base := []string{"recall", "--log-level", "error", "--config", configPath, "--db", dbPath}
		require.NoError(t, app.Run(append(base, args...)))
		return out.String()
	}

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"recall", "init-config", configPath}))
	assert.Contains(t, out.String(), configPath)

	// Switch the written configuration to the offline provider
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	cfg.AI.Provider = ai.ProviderMock
	cfg.AI.Dimensions = 64
	require.NoError(t, cfg.Save(configPath))

	output := run(t, "index", "--type", "technical", "--meta", "author=alice", "--meta", "tags=go,db", notesPath)
	assert.Contains(t, output, "Indexed notes")

	output = run(t, "list")
	assert.Contains(t, output, "notes\ttechnical\tnotes\t1 chunks")

	output = run(t, "list", "--type", "legal")
	assert.Contains(t, output, "No documents found")

	output = run(t, "get", "notes")
	assert.Contains(t, output, "Type:    technical")
	assert.Contains(t, output, "author=alice")
	assert.Contains(t, output, "tags=go,db")

	output = run(t, "stats")
	assert.Contains(t, output, "Documents:          1")

	output = run(t, "search", "--explain", notesText)
	assert.Contains(t, output, "1. notes#")
	assert.Contains(t, output, "similarity 1.000")
	assert.Contains(t, output, "Page 1 of 1")

	output = run(t, "search", "--type", "legal", notesText)
	assert.Contains(t, output, "No results")

	output = run(t, "search", "--tag", "db", notesText)
	assert.Contains(t, output, "1. notes#")

	output = run(t, "reembed", "--batch-size", "10")
	assert.Contains(t, output, "Reembedding complete. Processed 1 documents")

	output = run(t, "remove", "notes")
	assert.Contains(t, output, "Removed notes (1 chunks)")

	output = run(t, "list")
	assert.Contains(t, output, "No documents found")
}

func TestSearchCommandRejectsUnknownIntent(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"recall", "--log-level", "error", "search", "--intent", "bogus", "query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid intent")
}

func TestIndexCommandRequiresFiles(t *testing.T) {
	err := newApp().Run([]string{"recall", "--log-level", "error", "index"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one file")
}

func TestSetupLogger(t *testing.T) {
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
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(t.Context(), tc.expected))
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	os.Exit(m.Run())
}
