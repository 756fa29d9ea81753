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
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "recall",
		Usage: "Semantic document retrieval with contextual reranking",
		// Metadata values such as tags=a,b carry commas
		DisableSliceFlagSeparator: true,
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
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.path)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index one or more files as documents",
				ArgsUsage: "FILE...",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document ID (single file only, defaults to the file name)",
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Document title (single file only, defaults to the file name)",
					},
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Document type",
						Value:   "document",
					},
					&cli.StringSliceFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Metadata as key=value, repeatable",
					},
				},
			},
			{
				Name:   "update",
				Usage:  "Replace the content of a document",
				Action: updateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Document ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "File holding the new content",
						Required: true,
					},
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove a document",
				ArgsUsage: "ID",
				Action:    removeCommand,
			},
			{
				Name:      "get",
				Usage:     "Show a document and its chunks",
				ArgsUsage: "ID",
				Action:    getCommand,
			},
			{
				Name:   "list",
				Usage:  "List documents",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Only list documents of this type",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show index statistics",
				Action: statsCommand,
			},
			{
				Name:      "search",
				Usage:     "Search documents",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Restrict to document types, repeatable",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Restrict to documents carrying any of these tags, repeatable",
					},
					&cli.StringFlag{
						Name:  "intent",
						Usage: "Force the query intent (informational, navigational, transactional, exploratory)",
					},
					&cli.StringFlag{
						Name:  "context",
						Usage: "Query context used by the reranker",
					},
					&cli.IntFlag{
						Name:    "page",
						Aliases: []string{"p"},
						Usage:   "Result page, starting at 0",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print the score breakdown of every result",
					},
				},
			},
			{
				Name:      "suggest",
				Usage:     "Suggest query words for a prefix",
				ArgsUsage: "PREFIX",
				Action:    suggestCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all documents with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch (overrides ingestion.batch_size)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations (overrides ingestion.max_retries)",
					},
				},
			},
			{
				Name:      "init-config",
				Usage:     "Write the default configuration to a file",
				ArgsUsage: "PATH",
				Action:    initConfigCommand,
			},
		},
	}
}
