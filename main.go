package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/imagesync/internal/history"
	"github.com/dtnitsch/imagesync/internal/pipeline"
	"github.com/dtnitsch/imagesync/internal/watch"
)

func main() {
	app := &cli.App{
		Name:  "imagesync",
		Usage: "download the remote images referenced by a tree of documents",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "scan documents and fetch every referenced image once",
				Action: pipeline.SyncAction,
				Flags: append(syncFlags(),
					&cli.BoolFlag{
						Name:  "summary",
						Usage: "write a YAML run summary under the image root",
					},
				),
			},
			{
				Name:   "watch",
				Usage:  "sync once, then re-sync documents as they change",
				Action: watch.WatchAction,
				Flags:  syncFlags(),
			},
			{
				Name:   "history",
				Usage:  "show recent fetch outcomes from the catalog database",
				Action: history.HistoryAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "database",
						Usage: "path of the catalog database",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 50,
						Usage: "maximum records to show",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// syncFlags are shared by the sync and watch commands.
func syncFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Value:   ".",
			Usage:   "root directory scanned for documents",
		},
		&cli.StringFlag{
			Name:  "image-root",
			Value: "images",
			Usage: "base output directory for downloaded images",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "cap on concurrent documents (0 = one goroutine per document)",
		},
		&cli.IntFlag{
			Name:  "retries",
			Value: 3,
			Usage: "fetch attempts per image",
		},
		&cli.DurationFlag{
			Name:  "initial-delay",
			Value: time.Second,
			Usage: "sleep before the first retry",
		},
		&cli.Float64Flag{
			Name:  "backoff",
			Value: 2.0,
			Usage: "retry delay multiplier",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 30 * time.Second,
			Usage: "per-request HTTP timeout",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "max fetch attempts per second across all workers (0 = unlimited)",
		},
		&cli.BoolFlag{
			Name:  "include-html",
			Usage: "also scan .html documents for img tags",
		},
		&cli.StringFlag{
			Name:  "database",
			Usage: "record documents and fetch outcomes in this catalog database",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file (flags override file values)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only log errors",
		},
	}
}
