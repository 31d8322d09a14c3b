package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "flowfit",
		Usage: "Train, evaluate and serve preprocessing flows with terminal learners",
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
				Name:   "train",
				Usage:  "Fit a flow and learner on a CSV dataset and store the model",
				Action: trainCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "csv",
						Usage:    "Path to the training CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Aliases:  []string{"t"},
						Usage:    "Name of the target column",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "model",
						Aliases:  []string{"m"},
						Usage:    "Name to store the trained model under",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the model store directory",
						Required: true,
					},
				}, pipelineFlags()...),
			},
			{
				Name:   "predict",
				Usage:  "Score a CSV dataset with a stored model",
				Action: predictCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "csv",
						Usage:    "Path to the CSV file to score",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "model",
						Aliases:  []string{"m"},
						Usage:    "Name of the stored model",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the model store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write predictions to this file instead of stdout",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL, for models with text embedding",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
				},
			},
			{
				Name:   "cv",
				Usage:  "Cross-validate a flow and learner on a CSV dataset",
				Action: cvCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "csv",
						Usage:    "Path to the CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target",
						Aliases:  []string{"t"},
						Usage:    "Name of the target column",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "folds",
						Usage: "Number of cross-validation folds",
						Value: 5,
					},
					&cli.Int64Flag{
						Name:  "seed",
						Usage: "Shuffle seed",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of folds trained concurrently",
					},
				}, pipelineFlags()...),
			},
			{
				Name:  "models",
				Usage: "Manage stored models",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List stored models",
						Action: modelsListCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to the model store directory",
								Required: true,
							},
						},
					},
					{
						Name:   "delete",
						Usage:  "Delete a stored model",
						Action: modelsDeleteCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "db",
								Aliases:  []string{"d"},
								Usage:    "Path to the model store directory",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "model",
								Aliases:  []string{"m"},
								Usage:    "Name of the model to delete",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:   "draw",
				Usage:  "Render a stored model's flow as a DOT graph",
				Action: drawCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "model",
						Aliases:  []string{"m"},
						Usage:    "Name of the stored model",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the model store directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "Path of the DOT file to write",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
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
