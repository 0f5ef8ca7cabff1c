package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/deusflow/haulnews/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "haulnews",
		Usage: "collect and rank Australian heavy vehicle news for the newsletter",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging", EnvVars: []string{"DEBUG"}},
			&cli.StringFlag{Name: "format", Value: "yaml", Usage: "output format: yaml or json"},
		},
		Before: func(c *cli.Context) error {
			logger.Init(c.Bool("debug"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "scrape",
				Usage:  "fetch every source and archive new articles",
				Action: scrapeAction,
			},
			{
				Name:  "select",
				Usage: "show the ranked articles an issue would use",
				Flags: []cli.Flag{
					segmentFlag(),
					&cli.IntFlag{Name: "days", Usage: "lookback window in days (default LOOKBACK_DAYS)"},
					&cli.IntFlag{Name: "limit", Usage: "maximum articles (default MAX_ARTICLES_PER_ISSUE)"},
				},
				Action: selectAction,
			},
			{
				Name:   "preview",
				Usage:  "select and rewrite the pro and driver editions without marking anything used",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "segment", Usage: "prepare only this edition: pro, driver or both"}},
				Action: previewAction,
			},
			{
				Name:  "mark-used",
				Usage: "record that articles went out in an issue",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "issue", Required: true, Usage: "issue identifier"},
					&cli.StringSliceFlag{Name: "id", Required: true, Usage: "article id (repeatable)"},
				},
				Action: markUsedAction,
			},
			{
				Name:  "serve",
				Usage: "run the monitoring server and scrape on an interval",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "interval", Value: 0, Usage: "scrape interval, 0 to only serve"},
				},
				Action: serveAction,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error("haulnews failed", "error", err)
		os.Exit(1)
	}
}

func segmentFlag() cli.Flag {
	return &cli.StringFlag{Name: "segment", Value: "both", Usage: "pro, driver or both"}
}
