// Command trending browses the most-starred repositories created in the
// last few days.
//
// Usage:
//
//	trending [-config path] [-mode replace|accumulate]
//	trending -dump [-pages n]
//
// Without -dump the feed is shown in the terminal. With -dump the pages are
// walked in accumulate mode and the repositories are written to stdout as
// JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/gh-trending-feed/internal/config"
	"github.com/Sternrassler/gh-trending-feed/internal/tui"
	"github.com/Sternrassler/gh-trending-feed/pkg/logging"
	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/Sternrassler/gh-trending-feed/pkg/pagination"
	"github.com/Sternrassler/gh-trending-feed/pkg/search"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "trending: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		mode       = flag.String("mode", "", "replace or accumulate (overrides config)")
		dump       = flag.Bool("dump", false, "write repositories as JSON instead of starting the UI")
		pages      = flag.Int("pages", 0, "with -dump, stop after this many pages (0 = all upstream serves)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *mode != "" {
		if _, err := pager.ParseMode(*mode); err != nil {
			return err
		}
		cfg.Pager.Mode = *mode
	}

	// The UI owns the terminal, so it only logs to a file.
	logOut := io.Writer(os.Stderr)
	if !*dump {
		out, closeLog, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer closeLog()
		logOut = out
	}
	logging.Setup(cfg.LoggingConfig(logOut))
	logger := logging.NewLogger("trending")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if opts := cfg.Redis.Options(); opts != nil {
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
	}

	client, err := search.New(cfg.SearchClientConfig(redisClient))
	if err != nil {
		return fmt.Errorf("create search client: %w", err)
	}
	defer client.Close()

	ctrlCfg := cfg.ControllerConfig()
	if *dump {
		ctrlCfg.Mode = pager.ModeAccumulate
	}
	ctrl, err := pager.New(client, ctrlCfg)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	if *dump {
		return dumpFeed(ctx, ctrl, pageLimit(*pages, ctrlCfg.PageSize), os.Stdout)
	}

	logger.Info().
		Str("mode", string(ctrl.Mode())).
		Bool("redis", redisClient != nil).
		Msg("Starting terminal UI")

	return tui.Run(ctx, ctrl, tui.Options{
		Threshold: cfg.Pager.ProximityThreshold,
		Logger:    logger,
	})
}

// pageLimit bounds a dump to the pages upstream will serve. requested <= 0
// means as many as possible.
func pageLimit(requested, pageSize int) int {
	limit := search.MaxPages(pageSize)
	if requested > 0 && requested < limit {
		return requested
	}
	return limit
}

// dumpFeed walks the feed and writes the repositories loaded so far, even
// when the walk stopped on an error.
func dumpFeed(ctx context.Context, ctrl pagination.Controller, maxPages int, w io.Writer) error {
	state, walkErr := pagination.NewWalker(pagination.DefaultConfig()).Walk(ctx, ctrl, maxPages)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state.Items); err != nil {
		return fmt.Errorf("write repositories: %w", err)
	}
	return walkErr
}
