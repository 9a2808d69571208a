package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fashionstore/internal/config"
	"fashionstore/internal/db"
	"fashionstore/internal/enrich"
	"fashionstore/internal/extractor"
	"fashionstore/internal/importer"
	"fashionstore/internal/lock"
	"fashionstore/internal/observability"
	"fashionstore/internal/repository"
	"fashionstore/internal/source"
)

// go run ./cmd/importer -source ../my-app/src/components/ProductPage.jsx
// go run ./cmd/importer -source https://shop.example/catalog -yes -describe
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		return 1
	}

	src := flag.String("source", cfg.CatalogSource, "Front-end file or URL holding the products array")
	variable := flag.String("var", cfg.CatalogVariable, "Name of the declared products array")
	yes := flag.Bool("yes", false, "Replace existing products without asking")
	strict := flag.Bool("strict-prices", false, "Abort the whole import on the first unparseable price")
	describe := flag.Bool("describe", false, "Generate missing descriptions with OpenAI")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	logger := newLogger(*verbose)
	slog.SetDefault(logger)

	cfg.CatalogSource = *src
	cfg.CatalogVariable = *variable
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}
	if *describe {
		if err := cfg.ValidateDescribe(); err != nil {
			slog.Error("invalid configuration", slog.Any("error", err))
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	if *metricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, *metricsAddr); err != nil {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
	}

	text, err := source.Load(ctx, cfg.CatalogSource, source.WithTimeout(cfg.FetchTimeout))
	if err != nil {
		slog.Error("load source", slog.String("source", cfg.CatalogSource), slog.Any("error", err))
		fmt.Println("Could not read the catalog source.")
		return 1
	}

	res, err := extractor.Extract(text, extractor.Options{
		Variable:     cfg.CatalogVariable,
		StrictPrices: *strict,
		Observer:     metrics,
	})
	if err != nil {
		var pe *extractor.PriceError
		switch {
		case errors.Is(err, extractor.ErrArrayNotFound):
			fmt.Printf("Could not find the %q array in %s.\n", cfg.CatalogVariable, cfg.CatalogSource)
		case errors.As(err, &pe):
			fmt.Printf("Import aborted: %v\n", pe)
		}
		slog.Error("extract products", slog.Any("error", err))
		return 1
	}
	for _, s := range res.Skipped {
		slog.Warn("record skipped", slog.Int("index", s.Index), slog.String("reason", s.Reason), slog.Any("error", s.Err))
	}
	fmt.Printf("Found %d products.\n", len(res.Products))

	sqlDB, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect database", slog.Any("error", err))
		return 1
	}
	defer sqlDB.Close()

	catalog := &repository.CatalogRepository{DB: sqlDB}
	if err := catalog.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", slog.Any("error", err))
		return 1
	}

	var prompter importer.Prompter = importer.TerminalPrompter{In: os.Stdin, Out: os.Stdout}
	if *yes {
		prompter = importer.AutoConfirm{Answer: true}
	}

	var locker importer.Locker = importer.NopLocker{}
	if cfg.RedisURL != "" {
		client, err := lock.NewClient(cfg.RedisURL)
		if err != nil {
			slog.Error("redis client", slog.Any("error", err))
			return 1
		}
		defer client.Close()
		locker = &lock.RedisLock{Client: client, TTL: cfg.LockTTL}
	}

	im := &importer.Importer{
		Store:    catalog,
		Prompter: prompter,
		Locker:   locker,
		Recorder: metrics,
		Logger:   logger,
		Out:      os.Stdout,
	}
	if *describe {
		im.Describer = enrich.New(cfg.OpenAIKey, cfg.OpenAIModel, cfg.DescribeWorkers)
	}

	outcome, err := im.Run(ctx, res.Products)
	if err != nil {
		var swe *importer.StoreWriteError
		switch {
		case errors.Is(err, lock.ErrLocked):
			fmt.Println("Another import is already running.")
		case errors.As(err, &swe):
			fmt.Printf("Error while importing data: %v\n", swe.Err)
		}
		return 1
	}
	slog.Debug("import finished", slog.String("status", string(outcome.Status)), slog.String("run_id", outcome.RunID))
	return 0
}

func newLogger(verbose bool) *slog.Logger {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
