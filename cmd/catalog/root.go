package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"fashionstore/internal/config"
	"fashionstore/internal/db"
	"fashionstore/internal/model"
	"fashionstore/internal/repository"
)

var (
	outputFormat string
	verbose      bool
)

// productStore is what the subcommands need from the products table.
type productStore interface {
	List(ctx context.Context, f repository.Filter) ([]model.Product, error)
	Get(ctx context.Context, id int) (model.Product, error)
	Search(ctx context.Context, q string, skip, limit int) ([]model.Product, error)
	AddReview(ctx context.Context, id int, review model.Review) (model.Product, error)
	Delete(ctx context.Context, id int) error
}

// openStore connects to DATABASE_URL; tests replace it.
var openStore = func(ctx context.Context) (productStore, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return &repository.ProductRepository{DB: pool}, pool.Close, nil
}

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and annotate the imported product catalog",
	Long: `catalog reads the products table filled by the importer.

Examples:
  catalog list --category Hoodies
  catalog show 18
  catalog search ember -o json
  catalog review 18 --user Madina --text "Great shoes"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat != "yaml" && outputFormat != "json" {
			return fmt.Errorf("unknown output format: %s", outputFormat)
		}
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(listCmd(), showCmd(), searchCmd(), reviewCmd(), deleteCmd())
}

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(productStore) error) error {
	store, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(store)
}
