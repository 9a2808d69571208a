// Package importer writes an extracted catalog into the store, asking the
// operator before existing products are replaced.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fashionstore/internal/lock"
	"fashionstore/internal/model"
)

// ErrNoProducts means extraction produced nothing to write.
var ErrNoProducts = errors.New("no products to import")

// Store is the persistent catalog.
type Store interface {
	Count(ctx context.Context) (int, error)
	ReplaceAll(ctx context.Context, products []model.Product) error
}

// Locker serializes import runs against the same store.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// NopLocker never blocks.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context) (func(), error) { return func() {}, nil }

// Describer fills in missing product descriptions before they are stored.
type Describer interface {
	Describe(ctx context.Context, products []model.Product) error
}

// Recorder receives one observation per run.
type Recorder interface {
	ObserveImport(outcome string, d time.Duration)
}

// StoreWriteError wraps a failed count or write. The store is left as it was.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// Status is the final state of a run.
type Status string

const (
	StatusImported Status = "imported"
	StatusDeclined Status = "declined"
	StatusFailed   Status = "failed"
)

// Outcome summarizes a run.
type Outcome struct {
	Status   Status
	Existing int
	Written  int
	RunID    string
}

// Importer runs the store writer. Store is required; other collaborators
// have no-op defaults.
type Importer struct {
	Store     Store
	Prompter  Prompter
	Locker    Locker
	Describer Describer
	Recorder  Recorder
	Logger    *slog.Logger
	// Out receives the operator status lines.
	Out io.Writer
}

// Run replaces the stored catalog with products. When the store already
// holds products the operator must confirm; declining leaves it untouched.
func (im *Importer) Run(ctx context.Context, products []model.Product) (Outcome, error) {
	start := time.Now()
	out := Outcome{RunID: uuid.NewString(), Status: StatusFailed}
	log := im.logger().With(slog.String("run_id", out.RunID))

	err := im.run(ctx, log, products, &out)

	label := string(out.Status)
	switch {
	case errors.Is(err, ErrNoProducts):
		label = "empty"
	case errors.Is(err, lock.ErrLocked):
		label = "locked"
	}
	if im.Recorder != nil {
		im.Recorder.ObserveImport(label, time.Since(start))
	}
	if err != nil {
		log.Error("import failed", slog.Any("error", err))
	}
	return out, err
}

func (im *Importer) run(ctx context.Context, log *slog.Logger, products []model.Product, out *Outcome) error {
	if len(products) == 0 {
		im.printf("No products found; nothing to import.\n")
		return ErrNoProducts
	}
	if im.Store == nil {
		return errors.New("importer: nil store")
	}

	locker := im.Locker
	if locker == nil {
		locker = NopLocker{}
	}
	release, err := locker.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire import lock: %w", err)
	}
	defer release()

	existing, err := im.Store.Count(ctx)
	if err != nil {
		return &StoreWriteError{Op: "count", Err: err}
	}
	out.Existing = existing
	log.Debug("store checked", slog.Int("existing", existing), slog.Int("incoming", len(products)))

	if existing > 0 {
		im.printf("The database already has %d products.\n", existing)
		ok, err := im.prompter().Confirm("Replace them with the imported catalog? (y/n):")
		if err != nil {
			return fmt.Errorf("confirm overwrite: %w", err)
		}
		if !ok {
			out.Status = StatusDeclined
			im.printf("Import cancelled.\n")
			log.Info("overwrite declined", slog.Int("existing", existing))
			return nil
		}
	}

	if im.Describer != nil {
		if err := im.Describer.Describe(ctx, products); err != nil {
			log.Warn("describe products", slog.Any("error", err))
		}
	}

	if err := im.Store.ReplaceAll(ctx, products); err != nil {
		return &StoreWriteError{Op: "replace", Err: err}
	}
	for _, p := range products {
		im.printf("Added product: %s\n", p.Name)
	}
	out.Status = StatusImported
	out.Written = len(products)
	im.printf("Import complete. Added %d products.\n", len(products))
	log.Info("import complete", slog.Int("written", out.Written), slog.Int("replaced", existing))
	return nil
}

func (im *Importer) printf(format string, args ...any) {
	if im.Out != nil {
		fmt.Fprintf(im.Out, format, args...)
	}
}

func (im *Importer) prompter() Prompter {
	if im.Prompter == nil {
		return AutoConfirm{Answer: false}
	}
	return im.Prompter
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger == nil {
		return slog.Default()
	}
	return im.Logger
}
