// Package panicerr turns panics in background goroutines into errors.
package panicerr

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Safe runs fn and reports a recovered panic as its error.
func Safe(fn func() error) func() error {
	return func() error {
		return SafeContext(func(context.Context) error { return fn() })(context.Background())
	}
}

func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// Go runs fn on wg. A returned error or a panic is logged under name and
// cancels the shared context so sibling goroutines wind down too.
// context.Canceled is treated as a clean exit.
func Go(ctx context.Context, wg *conc.WaitGroup, cancel context.CancelFunc, name string, fn func(context.Context) error) {
	wg.Go(func() {
		err := SafeContext(fn)(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			slog.Debug("background task stopped", "component", name)
			return
		}
		slog.Error("background task failed", "component", name, "error", err)
		cancel()
	})
}
