package poll

import (
	"context"
	"errors"
	"log"

	"jobwatch-engine/internal/scheduler"
)

// Run polls on the configured schedule until ctx is done. A run that fails
// to persist stops the loop and its error is returned; other run errors are
// logged and the next tick proceeds.
func (e *Engine) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	task := func(ctx context.Context) error {
		_, err := e.PollOnce(ctx, "")
		switch {
		case errors.Is(err, ErrBusy):
			log.Printf("[poll] skipped: %v", err)
			return nil
		case errors.Is(err, ErrPersist):
			cancel(err)
		}
		return err
	}

	cfg := e.deps.Config()
	if cfg.Polling.Cron != "" {
		if err := scheduler.Cron(runCtx, cfg.Polling.Cron, "poll", task); err != nil {
			return err
		}
	} else {
		scheduler.Every(runCtx, cfg.PollInterval(), "poll", task)
	}

	if cause := context.Cause(runCtx); errors.Is(cause, ErrPersist) {
		return cause
	}
	return nil
}
