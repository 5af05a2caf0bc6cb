package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

type Task func(ctx context.Context) error

func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	// run immediately
	go func() {
		if err := task(ctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := task(ctx); err != nil {
				log.Printf("[%s] error: %v", name, err)
			}
		}
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCron accepts standard five-field specs and descriptors like @hourly.
func ParseCron(spec string) (cron.Schedule, error) {
	return parser.Parse(spec)
}

// Cron runs task on a cron schedule until ctx is done. Runs that would
// overlap a still running one are skipped.
func Cron(ctx context.Context, spec string, name string, task Task) error {
	sched, err := ParseCron(spec)
	if err != nil {
		return fmt.Errorf("%s: cron %q: %w", name, spec, err)
	}

	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddJob(spec, cron.FuncJob(func() {
		if err := task(ctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	})); err != nil {
		return fmt.Errorf("%s: cron %q: %w", name, spec, err)
	}
	c.Start()
	log.Printf("[%s] scheduled cron=%q next=%s", name, spec, sched.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
