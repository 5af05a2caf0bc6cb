// Package poll runs scrapes and folds their results into the posting store.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"jobwatch-engine/internal/classify"
	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/notify"
	"jobwatch-engine/internal/rank"
	"jobwatch-engine/internal/reconcile"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/store"
)

var (
	// ErrPersist means a run's result could not be saved. Nothing was
	// committed and the process should stop.
	ErrPersist = errors.New("persist store")
	// ErrBusy means another run holds the engine.
	ErrBusy = errors.New("a run is already in progress")
)

// Deps wires an Engine. Config is read at the start of every run so
// config edits apply to the next one.
type Deps struct {
	Store    store.Persister
	Config   func() config.Config
	Fetchers func(cfg config.Config) ([]types.Fetcher, error)
	Hub      *events.Hub
	Notifier notify.Notifier
	Scorer   rank.Scorer
	Now      func() time.Time
}

// Engine owns the in-memory store snapshot. Runs are serialized; the
// snapshot only changes after the new generation has been saved.
type Engine struct {
	deps Deps

	run    sync.Mutex
	mu     sync.RWMutex
	snap   domain.Store
	status atomic.Value // types.ScrapeStatus
}

func New(d Deps) *Engine {
	if d.Scorer == nil {
		d.Scorer = rank.NewScorer()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	e := &Engine{deps: d, snap: domain.Store{}}
	e.status.Store(types.ScrapeStatus{})
	return e
}

// Load reads the persisted store into memory.
func (e *Engine) Load(ctx context.Context) error {
	s, err := e.deps.Store.Load(ctx)
	if err != nil {
		return err
	}
	e.commit(s)
	log.Printf("[poll] loaded jobs=%d", len(s))
	return nil
}

func (e *Engine) commit(s domain.Store) {
	e.mu.Lock()
	e.snap = s
	e.mu.Unlock()
}

// Snapshot returns a copy of the current store.
func (e *Engine) Snapshot() domain.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap.Clone()
}

func (e *Engine) Scorer() rank.Scorer { return e.deps.Scorer }

func (e *Engine) Now() time.Time { return e.deps.Now() }

func (e *Engine) Status() types.ScrapeStatus {
	return e.status.Load().(types.ScrapeStatus)
}

func (e *Engine) updateStatus(f func(*types.ScrapeStatus)) {
	st := e.Status()
	f(&st)
	e.status.Store(st)
}

// Summary describes one run.
type Summary struct {
	Added     int      `json:"added"`
	Recovered int      `json:"recovered"`
	Missing   int      `json:"missing"`
	Evicted   int      `json:"evicted"`
	Failed    []string `json:"failed,omitempty"`
	Jobs      int      `json:"jobs"`
}

type fetched struct {
	ok   bool
	jobs []domain.Job
}

// PollOnce scrapes every configured source, reconciles the successful ones
// in config order and saves the result. Sources that fail are logged and
// left untouched for this run.
func (e *Engine) PollOnce(ctx context.Context, reqID string) (Summary, error) {
	if !e.run.TryLock() {
		return Summary{}, ErrBusy
	}
	defer e.run.Unlock()

	started := e.deps.Now()
	e.updateStatus(func(st *types.ScrapeStatus) {
		st.Running = true
		st.LastRunAt = started.Format(time.RFC3339)
	})

	sum, err := e.pollOnce(ctx, reqID)

	e.updateStatus(func(st *types.ScrapeStatus) {
		st.Running = false
		st.FailedSources = sum.Failed
		if err != nil {
			st.LastError = err.Error()
			return
		}
		st.LastError = ""
		st.LastOkAt = e.deps.Now().Format(time.RFC3339)
		st.LastAdded = sum.Added
		st.LastRecovered = sum.Recovered
		st.LastMissing = sum.Missing
		st.LastEvicted = sum.Evicted
		st.Jobs = sum.Jobs
		st.PerSource = perSource(e.Snapshot())
	})
	return sum, err
}

func (e *Engine) pollOnce(ctx context.Context, reqID string) (Summary, error) {
	cfg := e.deps.Config()
	fetchers, err := e.deps.Fetchers(cfg)
	if err != nil {
		return Summary{}, fmt.Errorf("build fetchers: %w", err)
	}

	results := make([]fetched, len(fetchers))
	timeout := cfg.SourceTimeout()

	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Printf("[scrape:%s] Running...", f.Name())
			res, err := f.Fetch(fctx)
			if err != nil {
				log.Printf("[scrape:%s] error: %v", f.Name(), err)
				return nil // other sources keep going
			}
			jobs, err := classify.Postings(fctx, res.Postings)
			if err != nil {
				log.Printf("[scrape:%s] classify: %v", f.Name(), err)
				return nil
			}
			results[i] = fetched{ok: true, jobs: jobs}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	batches := make([]reconcile.Batch, 0, len(fetchers))
	for i, f := range fetchers {
		if !results[i].ok {
			sum.Failed = append(sum.Failed, f.Name())
			continue
		}
		batches = append(batches, reconcile.Batch{Source: f.Name(), Jobs: results[i].jobs})
	}

	opts := reconcile.Options{Now: e.deps.Now(), Grace: cfg.Grace()}
	next, evs := reconcile.Fold(e.Snapshot(), batches, opts)

	if err := e.deps.Store.Save(ctx, next); err != nil {
		return sum, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	e.commit(next)

	counts := reconcile.Count(evs)
	sum.Added = counts[reconcile.New]
	sum.Recovered = counts[reconcile.Recovered]
	sum.Missing = counts[reconcile.Missing]
	sum.Evicted = counts[reconcile.Evicted]
	sum.Jobs = len(next)

	reconcile.LogEvents(evs, e.deps.Scorer)
	log.Printf("[poll] ok added=%d recovered=%d missing=%d evicted=%d failed=%d jobs=%d",
		sum.Added, sum.Recovered, sum.Missing, sum.Evicted, len(sum.Failed), sum.Jobs)

	if e.deps.Hub != nil {
		e.deps.Hub.PublishPostings(reqID, evs)
		e.deps.Hub.Publish(events.MakeEvent(reqID, events.TypeScrapeDone, 1, sum))
	}
	if err := e.deps.Notifier.Notify(ctx, evs); err != nil {
		log.Printf("[notify] error: %v", err)
	}
	return sum, nil
}

// Fix reclassifies every stored posting from its title and saves the
// result. It returns how many postings changed.
func (e *Engine) Fix(ctx context.Context) (int, error) {
	if !e.run.TryLock() {
		return 0, ErrBusy
	}
	defer e.run.Unlock()

	prev := e.Snapshot()
	next := classify.Reclassify(prev)
	changed := 0
	for id, j := range next {
		if j.Attributes() != prev[id].Attributes() {
			changed++
		}
	}
	if err := e.deps.Store.Save(ctx, next); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	e.commit(next)
	log.Printf("[poll] reclassified jobs=%d changed=%d", len(next), changed)
	return changed, nil
}

func perSource(s domain.Store) map[string]int {
	out := map[string]int{}
	for _, j := range s {
		out[j.Source]++
	}
	return out
}
