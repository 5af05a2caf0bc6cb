// Package reconcile merges a source's freshly scraped postings into the
// known set of postings.
//
// Reconcile is a pure function of its inputs: it never mutates the previous
// store and only ever touches entries that belong to the source being
// reconciled. Per-source results can therefore be computed independently and
// folded afterwards in a fixed order.
package reconcile

import (
	"log"
	"time"

	"jobwatch-engine/internal/domain"
)

// DefaultGrace is how long a posting may stay missing before it's evicted.
const DefaultGrace = 3 * 24 * time.Hour

type Options struct {
	Now   time.Time
	Grace time.Duration // <= 0 means DefaultGrace
}

func (o Options) grace() time.Duration {
	if o.Grace <= 0 {
		return DefaultGrace
	}
	return o.Grace
}

type Result struct {
	Source string
	Next   domain.Store
	Events []Event
}

// Reconcile computes the store that follows prev once source has been
// scraped and produced incoming. Incoming jobs must belong to source; their
// FirstSeen is replaced with opts.Now for new postings and with the known
// value for existing ones.
func Reconcile(prev domain.Store, source string, incoming []domain.Job, opts Options) Result {
	now := opts.Now
	grace := opts.grace()
	var events []Event

	batch := make(map[string]domain.Job, len(incoming))
	order := make([]string, 0, len(incoming))
	for _, j := range incoming {
		j.Source = source
		if _, dup := batch[j.ID]; dup {
			log.Printf("[reconcile] source=%s duplicate id=%q; keeping the last one", source, j.ID)
			events = append(events, Event{Kind: Duplicate, Job: j})
		} else {
			order = append(order, j.ID)
		}
		batch[j.ID] = j
	}

	next := make(domain.Store, len(prev)+len(batch))

	// Other sources pass through untouched.
	for id, old := range prev {
		if old.Source != source {
			next[id] = old
		}
	}

	for _, id := range order {
		j := batch[id]
		old, known := prev[id]
		switch {
		case known && old.Source != source:
			log.Printf("[reconcile] source=%s id=%q already belongs to source=%s; ignoring", source, id, old.Source)
			events = append(events, Event{Kind: Collision, Job: j})
			continue
		case known:
			j.FirstSeen = old.FirstSeen
			j.MissingSince = nil
			if old.MissingSince != nil {
				events = append(events, Event{Kind: Recovered, Job: j, Duration: now.Sub(*old.MissingSince)})
			}
		default:
			j.FirstSeen = now
			j.MissingSince = nil
			events = append(events, Event{Kind: New, Job: j})
		}
		next[id] = j
	}

	for _, id := range prev.BySource(source) {
		old := prev[id]
		if _, seen := batch[id]; seen {
			continue
		}
		if old.MissingSince == nil {
			t := now
			old.MissingSince = &t
			events = append(events, Event{Kind: Missing, Job: old, Duration: now.Sub(old.FirstSeen)})
		}
		if now.Sub(*old.MissingSince) >= grace {
			events = append(events, Event{Kind: Evicted, Job: old, Duration: now.Sub(*old.MissingSince)})
			continue
		}
		next[id] = old
	}

	return Result{Source: source, Next: next, Events: events}
}

// Batch is one source's complete scrape.
type Batch struct {
	Source string
	Jobs   []domain.Job
}

// Fold reconciles batches one after another in the order given.
func Fold(prev domain.Store, batches []Batch, opts Options) (domain.Store, []Event) {
	cur := prev
	var events []Event
	for _, b := range batches {
		res := Reconcile(cur, b.Source, b.Jobs, opts)
		cur = res.Next
		events = append(events, res.Events...)
	}
	if cur == nil {
		cur = domain.Store{}
	}
	return cur, events
}
