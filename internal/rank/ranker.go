package rank

import (
	"cmp"
	"slices"
	"time"

	"jobwatch-engine/internal/domain"
)

// Entry is a job with the fields a listing shows next to it.
type Entry struct {
	domain.Job
	Score     int  `json:"score"`
	AgeDays   int  `json:"ageDays"`
	Desirable bool `json:"desirable"`
}

// AgeDays counts whole days since the job was first seen. Clock skew never
// yields a negative age.
func AgeDays(now time.Time, job domain.Job) int {
	d := int(now.Sub(job.FirstSeen) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}

func ageBucket(age int) int {
	switch {
	case age == 0:
		return 0
	case age < 7:
		return 1
	default:
		return 2
	}
}

// Compare orders entries most preferred first: desirable before not, then
// today before this week before older, then by score minus age descending,
// and finally by company, title and id.
func Compare(a, b Entry) int {
	if a.Desirable != b.Desirable {
		if a.Desirable {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(ageBucket(a.AgeDays), ageBucket(b.AgeDays)); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Score-b.AgeDays, a.Score-a.AgeDays); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Company, b.Company); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func newEntry(now time.Time, s Scorer, j domain.Job) Entry {
	score := s.Score(j)
	return Entry{Job: j, Score: score, AgeDays: AgeDays(now, j), Desirable: Desirable(score)}
}

// Rank returns every job in the store in display order.
func Rank(store domain.Store, now time.Time, s Scorer) []Entry {
	out := make([]Entry, 0, len(store))
	for _, j := range store {
		out = append(out, newEntry(now, s, j))
	}
	slices.SortFunc(out, Compare)
	return out
}

type ListOptions struct {
	IncludeMissing bool
	Limit          int // <= 0 means no limit
}

// List is Rank without postings that have gone missing from their source,
// unless asked for.
func List(store domain.Store, now time.Time, s Scorer, opts ListOptions) []Entry {
	ranked := Rank(store, now, s)
	out := ranked[:0]
	for _, e := range ranked {
		if e.IsMissing() && !opts.IncludeMissing {
			continue
		}
		out = append(out, e)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
