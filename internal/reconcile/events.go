package reconcile

import (
	"fmt"
	"log"
	"time"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/rank"
)

type EventKind int

const (
	New EventKind = iota
	Recovered
	Missing
	Evicted
	Duplicate
	Collision
)

func (k EventKind) String() string {
	switch k {
	case New:
		return "new"
	case Recovered:
		return "recovered"
	case Missing:
		return "missing"
	case Evicted:
		return "evicted"
	case Duplicate:
		return "duplicate"
	case Collision:
		return "collision"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Event records one lifecycle change. Duration is time since missingSince
// for Recovered and Evicted, and time since firstSeen for Missing.
type Event struct {
	Kind     EventKind     `json:"kind"`
	Job      domain.Job    `json:"job"`
	Duration time.Duration `json:"duration"`
}

func days(d time.Duration) int { return int(d / (24 * time.Hour)) }

// Line renders the event the way the scrape log shows it.
func (e Event) Line(s rank.Scorer) string {
	prefix := ""
	if rank.Desirable(s.Score(e.Job)) {
		prefix = "[!] "
	}
	j := e.Job
	switch e.Kind {
	case New:
		return fmt.Sprintf("%s[%s] New: %s (%s)", prefix, j.Company, j.Title, j.URL)
	case Recovered:
		return fmt.Sprintf("%s[%s] Recovered after %d days: %s (%s)", prefix, j.Company, days(e.Duration), j.Title, j.URL)
	case Missing:
		return fmt.Sprintf("%s[%s] Missing after %d days: %s (%s)", prefix, j.Company, days(e.Duration), j.Title, j.URL)
	case Evicted:
		return fmt.Sprintf("%s[%s] Evicted after %d days missing: %s (%s)", prefix, j.Company, days(e.Duration), j.Title, j.URL)
	case Duplicate:
		return fmt.Sprintf("[%s] Duplicate id %q: %s", j.Source, j.ID, j.Title)
	case Collision:
		return fmt.Sprintf("[%s] Id %q belongs to another source: %s", j.Source, j.ID, j.Title)
	}
	return e.Kind.String()
}

func LogEvents(events []Event, s rank.Scorer) {
	for _, e := range events {
		log.Printf("[reconcile] %s", e.Line(s))
	}
}

// Count tallies events by kind.
func Count(events []Event) map[EventKind]int {
	out := map[EventKind]int{}
	for _, e := range events {
		out[e.Kind]++
	}
	return out
}
