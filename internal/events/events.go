package events

import (
	"encoding/json"
	"time"

	"jobwatch-engine/internal/reconcile"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

const (
	TypePing             = "ping"
	TypePostingNew       = "posting_new"
	TypePostingRecovered = "posting_recovered"
	TypePostingMissing   = "posting_missing"
	TypePostingEvicted   = "posting_evicted"
	TypeScrapeDone       = "scrape_done"
)

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// PostingData is the payload of the posting_* events.
type PostingData struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Company string `json:"company"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Days    int    `json:"days,omitempty"`
}

// PostingType maps a lifecycle event to its stream type. Anomalies such as
// duplicates and collisions are only logged and have no stream type.
func PostingType(k reconcile.EventKind) (string, bool) {
	switch k {
	case reconcile.New:
		return TypePostingNew, true
	case reconcile.Recovered:
		return TypePostingRecovered, true
	case reconcile.Missing:
		return TypePostingMissing, true
	case reconcile.Evicted:
		return TypePostingEvicted, true
	}
	return "", false
}

// PublishPostings sends one envelope per lifecycle event.
func (h *Hub) PublishPostings(reqID string, evs []reconcile.Event) {
	for _, e := range evs {
		typ, ok := PostingType(e.Kind)
		if !ok {
			continue
		}
		h.Publish(MakeEvent(reqID, typ, 1, PostingData{
			ID:      e.Job.ID,
			Source:  e.Job.Source,
			Company: e.Job.Company,
			Title:   e.Job.Title,
			URL:     e.Job.URL,
			Days:    int(e.Duration / (24 * time.Hour)),
		}))
	}
}
