package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"jobwatch-engine/internal/rank"
)

type JobsHandler struct {
	Engine Engine
}

// List serves the ranked listing. include_missing=true adds postings that
// have dropped off their source; limit caps the result.
func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var opts rank.ListOptions
	var err error
	if opts.IncludeMissing, err = queryBool(q, "include_missing", false); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if opts.Limit, err = queryCount(q, "limit", 0); err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	writeJSON(w, rank.List(h.Engine.Snapshot(), h.Engine.Now(), h.Engine.Scorer(), opts))
}

// GetByPath serves /jobs/{id}. Ids may contain slashes, so clients escape
// them.
func (h JobsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/jobs/"))
	if err != nil || id == "" {
		writeBadRequest(w, r, "invalid id")
		return
	}

	j, ok := h.Engine.Snapshot()[id]
	if !ok {
		writeNotFound(w, r, "posting", id)
		return
	}
	s := h.Engine.Scorer()
	score := s.Score(j)
	writeJSON(w, rank.Entry{
		Job:       j,
		Score:     score,
		AgeDays:   rank.AgeDays(h.Engine.Now(), j),
		Desirable: rank.Desirable(score),
	})
}
