package greenhouse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/util"
)

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/riot", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<div class="opening"><a href="/riot/jobs/111?gh_src=x">Senior Gameplay Engineer</a></div>
<div class="opening"><a href="/riot/jobs/111">Senior Gameplay Engineer</a></div>
<div class="opening"><a href="/riot/jobs/222">Apply</a></div>
<div class="opening"><a href="/riot/jobs/333">View</a></div>
<a href="/riot/about">About</a>
<a href="https://elsewhere.example/jobs/444">Elsewhere</a>
</body></html>`)
	})
	mux.HandleFunc("/riot/jobs/222", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><h1> Environment  Artist </h1></html>`)
	})
	mux.HandleFunc("/riot/jobs/333", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(config.Source{Name: "Riot", Kind: config.KindGreenhouse, Slug: "riot", Company: "Riot Games"},
		util.NewClient(nil, "test"))
	s.BaseURL = srv.URL

	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Riot", res.Source)
	require.Len(t, res.Postings, 2)

	assert.Equal(t, "Riot:111", res.Postings[0].ID)
	assert.Equal(t, "Senior Gameplay Engineer", res.Postings[0].Title)
	assert.Equal(t, srv.URL+"/riot/jobs/111", res.Postings[0].URL)
	assert.Equal(t, "Riot Games", res.Postings[0].Company)

	assert.Equal(t, "Riot:222", res.Postings[1].ID)
	assert.Equal(t, "Environment Artist", res.Postings[1].Title)
}

func TestFetchBoardDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(config.Source{Name: "Riot", Slug: "riot"}, util.NewClient(nil, ""))
	s.BaseURL = srv.URL
	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, util.ErrStatus)
}

func TestFetchFailsOnJobPageError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/riot", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/riot/jobs/111">Gameplay Engineer</a><a href="/riot/jobs/222">Apply</a>`)
	})
	mux.HandleFunc("/riot/jobs/222", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(config.Source{Name: "Riot", Slug: "riot"}, util.NewClient(nil, ""))
	s.BaseURL = srv.URL
	res, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrStatus)
	assert.Empty(t, res.Postings)
}

func TestFetchKeepsLinkTextWithoutHeading(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/riot", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="/riot/jobs/222">Apply</a>`)
	})
	mux.HandleFunc("/riot/jobs/222", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><p>No heading here</p></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(config.Source{Name: "Riot", Slug: "riot"}, util.NewClient(nil, ""))
	s.BaseURL = srv.URL
	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Postings, 1)
	assert.Equal(t, "Apply", res.Postings[0].Title)
}

func TestExtractJobID(t *testing.T) {
	assert.Equal(t, "123", extractJobID("/riot/jobs/123"))
	assert.Equal(t, "123", extractJobID("/riot/jobs/123-senior"))
	assert.Equal(t, "", extractJobID("/riot/about"))
	assert.Equal(t, "", extractJobID("/riot/jobs/abc"))
}
