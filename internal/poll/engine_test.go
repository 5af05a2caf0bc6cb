package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/reconcile"
	"jobwatch-engine/internal/scrape/types"
)

var t0 = time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	name   string
	titles map[string]string
	err    error
	block  chan struct{}
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return types.ScrapeResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return types.ScrapeResult{}, f.err
	}
	res := types.ScrapeResult{Source: f.name}
	for id, title := range f.titles {
		res.Postings = append(res.Postings, domain.RawPosting{
			ID: id, Source: f.name, Company: f.name, URL: "https://jobs.example/" + id, Title: title, ObservedAt: t0,
		})
	}
	return res, nil
}

type memStore struct {
	mu    sync.Mutex
	saved domain.Store
	saves int
	err   error
}

func (m *memStore) Load(context.Context) (domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return domain.Store{}, nil
	}
	return m.saved.Clone(), nil
}

func (m *memStore) Save(_ context.Context, s domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.saved = s.Clone()
	return nil
}

func (m *memStore) Init(context.Context) error { return nil }
func (m *memStore) Lock(context.Context) error { return nil }
func (m *memStore) Close() error { return nil }

type recordNotifier struct{ got []reconcile.Event }

func (r *recordNotifier) Notify(_ context.Context, evs []reconcile.Event) error {
	r.got = append(r.got, evs...)
	return nil
}

func newEngine(st *memStore, fetchers ...types.Fetcher) (*Engine, *recordNotifier, *time.Time) {
	now := t0
	n := &recordNotifier{}
	e := New(Deps{
		Store:    st,
		Config:   config.Default,
		Fetchers: func(config.Config) ([]types.Fetcher, error) { return fetchers, nil },
		Hub:      events.NewHub(),
		Notifier: n,
		Now:      func() time.Time { return now },
	})
	return e, n, &now
}

func TestPollOnceAddsAndSaves(t *testing.T) {
	st := &memStore{}
	e, n, _ := newEngine(st,
		&fakeFetcher{name: "A", titles: map[string]string{"a1": "Gameplay Programmer"}},
		&fakeFetcher{name: "B", titles: map[string]string{"b1": "Producer", "b2": "Artist"}},
	)

	sum, err := e.PollOnce(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Added)
	assert.Equal(t, 3, sum.Jobs)
	assert.Empty(t, sum.Failed)

	assert.Equal(t, 1, st.saves)
	assert.Equal(t, e.Snapshot(), st.saved)
	assert.Equal(t, t0, e.Snapshot()["a1"].FirstSeen)
	assert.Len(t, n.got, 3)

	status := e.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.LastAdded)
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, status.PerSource)
	assert.Empty(t, status.LastError)
}

func TestFailingSourceIsLeftAlone(t *testing.T) {
	gone := t0.Add(-10 * 24 * time.Hour)
	st := &memStore{saved: domain.Store{
		"b-old": {ID: "b-old", Source: "B", Title: "Old", FirstSeen: gone, MissingSince: &gone},
		"a-old": {ID: "a-old", Source: "A", Title: "Old", FirstSeen: gone},
	}}
	e, _, _ := newEngine(st,
		&fakeFetcher{name: "A", titles: map[string]string{}},
		&fakeFetcher{name: "B", err: errors.New("boom")},
	)
	require.NoError(t, e.Load(context.Background()))

	sum, err := e.PollOnce(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, sum.Failed)
	assert.Equal(t, 1, sum.Missing)

	snap := e.Snapshot()
	assert.Contains(t, snap, "b-old", "a failed source keeps its postings, even stale ones")
	require.NotNil(t, snap["a-old"].MissingSince)
	assert.Equal(t, []string{"B"}, e.Status().FailedSources)
}

func TestPersistFailureCommitsNothing(t *testing.T) {
	st := &memStore{err: errors.New("disk full")}
	e, n, _ := newEngine(st, &fakeFetcher{name: "A", titles: map[string]string{"a1": "Programmer"}})

	_, err := e.PollOnce(context.Background(), "")
	require.ErrorIs(t, err, ErrPersist)
	assert.Empty(t, e.Snapshot())
	assert.Empty(t, n.got)
	assert.Contains(t, e.Status().LastError, "disk full")
}

func TestCancelledRunCommitsNothing(t *testing.T) {
	st := &memStore{}
	block := make(chan struct{})
	e, _, _ := newEngine(st, &fakeFetcher{name: "A", titles: map[string]string{"a1": "Programmer"}, block: block})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.PollOnce(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.saves)
	assert.Empty(t, e.Snapshot())
}

func TestConcurrentRunIsBusy(t *testing.T) {
	st := &memStore{}
	block := make(chan struct{})
	e, _, _ := newEngine(st, &fakeFetcher{name: "A", titles: map[string]string{"a1": "Programmer"}, block: block})

	done := make(chan error, 1)
	go func() {
		_, err := e.PollOnce(context.Background(), "")
		done <- err
	}()
	require.Eventually(t, func() bool { return e.Status().Running }, time.Second, time.Millisecond)

	_, err := e.PollOnce(context.Background(), "")
	assert.ErrorIs(t, err, ErrBusy)

	close(block)
	require.NoError(t, <-done)
}

func TestSecondRunMarksMissingThenEvicts(t *testing.T) {
	st := &memStore{}
	f := &fakeFetcher{name: "A", titles: map[string]string{"a1": "Programmer"}}
	e, _, now := newEngine(st, f)

	_, err := e.PollOnce(context.Background(), "")
	require.NoError(t, err)

	f.titles = map[string]string{}
	*now = t0.Add(time.Hour)
	sum, err := e.PollOnce(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Missing)

	*now = t0.Add(time.Hour + reconcile.DefaultGrace)
	sum, err = e.PollOnce(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Evicted)
	assert.Empty(t, e.Snapshot())
}

func TestFixReclassifies(t *testing.T) {
	st := &memStore{saved: domain.Store{
		"1": {ID: "1", Source: "A", Title: "Senior Gameplay Programmer", FirstSeen: t0},
		"2": {ID: "2", Source: "A", Title: "Intern", Level: domain.Intern, Discipline: domain.Other, FirstSeen: t0},
	}}
	e, _, _ := newEngine(st)
	require.NoError(t, e.Load(context.Background()))

	changed, err := e.Fix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	j := e.Snapshot()["1"]
	assert.Equal(t, domain.Senior, j.Level)
	assert.Equal(t, domain.Programmer, j.Discipline)
	assert.Equal(t, t0, j.FirstSeen)
	assert.Equal(t, 1, st.saves)
}

func TestRunStopsOnPersistFailure(t *testing.T) {
	st := &memStore{err: errors.New("read-only")}
	e, _, _ := newEngine(st, &fakeFetcher{name: "A", titles: map[string]string{"a1": "Programmer"}})

	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrPersist)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunReturnsNilOnCancel(t *testing.T) {
	e, _, _ := newEngine(&memStore{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	cancel()
	assert.NoError(t, <-errc)
}
