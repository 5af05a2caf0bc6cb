package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-engine/internal/classify"
	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/rank"
	"jobwatch-engine/internal/reconcile"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeSender) SendHTML(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, text)
	return nil
}

func newEvent(kind reconcile.EventKind, id, title string) reconcile.Event {
	return reconcile.Event{Kind: kind, Job: classify.Posting(domain.RawPosting{
		ID: id, Source: "S", Company: "Studio <S>", URL: "https://s.example/" + id, Title: title,
	})}
}

func TestTelegramOnlyDesirable(t *testing.T) {
	fs := &fakeSender{}
	n := &Telegram{Sender: fs, ChatID: 1, OnlyDesirable: true, Scorer: rank.NewScorer()}

	err := n.Notify(context.Background(), []reconcile.Event{
		newEvent(reconcile.New, "1", "Gameplay Programmer"),
		newEvent(reconcile.New, "2", "Senior Producer"),
		newEvent(reconcile.Missing, "3", "Gameplay Programmer"),
	})
	require.NoError(t, err)
	require.Len(t, fs.msgs, 1)
	assert.Contains(t, fs.msgs[0], "<b>Gameplay Programmer</b>")
	assert.Contains(t, fs.msgs[0], "Studio &lt;S&gt;")
	assert.Contains(t, fs.msgs[0], "Mid Programmer · Gameplay")
	assert.True(t, strings.HasPrefix(fs.msgs[0], "⭐ "))
}

func TestTelegramAllNew(t *testing.T) {
	fs := &fakeSender{}
	n := &Telegram{Sender: fs, ChatID: 1, Scorer: rank.NewScorer()}
	require.NoError(t, n.Notify(context.Background(), []reconcile.Event{
		newEvent(reconcile.New, "1", "Gameplay Programmer"),
		newEvent(reconcile.New, "2", "Senior Producer"),
	}))
	assert.Len(t, fs.msgs, 2)
	assert.False(t, strings.HasPrefix(fs.msgs[1], "⭐ "))
}

func TestTelegramCapsMessages(t *testing.T) {
	fs := &fakeSender{}
	n := &Telegram{Sender: fs, ChatID: 1, Scorer: rank.NewScorer()}
	var evs []reconcile.Event
	for i := range maxPerRun + 5 {
		evs = append(evs, newEvent(reconcile.New, fmt.Sprint(i), "Programmer"))
	}
	require.NoError(t, n.Notify(context.Background(), evs))
	require.Len(t, fs.msgs, maxPerRun+1)
	assert.Contains(t, fs.msgs[maxPerRun], "5 more")
}

func TestTelegramSendError(t *testing.T) {
	fs := &fakeSender{err: errors.New("boom")}
	n := &Telegram{Sender: fs, ChatID: 1, Scorer: rank.NewScorer()}
	err := n.Notify(context.Background(), []reconcile.Event{newEvent(reconcile.New, "1", "Programmer")})
	assert.ErrorContains(t, err, "boom")
}

func TestBotSenderAgainstFakeAPI(t *testing.T) {
	var mu sync.Mutex
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"jobwatch","username":"jobwatch_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, r.Form.Get("chat_id")+"|"+r.Form.Get("parse_mode")+"|"+r.Form.Get("text"))
			mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"not found"}`)
		}
	}))
	defer srv.Close()

	s, err := NewTelegramBot("123:abc", srv.URL+"/bot%s/%s")
	require.NoError(t, err)
	require.NoError(t, s.SendHTML(context.Background(), 42, "<b>hi</b>"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"42|HTML|<b>hi</b>"}, sent)
}

func TestFromConfigDisabled(t *testing.T) {
	n, err := FromConfig(config.Default(), rank.NewScorer())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.Notify(context.Background(), nil))
}
