// Package notify pushes newly found postings to a chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/rank"
	"jobwatch-engine/internal/reconcile"
)

// Notifier is told about every run's lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, events []reconcile.Event) error
}

// Nop drops everything.
type Nop struct{}

func (Nop) Notify(context.Context, []reconcile.Event) error { return nil }

// Sender delivers one HTML message.
type Sender interface {
	SendHTML(ctx context.Context, chatID int64, htmlText string) error
}

// botSender sends through the Telegram bot API.
type botSender struct {
	api *tgbotapi.BotAPI
}

func (s botSender) SendHTML(ctx context.Context, chatID int64, htmlText string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, htmlText)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := s.api.Send(msg)
	return err
}

// maxPerRun caps the messages one run sends; the rest are summarized.
const maxPerRun = 20

// Telegram sends one message per new posting.
type Telegram struct {
	Sender        Sender
	ChatID        int64
	OnlyDesirable bool
	Scorer        rank.Scorer
}

// NewTelegramBot connects to the bot API at endpoint (tgbotapi.APIEndpoint
// when empty).
func NewTelegramBot(token, endpoint string) (Sender, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return botSender{api: api}, nil
}

// FromConfig returns the configured notifier, or Nop.
func FromConfig(cfg config.Config, s rank.Scorer) (Notifier, error) {
	t := cfg.Notify.Telegram
	if !t.Enabled {
		return Nop{}, nil
	}
	sender, err := NewTelegramBot(t.Token, "")
	if err != nil {
		return nil, err
	}
	return &Telegram{Sender: sender, ChatID: t.ChatID, OnlyDesirable: t.OnlyDesirable, Scorer: s}, nil
}

func (t *Telegram) Notify(ctx context.Context, events []reconcile.Event) error {
	var jobs []domain.Job
	for _, e := range events {
		if e.Kind != reconcile.New {
			continue
		}
		if t.OnlyDesirable && !rank.Desirable(t.Scorer.Score(e.Job)) {
			continue
		}
		jobs = append(jobs, e.Job)
	}

	sent := 0
	for i, j := range jobs {
		if i == maxPerRun {
			rest := len(jobs) - maxPerRun
			if err := t.Sender.SendHTML(ctx, t.ChatID, fmt.Sprintf("…and %d more new postings.", rest)); err != nil {
				return fmt.Errorf("telegram send: %w", err)
			}
			break
		}
		if err := t.Sender.SendHTML(ctx, t.ChatID, FormatPosting(j, rank.Desirable(t.Scorer.Score(j)))); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
		sent++
	}
	if len(jobs) > 0 {
		log.Printf("[notify] telegram sent=%d new=%d", sent, len(jobs))
	}
	return nil
}

// FormatPosting renders a new posting as a Telegram HTML message.
func FormatPosting(j domain.Job, desirable bool) string {
	var b strings.Builder
	if desirable {
		b.WriteString("⭐ ")
	}
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(j.Title))
	b.WriteString("</b>\n")
	b.WriteString(html.EscapeString(j.Company))
	fmt.Fprintf(&b, " · %s %s", j.Level, j.Discipline)
	if sp, ok := j.Specialty.Get(); ok {
		fmt.Fprintf(&b, " · %s", sp)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "<a href=\"%s\">Open posting</a>", html.EscapeString(j.URL))
	return b.String()
}
