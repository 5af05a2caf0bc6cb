package httpapi

import (
	"context"
	"sync/atomic"
	"time"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/poll"
	"jobwatch-engine/internal/rank"
	"jobwatch-engine/internal/scrape/types"
)

// Engine is the part of poll.Engine the API serves.
type Engine interface {
	Snapshot() domain.Store
	Status() types.ScrapeStatus
	PollOnce(ctx context.Context, reqID string) (poll.Summary, error)
	Scorer() rank.Scorer
	Now() time.Time
}

type Deps struct {
	Engine Engine
	Hub    *events.Hub

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// SetCookie stores a source's session cookie. Nil means the OS keyring.
	SetCookie func(account, cookie string) error

	// RunCtx bounds scrapes started over HTTP. It outlives the request.
	RunCtx context.Context
	// OnFatal receives errors that must stop the process.
	OnFatal func(error)
}
