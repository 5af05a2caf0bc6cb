// Command engine watches job boards, keeps the classified postings on disk
// and serves them ranked over a local HTTP API.
//
//	engine [flags] [serve|scrape|list|fix|init]
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/events"
	"jobwatch-engine/internal/httpapi"
	"jobwatch-engine/internal/notify"
	"jobwatch-engine/internal/poll"
	"jobwatch-engine/internal/present"
	"jobwatch-engine/internal/rank"
	"jobwatch-engine/internal/scrape"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
	"jobwatch-engine/internal/store"
)

type options struct {
	configPath string
	dataDir    string
	verbose    bool
	all        bool
	limit      int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("engine", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "config file (default: <data-dir>/config.yml, created on first run)")
	flagSet.StringVar(&opts.dataDir, "data-dir", "", "directory for config and store (default: $JOBWATCH_DATA_DIR or .)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log every page fetched")
	flagSet.BoolVar(&opts.all, "all", false, "list: include postings missing from their source")
	flagSet.IntVarP(&opts.limit, "limit", "n", 0, "list: show at most n postings")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: engine [flags] [serve|scrape|list|fix|init]\n\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cmd := "serve"
	switch args := flagSet.Args(); len(args) {
	case 0:
	case 1:
		cmd = args[0]
	default:
		flagSet.Usage()
		return fmt.Errorf("unexpected arguments %q", args[1:])
	}

	config.LoadDotEnv()
	util.SetVerbose(opts.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "serve":
		return withEngine(ctx, opts, serve)
	case "scrape":
		return withEngine(ctx, opts, scrapeOnce)
	case "list":
		return withEngine(ctx, opts, list)
	case "fix":
		return withEngine(ctx, opts, fix)
	case "init":
		return initStore(ctx, opts)
	}
	flagSet.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

type app struct {
	opts    options
	cfgPath string
	cfgVal  *atomic.Value // stores config.Config
	loadCfg func() (config.Config, error)
	hub     *events.Hub
	engine  *poll.Engine
}

func loadConfig(opts options) (string, func() (config.Config, error), error) {
	// Engine data dir: flag, then env, then local folder.
	dataDir := opts.dataDir
	if dataDir == "" {
		dataDir = os.Getenv("JOBWATCH_DATA_DIR")
	}
	if dataDir == "" {
		dataDir = "."
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return "", nil, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}

	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return cfg, err
		}
		if opts.dataDir != "" {
			cfg.App.DataDir = opts.dataDir
		}
		cfg, v := config.NormalizeAndValidate(cfg)
		for _, w := range v.Warnings {
			log.Printf("[config] warning: %s", w)
		}
		if !v.OK() {
			return cfg, config.Validate(cfg)
		}
		return cfg, nil
	}
	return cfgPath, loadCfg, nil
}

// withEngine opens and locks the store, loads it and hands a ready engine
// to f.
func withEngine(ctx context.Context, opts options, f func(context.Context, *app) error) error {
	cfgPath, loadCfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	persister, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer persister.Close()

	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := persister.Lock(lockCtx); err != nil {
		return fmt.Errorf("%w: is another engine running on %s?", err, cfg.StorePath())
	}

	scorer := rank.NewScorer()
	notifier, err := notify.FromConfig(cfg, scorer)
	if err != nil {
		log.Printf("[notify] disabled: %v", err)
		notifier = notify.Nop{}
	}
	limiter := scrape.NewLimiter(cfg)
	hub := events.NewHub()

	engine := poll.New(poll.Deps{
		Store:  persister,
		Config: func() config.Config { return cfgVal.Load().(config.Config) },
		Fetchers: func(c config.Config) ([]types.Fetcher, error) {
			return scrape.BuildFetchers(c, limiter)
		},
		Hub:      hub,
		Notifier: notifier,
		Scorer:   scorer,
	})
	if err := engine.Load(ctx); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no store at %s; run `engine init` first", cfg.StorePath())
		}
		return fmt.Errorf("load store: %w", err)
	}

	return f(ctx, &app{
		opts:    opts,
		cfgPath: cfgPath,
		cfgVal:  &cfgVal,
		loadCfg: loadCfg,
		hub:     hub,
		engine:  engine,
	})
}

func serve(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	cfg := a.cfgVal.Load().(config.Config)
	mux := httpapi.NewMux(httpapi.Deps{
		Engine:      a.engine,
		Hub:         a.hub,
		CfgVal:      a.cfgVal,
		UserCfgPath: a.cfgPath,
		LoadCfg:     a.loadCfg,
		RunCtx:      ctx,
		OnFatal:     cancel,
	})

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if token := os.Getenv("JOBWATCH_SHUTDOWN_TOKEN"); token != "" {
		mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	}

	// Bind to a predictable local port.
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("engine listening on http://%s (store=%s driver=%s)", addr, cfg.StorePath(), cfg.Storage.Driver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel(nil)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.engine.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cause := context.Cause(ctx); errors.Is(cause, poll.ErrPersist) {
		return cause
	}
	return err
}

func scrapeOnce(ctx context.Context, a *app) error {
	sum, err := a.engine.PollOnce(ctx, "")
	if err != nil {
		return err
	}
	fmt.Printf("added=%d recovered=%d missing=%d evicted=%d jobs=%d\n",
		sum.Added, sum.Recovered, sum.Missing, sum.Evicted, sum.Jobs)
	if len(sum.Failed) > 0 {
		fmt.Printf("failed sources: %v\n", sum.Failed)
	}
	return nil
}

func list(_ context.Context, a *app) error {
	entries := rank.List(a.engine.Snapshot(), a.engine.Now(), a.engine.Scorer(), rank.ListOptions{
		IncludeMissing: a.opts.all,
		Limit:          a.opts.limit,
	})
	return present.NewWriter(os.Stdout).List(entries)
}

func fix(ctx context.Context, a *app) error {
	changed, err := a.engine.Fix(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("reclassified %d postings\n", changed)
	return nil
}

func initStore(ctx context.Context, opts options) error {
	_, loadCfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg, err := loadCfg()
	if err != nil {
		return err
	}
	persister, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer persister.Close()
	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := persister.Lock(lockCtx); err != nil {
		return fmt.Errorf("%w: is another engine running on %s?", err, cfg.StorePath())
	}
	if err := persister.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("store ready at %s\n", cfg.StorePath())
	return nil
}
