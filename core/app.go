package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/api"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/claims"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/dashboard"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/events"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/journal"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/logger"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/monitoring"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/rpc"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/ssh"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/tables"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/wallet"
)

type App struct {
	home     string
	logLevel string
	cfg      *config.Config
	owner    string

	client    *rpc.FailoverClient
	source    tables.PageSource
	submitter wallet.Submitter

	store   *store.Store
	claimer *claims.Claimer
	journal *journal.Journal
	events  *events.Publisher

	api     *api.API
	ssh     *ssh.Server
	monitor *monitoring.Monitor
	pprof   *monitoring.PProf

	interactive    *bool
	logCloser      io.Closer
	shutdownPeriod time.Duration
}

type Option func(*App)

// WithTestMode replaces the chain with the given table source and submitter.
func WithTestMode(source tables.PageSource, submitter wallet.Submitter) Option {
	return func(app *App) {
		app.source = source
		app.submitter = submitter
	}
}

func WithLogLevel(level string) Option {
	return func(app *App) {
		app.logLevel = level
	}
}

// WithInteractive forces the terminal dashboard on or off instead of detecting a terminal.
func WithInteractive(on bool) Option {
	return func(app *App) {
		app.interactive = &on
	}
}

var setupLogger = logger.Setup

// NewApp loads the configuration and secrets in home and wires every component.
// Missing secrets are reported as config.ErrMissingSecret. Whatever was opened
// before a failure is closed again.
func NewApp(home string, opts ...Option) (_ *App, err error) {
	cfg, err := config.Init(home)
	if err != nil {
		return nil, err
	}

	app := &App{
		home:           home,
		logLevel:       "info",
		cfg:            cfg,
		shutdownPeriod: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(app)
	}

	out := os.Stdout
	if app.isInteractive() {
		out = nil
	}
	app.logCloser, err = setupLogger(app.logLevel, out, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			app.release()
		}
	}()

	secrets, err := config.LoadSecrets(home, ".")
	if err != nil {
		return nil, err
	}
	app.owner = secrets.Owner

	claimCfg, err := claimConfig(cfg, secrets.Owner)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	if app.source == nil {
		client, err := config.InitClient(ctx, cfg, secrets.PrivateKey)
		if err != nil {
			return nil, err
		}
		app.client = client
		app.source = tables.NewEOSSource(client)
		app.submitter = wallet.NewEOSSubmitter(client, wallet.SubmitterConfig{
			Contract:     cfg.ChainCfg.Contract,
			Owner:        secrets.Owner,
			BlocksBehind: cfg.ChainCfg.BlocksBehind,
			Expiration:   config.Seconds(cfg.ChainCfg.ExpireSeconds),
		})
	}

	reader := tables.NewReader(app.source, cfg.ChainCfg.Contract,
		tables.WithLimit(cfg.TablesCfg.PageLimit),
		tables.WithRetry(cfg.TablesCfg.ReadAttempts, config.Seconds(cfg.TablesCfg.ReadRetryDelay)),
	)

	app.store = store.NewStore(secrets.Owner)

	if cfg.JournalDirectory == "" {
		app.journal, err = journal.OpenInMemory()
	} else {
		app.journal, err = journal.Open(cfg.JournalDirectory)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open claim journal: %w", err)
	}

	observers := []claims.Observer{app.journal}
	if cfg.EventsCfg.NATSURL != "" {
		pub, err := events.Connect(cfg.EventsCfg.NATSURL, cfg.EventsCfg.Subject, secrets.Owner)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.EventsCfg.NATSURL).Msg("Claim events disabled, cannot reach NATS")
		} else {
			app.events = pub
			observers = append(observers, pub)
		}
	}

	app.claimer = claims.NewClaimer(claimCfg, app.store, reader, app.submitter, claims.WithObservers(observers...))
	app.api = api.NewAPI(cfg.APICfg.Port)

	var chain monitoring.ChainInfo
	var balance monitoring.BalanceFunc
	if app.client != nil {
		chain = app.client
		balance = func(ctx context.Context) (float64, error) {
			assets, err := wallet.Balance(ctx, app.client, secrets.Owner, cfg.ChainCfg.TokenSymbol, cfg.ChainCfg.TokenContract)
			if err != nil || len(assets) == 0 {
				return 0, err
			}
			return wallet.Units(assets[0]), nil
		}
	}
	app.monitor = monitoring.NewMonitor(chain, balance, app.store, config.Seconds(cfg.MonitorInterval))

	return app, nil
}

// release closes the journal and the log file of an app that failed to start.
func (a *App) release() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			log.Warn().Err(err).Msg("Cannot close claim journal")
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func claimConfig(cfg *config.Config, owner string) (claims.Config, error) {
	mode, err := claims.ParseMode(cfg.ClaimCfg.Mode)
	if err != nil {
		return claims.Config{}, err
	}

	c := claims.DefaultConfig(owner)
	c.Mode = mode
	c.TickInterval = config.Seconds(cfg.ClaimCfg.TickInterval)
	c.Pacing = config.Seconds(cfg.ClaimCfg.Pacing)
	c.Settle = config.Seconds(cfg.ClaimCfg.Settle)
	c.Backoff = config.Seconds(cfg.ClaimCfg.Backoff)
	c.PassPeriod = config.Seconds(cfg.ClaimCfg.PassPeriod)
	c.SubmitTimeout = config.Seconds(cfg.ChainCfg.ExpireSeconds)
	c.ClaimAll = cfg.ClaimCfg.ClaimAll
	return c, nil
}

func (a *App) isInteractive() bool {
	if a.interactive != nil {
		return *a.interactive
	}
	return a.cfg.Dashboard && logger.IsTerminal(os.Stdout)
}

// Start runs the claimer until SIGINT or SIGTERM.
func (a *App) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}

// Run starts every service and blocks until ctx is done, the dashboard is closed or
// the scheduler fails.
func (a *App) Run(ctx context.Context) error {
	log.Debug().Object("config", a.cfg).Msg("rancher config")
	log.Info().Str("owner", a.owner).Str("version", config.VersionString()).Msg("Rancher started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	claimerDone := make(chan error, 1)
	go func() {
		claimerDone <- a.claimer.Start(ctx)
	}()

	if a.cfg.APICfg.Port > 0 {
		go a.api.Serve(api.Sources{
			Store:   a.store,
			Retries: a.claimer.Retries(),
			Chain:   a.chain(),
			History: a.journal,
			LogFile: a.cfg.LogFile,
		})
	}

	if a.cfg.SSHConfig.Enable {
		srv, err := ssh.NewServer(a.cfg.SSHConfig, a.store, a.cfg.LogFile)
		if err != nil {
			log.Error().Err(err).Msg("SSH dashboard disabled")
		} else {
			a.ssh = srv
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					log.Error().Err(err).Msg("SSH server failed")
				}
			}()
		}
	}

	if a.cfg.PProfAddress != "" {
		a.pprof = monitoring.NewPProf(a.cfg.PProfAddress)
		a.pprof.Start()
	}

	go a.monitor.Start(ctx)

	if a.isInteractive() {
		go func() {
			if err := dashboard.Run(ctx, a.store); err != nil {
				log.Error().Err(err).Msg("Dashboard failed")
			}
			cancel()
		}()
	} else {
		go dashboard.LogTransitions(ctx, a.store)
	}

	var err error
	select {
	case err = <-claimerDone:
	case <-ctx.Done():
		err = <-claimerDone
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		err = nil
	}
	cancel()

	if !a.isInteractive() {
		fmt.Println("Shutting Rancher down safely...")
	}
	a.shutdown()

	return err
}

func (a *App) chain() api.Chain {
	if a.client == nil {
		return nil
	}
	return a.client
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownPeriod)
	defer cancel()

	if a.cfg.APICfg.Port > 0 {
		if err := a.api.Close(); err != nil {
			log.Debug().Err(err).Msg("API close")
		}
	}
	if a.ssh != nil {
		if err := a.ssh.Shutdown(ctx); err != nil {
			log.Debug().Err(err).Msg("SSH shutdown")
		}
	}
	if a.pprof != nil {
		if err := a.pprof.Stop(ctx); err != nil {
			log.Debug().Err(err).Msg("PProf shutdown")
		}
	}
	a.monitor.Stop()

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			log.Warn().Err(err).Msg("Cannot drain claim events")
		}
	}
	if err := a.journal.Close(); err != nil {
		log.Warn().Err(err).Msg("Cannot close claim journal")
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// Store exposes the asset state, mostly for tests.
func (a *App) Store() *store.Store {
	return a.store
}

// Journal exposes the claim history.
func (a *App) Journal() *journal.Journal {
	return a.journal
}
