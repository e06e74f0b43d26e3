package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"offersearch-engine/internal/config"
	"offersearch-engine/internal/dispatch"
	"offersearch-engine/internal/domain"
	"offersearch-engine/internal/events"
	"offersearch-engine/internal/gateway"
	"offersearch-engine/internal/logger"
	"offersearch-engine/internal/metrics"
	"offersearch-engine/internal/offers"
	"offersearch-engine/internal/scrape"
	"offersearch-engine/internal/scrape/indeed"
	"offersearch-engine/internal/scrape/linkedin"
	"offersearch-engine/internal/secrets"
	"offersearch-engine/internal/store"
)

const (
	defaultConfigPath = "config/config.yml"
	selectorsFileName = "selectors.yml"
	stateFileName     = "offersearch.db"
)

// app is everything one command invocation needs, built once.
type app struct {
	dataDir string
	cfgPath string
	cfg     config.Config

	log     logger.Logger
	kv      store.KV
	cache   *store.Cache
	remote  *gateway.Client
	metrics *metrics.Metrics
	hub     *events.Hub
	svc     *offers.Service
	lock    *flock.Flock
}

type appOptions struct {
	// exclusive takes the state lock; commands that mutate the cache set it.
	exclusive bool
}

// loadConfig resolves the config file, applies the selectors side file and
// normalizes the result.
func loadConfig(dataDir string) (string, config.Config, config.Validation, error) {
	cfgPath := rootFlags.configPath
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir, defaultConfigPath)
		if err != nil {
			return "", config.Config{}, config.Validation{}, fmt.Errorf("config bootstrap: %w", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return "", config.Config{}, config.Validation{}, fmt.Errorf("config load (%s): %w", cfgPath, err)
	}
	if err := config.OverlaySelectors(&cfg, filepath.Join(dataDir, selectorsFileName)); err != nil {
		return "", config.Config{}, config.Validation{}, fmt.Errorf("selectors overlay: %w", err)
	}
	cfg, val := config.NormalizeAndValidate(cfg)
	if !val.OK() {
		return cfgPath, cfg, val, fmt.Errorf("invalid config %s: %s", cfgPath, strings.Join(val.Errors, "; "))
	}
	return cfgPath, cfg, val, nil
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	dataDir := resolveDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	cfgPath, cfg, val, err := loadConfig(dataDir)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, err
	}
	for _, w := range val.Warnings {
		log.Warn("config warning", logger.String("detail", w))
	}

	a := &app{dataDir: dataDir, cfgPath: cfgPath, cfg: cfg, log: log}

	if opts.exclusive {
		lk, err := acquireStateLock(dataDir)
		if err != nil {
			return nil, err
		}
		a.lock = lk
	}

	kv, err := store.OpenKV(store.Options{
		Backend:     store.Backend(cfg.State.Backend),
		SQLitePath:  filepath.Join(dataDir, stateFileName),
		RedisAddr:   cfg.State.RedisAddr,
		RedisPrefix: cfg.State.RedisPrefix,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	a.kv = kv

	a.cache = store.NewCache(kv, log)
	if err := a.cache.Load(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	a.remote = newRemote(cfg, log)
	a.metrics = metrics.New()
	a.hub = events.NewHub()

	d := offers.Deps{
		Dispatcher: dispatch.NewDispatcher(buildRegistry(cfg, log), log, a.metrics),
		Cache:      a.cache,
		Events:     a.hub,
		Metrics:    a.metrics,
		Logger:     log,
	}
	if a.remote != nil {
		d.Remote = a.remote
	}
	a.svc = offers.NewService(d)

	log.Info("engine ready",
		logger.String("data_dir", dataDir),
		logger.String("config", cfgPath),
		logger.String("state_backend", cfg.State.Backend),
		logger.Int("cached_offers", a.cache.Len()),
		logger.Strings("sources", a.svc.SupportedSources()),
	)
	return a, nil
}

// newRemote returns nil when no remote store is configured; the service then
// answers every query from the local cache.
func newRemote(cfg config.Config, log logger.Logger) *gateway.Client {
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		log.Warn("no remote store configured, queries will be served locally")
		return nil
	}
	token, err := secrets.GetAPIToken(secrets.APIKeyringAccount(cfg))
	if err != nil && !errors.Is(err, secrets.ErrTokenNotFound) {
		log.Warn("api token lookup failed", logger.Err(err))
	}
	c, err := gateway.New(gateway.Options{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: time.Duration(cfg.Remote.TimeoutSeconds) * time.Second,
		Token:   token,
		Logger:  log,
	})
	if err != nil {
		log.Warn("remote store disabled", logger.Err(err))
		return nil
	}
	return c
}

// buildRegistry registers the enabled sources in a fixed order; the first
// engine to claim a URL wins.
func buildRegistry(cfg config.Config, log logger.Logger) *dispatch.Registry {
	ctors := []struct {
		source domain.Source
		build  func(...scrape.Option) *scrape.Pipeline
	}{
		{domain.SourceLinkedIn, linkedin.New},
		{domain.SourceIndeed, indeed.New},
	}

	reg := dispatch.NewRegistry()
	for _, c := range ctors {
		sc := cfg.Source(string(c.source))
		if !sc.IsEnabled() {
			log.Info("source disabled", logger.String("source", string(c.source)))
			continue
		}
		reg.Register(c.build(scrape.WithSelectors(sc.Selectors), scrape.WithLogger(log)))
	}
	return reg
}

func (a *app) Close() error {
	var errs []error
	if a.kv != nil {
		errs = append(errs, a.kv.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Unlock())
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return errors.Join(errs...)
}
