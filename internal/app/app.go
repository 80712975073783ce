package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"AlphaScreener/internal/config"
	"AlphaScreener/internal/domain"
	"AlphaScreener/internal/infrastructure/cache"
	"AlphaScreener/internal/infrastructure/docs"
	"AlphaScreener/internal/infrastructure/funding"
	"AlphaScreener/internal/infrastructure/githubsource"
	"AlphaScreener/internal/infrastructure/llm"
	"AlphaScreener/internal/infrastructure/market"
	"AlphaScreener/internal/infrastructure/scheduler"
	"AlphaScreener/internal/infrastructure/storage"
	"AlphaScreener/internal/infrastructure/telegram"
	"AlphaScreener/internal/logging"
	"AlphaScreener/internal/metrics"
	"AlphaScreener/internal/ports"
	"AlphaScreener/internal/registry"
	"AlphaScreener/internal/transport/httpapi"
	"AlphaScreener/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	metrics  http.Handler
	closers  []func() error
}

// New builds every adapter the configuration asks for. Call Close when done.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}
	baseLogger.Debug("configuration loaded", "config", cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	ai, err := newCompleter(cfg.AI)
	if err != nil {
		return nil, err
	}

	fundingProviders, err := fundingProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}
	marketProviders, err := marketProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}

	codeSource, err := githubsource.New(cfg.GitHub.Token, cfg.GitHub.BaseURL)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
	}

	analysisCache, err := a.newCache(ctx, cfg.Cache, db)
	if err != nil {
		a.Close()
		return nil, err
	}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Documentation: usecase.NewDocumentationService(docs.NewScraper(nil), ai, baseLogger),
		Funding:       usecase.NewFundingService(baseLogger, fundingProviders...),
		Market:        usecase.NewMarketService(ai, baseLogger, marketProviders...),
		Team:          usecase.NewTeamService(ai, baseLogger),
		Code:          usecase.NewCodeService(codeSource, ai, baseLogger),
		Rating:        usecase.NewRatingService(ai),
		Cache:         analysisCache,
		Metrics:       recorder,
		Logger:        baseLogger,
		CacheTTL:      cfg.Cache.TTL,
		Coalesce:      cfg.Analysis.Coalesce,
	})

	var reports ports.ReportRepository
	if db != nil {
		reports = storage.NewPostgresRepository(db)
	}

	var notifier ports.Notifier
	tg := telegram.NewNotifier(cfg.Notifications.Telegram.APIURL, cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	if tg.Configured() {
		notifier = tg
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Analyzer:   orchestrator,
		Repository: reports,
		Notifier:   notifier,
		Cache:      analysisCache,
		Watchlist:  cfg.Watchlist,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// Analyze runs a single analysis.
func (a *Application) Analyze(ctx context.Context, id domain.ProjectIdentifier, opts usecase.RunOptions) (domain.AnalysisResult, error) {
	return a.pipeline.Run(ctx, id, opts)
}

// SetAddr overrides the HTTP listen address.
func (a *Application) SetAddr(addr string) {
	a.cfg.HTTP.Addr = addr
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	api := httpapi.NewServer(a.pipeline, a.metrics, a.logger.With("component", "http"), a.cfg.HTTP.AllowedOrigins...)
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Watch refreshes the watchlist on the configured cron schedule until ctx
// is cancelled. With immediate set, one refresh runs before the first tick.
func (a *Application) Watch(ctx context.Context, immediate bool) error {
	if len(a.cfg.Watchlist) == 0 {
		return errors.New("watchlist is empty")
	}

	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	if err != nil {
		return err
	}
	sched := usecase.NewScheduler(driver, a.pipeline)

	if immediate {
		if err := a.pipeline.RefreshWatchlist(ctx, time.Now()); err != nil {
			a.logger.Warn("initial refresh had failures", "error", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watchlist scheduled", "cron", a.cfg.Scheduler.CronExpression,
		"next", driver.Next(time.Now()), "projects", len(a.cfg.Watchlist))

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Close releases connections opened by New.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) newCache(ctx context.Context, cfg config.CacheConfig, db *sql.DB) (ports.Cache, error) {
	switch cfg.Backend {
	case config.CacheNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("alphascreener"))
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		a.closers = append(a.closers, func() error { nc.Close(); return nil })
		js, err := jetstream.New(nc)
		if err != nil {
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
		// Keep entries on the server for a while past their logical ttl.
		return cache.NewNATS(ctx, js, cfg.Bucket, 2*cfg.TTL)
	case config.CachePostgres:
		if db == nil {
			return nil, errors.New("postgres cache requires a database")
		}
		return cache.NewPostgres(db, cfg.Table), nil
	default:
		return cache.NewMemory(), nil
	}
}

func newCompleter(cfg config.AIConfig) (ports.Completer, error) {
	switch cfg.Provider {
	case config.AIAnthropic:
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			BaseURL:   cfg.Anthropic.BaseURL,
			Model:     cfg.Anthropic.Model,
			APIKey:    cfg.Anthropic.APIKey,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}), nil
	case config.AIOpenAI:
		return llm.NewChatGPTClient(llm.ChatGPTConfig{
			Endpoint:     cfg.ChatGPT.Endpoint,
			Model:        cfg.ChatGPT.Model,
			APIKey:       cfg.ChatGPT.APIKey,
			SystemPrompt: cfg.ChatGPT.SystemPrompt,
		}), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

func fundingProviders(cfg config.ProviderConfig) ([]ports.FundingProvider, error) {
	r := registry.New[ports.FundingProvider]()
	r.Register(funding.NewMessari(cfg.Messari.BaseURL, cfg.Messari.APIKey))
	r.Register(funding.NewCryptoRank(cfg.CryptoRank.BaseURL, cfg.CryptoRank.APIKey))
	providers, err := r.ResolveAll(cfg.Funding)
	if err != nil {
		return nil, fmt.Errorf("funding providers: %w", err)
	}
	return providers, nil
}

func marketProviders(cfg config.ProviderConfig) ([]ports.MarketProvider, error) {
	r := registry.New[ports.MarketProvider]()
	r.Register(market.NewCoinGecko(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey))
	r.Register(market.NewCoinMarketCap(cfg.CoinMarketCap.BaseURL, cfg.CoinMarketCap.APIKey))
	providers, err := r.ResolveAll(cfg.Market)
	if err != nil {
		return nil, fmt.Errorf("market providers: %w", err)
	}
	return providers, nil
}
