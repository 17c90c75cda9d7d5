package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/quizboard/app/eventbus"
	"github.com/Black-And-White-Club/quizboard/app/modules/score"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/Black-And-White-Club/quizboard/config"
	"github.com/Black-And-White-Club/quizboard/db/bundb"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App wires configuration, storage, messaging and the score module together.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DB            *bundb.DBService
	EventBus      *eventbus.EventBus
	Router        *message.Router
	ScoreModule   *score.Module
}

// NewApp connects to Postgres, applies migrations and builds every component. NATS
// ingestion is skipped when no NATS URL is configured.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.New(observability.Config{
		LogLevel:       cfg.Observability.LogLevel,
		MetricsEnabled: cfg.Observability.MetricsAddress != "" || cfg.HTTP.Addr != "",
	})
	if env := cfg.Observability.Environment; env != "" {
		obs.Logger = obs.Logger.With(slog.String("environment", env))
	}
	logger := obs.Logger

	app := &App{Config: cfg, Observability: obs}

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}
	app.DB = dbService

	if err := dbService.Migrate(ctx, logger); err != nil {
		app.Close()
		return nil, err
	}

	if cfg.NATS.URL != "" {
		bus, err := eventbus.NewEventBus(ctx, eventbus.Config{
			URL:              cfg.NATS.URL,
			QueueGroupPrefix: cfg.NATS.QueueGroupPrefix,
			SubscribersCount: cfg.NATS.SubscribersCount,
		}, logger)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create event bus: %w", err)
		}
		app.EventBus = bus

		router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to create Watermill router: %w", err)
		}
		// No Retry middleware: a retried increment would be counted twice.
		router.AddMiddleware(
			middleware.CorrelationID,
			middleware.Recoverer,
		)
		app.Router = router
	} else {
		logger.WarnContext(ctx, "NATS_URL not set, event ingestion disabled")
	}

	var subscriber message.Subscriber
	if app.EventBus != nil {
		subscriber = app.EventBus
	}
	module, err := score.NewScoreModule(ctx, cfg, obs, dbService.ScoreDB, dbService.GetDB(), subscriber, app.Router)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create score module: %w", err)
	}
	app.ScoreModule = module

	return app, nil
}

// Run blocks until ctx ends, the router stops, or the legacy migration fails. A failed
// migration is returned so the process can exit non-zero.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Add(1)
	go app.ScoreModule.Run(ctx, &wg)

	routerErr := make(chan error, 1)
	if app.Router != nil {
		go func() { routerErr <- app.Router.Run(ctx) }()
	}

	if addr := app.Config.Observability.MetricsAddress; addr != "" && app.Observability.Registry != nil {
		go app.serveMetrics(ctx, addr)
	}

	migrationDone := app.ScoreModule.MigrationDone()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Application context canceled")
			return nil
		case err := <-routerErr:
			if err != nil {
				return fmt.Errorf("watermill router stopped: %w", err)
			}
			return nil
		case <-migrationDone:
			migrationDone = nil
			err := app.ScoreModule.MigrationTask.Err()
			if err == nil {
				logger.InfoContext(ctx, "Legacy score migration completed")
				continue
			}
			if errors.Is(err, context.Canceled) {
				continue
			}
			return fmt.Errorf("legacy score migration: %w", err)
		}
	}
}

func (app *App) serveMetrics(ctx context.Context, addr string) {
	logger := app.Observability.Logger
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", slog.Any("error", err))
	}
}

// Close releases every component in reverse order of construction.
func (app *App) Close() error {
	var errs []error
	if app.ScoreModule != nil {
		errs = append(errs, app.ScoreModule.Close())
	}
	if app.Router != nil {
		errs = append(errs, app.Router.Close())
	}
	if app.EventBus != nil {
		errs = append(errs, app.EventBus.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}
	return errors.Join(errs...)
}
