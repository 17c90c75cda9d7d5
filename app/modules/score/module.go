package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/catalog"
	scorehandlers "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/handlers"
	scorehttp "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/httpapi"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/legacy"
	scorequeue "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/queue"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	scorerouter "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/router"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/Black-And-White-Club/quizboard/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
)

// Module represents the score module.
type Module struct {
	ScoreService  scoreservice.Service
	ScoreRouter   *scorerouter.ScoreRouter
	HTTPServer    *scorehttp.Server
	MigrationTask *scoreservice.MigrationTask

	config        *config.Config
	queue         *scorequeue.Service
	observability *observability.Observability
	cancelFunc    context.CancelFunc
}

// NewScoreModule wires the score service to its ingestion router, read API and legacy
// migration. A nil subscriber skips event ingestion.
func NewScoreModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	repo scoredb.Repository,
	db *bun.DB,
	subscriber message.Subscriber,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "score.NewScoreModule called")

	decks, err := loadCatalog(cfg.Scores.DeckCatalogPath, logger)
	if err != nil {
		return nil, err
	}

	service := scoreservice.NewScoreService(repo, decks, logger, obs.Metrics, obs.Tracer, db, cfg.Scores.Transactional)

	module := &Module{
		ScoreService:  service,
		config:        cfg,
		observability: obs,
	}

	if subscriber != nil && router != nil {
		module.ScoreRouter = scorerouter.NewScoreRouter(logger, router, subscriber, obs.Registry)
		handlers := scorehandlers.NewScoreHandlers(service, logger, obs.Tracer)
		if err := module.ScoreRouter.Configure(ctx, handlers); err != nil {
			return nil, fmt.Errorf("failed to configure score router: %w", err)
		}
	}

	if cfg.HTTP.Addr != "" {
		httpRouter := scorehttp.NewRouter(scorehttp.NewHandlers(service, logger), scorehttp.Config{
			Addr:           cfg.HTTP.Addr,
			RateLimitRPS:   cfg.HTTP.RateLimitRPS,
			RateLimitBurst: cfg.HTTP.RateLimitBurst,
		}, obs.Registry)
		module.HTTPServer = scorehttp.NewServer(httpRouter, cfg.HTTP.Addr, logger)
	}

	lm := cfg.Scores.LegacyMigration
	if lm.Mode != config.MigrationModeDisabled {
		migrator := scoreservice.NewMigrator(legacy.NewFileStore(lm.DataDir), repo, service, logger, obs.Metrics, lm.ProgressEvery)
		module.MigrationTask = scoreservice.NewMigrationTask(migrator, lm.StartupDelay, nil, logger)

		if lm.Mode == config.MigrationModeRiver {
			queue, err := scorequeue.NewService(ctx, cfg.Postgres.DSN, module.MigrationTask, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create score queue: %w", err)
			}
			module.queue = queue
		}
	}

	return module, nil
}

func loadCatalog(path string, logger *slog.Logger) (*catalog.Catalog, error) {
	if path == "" {
		logger.Warn("No deck catalog configured, only canonical ids and custom decks resolve")
		return catalog.New(nil), nil
	}
	decks, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck catalog: %w", err)
	}
	logger.Info("Deck catalog loaded", slog.String("path", path), slog.Int("decks", decks.Len()))
	return decks, nil
}

// Run starts the legacy migration and the read API and blocks until ctx ends.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting score module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.startMigration(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to start legacy migration", slog.Any("error", err))
	}

	if m.HTTPServer != nil {
		go func() {
			if err := m.HTTPServer.Run(ctx); err != nil {
				logger.ErrorContext(ctx, "HTTP server failed", slog.Any("error", err))
			}
		}()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Score module goroutine stopped")
}

func (m *Module) startMigration(ctx context.Context) error {
	if m.MigrationTask == nil {
		return nil
	}
	if m.queue == nil {
		m.MigrationTask.Start(ctx)
		return nil
	}

	if err := m.queue.Start(ctx); err != nil {
		return err
	}
	_, err := m.queue.ScheduleLegacyReplay(ctx, scorequeue.StartupRequester, m.config.Scores.LegacyMigration.StartupDelay)
	return err
}

// MigrationDone is closed when the legacy migration finishes in this process. It is nil
// when the migration is disabled.
func (m *Module) MigrationDone() <-chan struct{} {
	if m.MigrationTask == nil {
		return nil
	}
	return m.MigrationTask.Done()
}

// Close stops the score module and cleans up resources.
func (m *Module) Close() error {
	logger := m.observability.Logger
	logger.Info("Stopping score module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var errs []error
	if m.queue != nil {
		if err := m.queue.Stop(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}

	logger.Info("Score module stopped")
	return errors.Join(errs...)
}
