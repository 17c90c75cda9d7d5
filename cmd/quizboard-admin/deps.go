package main

import (
	"fmt"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/catalog"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/Black-And-White-Club/quizboard/config"
	"github.com/Black-And-White-Club/quizboard/db/bundb"
	"github.com/urfave/cli/v2"
)

// deps are the components every data command needs.
type deps struct {
	cfg     *config.Config
	obs     *observability.Observability
	db      *bundb.DBService
	service *scoreservice.ScoreService
}

func loadDeps(c *cli.Context) (*deps, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	obs := observability.New(observability.Config{LogLevel: cfg.Observability.LogLevel})

	dbService, err := bundb.NewBunDBService(c.Context, cfg.Postgres)
	if err != nil {
		return nil, err
	}

	decks := catalog.New(nil)
	if path := cfg.Scores.DeckCatalogPath; path != "" {
		if decks, err = catalog.Load(path); err != nil {
			_ = dbService.Close()
			return nil, fmt.Errorf("failed to load deck catalog: %w", err)
		}
	}

	service := scoreservice.NewScoreService(dbService.ScoreDB, decks, obs.Logger, obs.Metrics, obs.Tracer,
		dbService.GetDB(), cfg.Scores.Transactional)

	return &deps{cfg: cfg, obs: obs, db: dbService, service: service}, nil
}

func (d *deps) Close() {
	_ = d.db.Close()
}
