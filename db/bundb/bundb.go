// Package bundb opens the Postgres connection and applies the schema.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	scoremigrations "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/quizboard/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// DBService owns the bun connection pool and the repositories built on it.
type DBService struct {
	ScoreDB *scoredb.Impl
	db      *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// NewBunDBService connects to Postgres and builds the repositories.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	return &DBService{
		ScoreDB: scoredb.NewRepository(db),
		db:      db,
	}, nil
}

// Migrate applies every pending score migration under the migration lock so that
// concurrent replicas do not race.
func (s *DBService) Migrate(ctx context.Context, logger *slog.Logger) error {
	migrator := migrate.NewMigrator(s.db, scoremigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			logger.WarnContext(ctx, "Failed to unlock migrations", slog.Any("error", err))
		}
	}()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run score migrations: %w", err)
	}
	if group.IsZero() {
		logger.InfoContext(ctx, "No score migrations to run")
	} else {
		logger.InfoContext(ctx, "Ran score migrations", slog.String("group", group.String()))
	}
	return nil
}

// Close closes the connection pool.
func (s *DBService) Close() error {
	return s.db.Close()
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
