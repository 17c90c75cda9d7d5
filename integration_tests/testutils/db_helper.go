package testutils

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"

	scorequeue "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/queue"
)

// scoreTables are truncated between tests. Migration bookkeeping tables are kept.
var scoreTables = []string{
	"user_global_total_scores",
	"user_group_total_scores",
	"user_global_deck_scores",
	"user_group_deck_scores",
	"custom_decks",
}

// RunRiverMigrations runs River queue system migrations
func RunRiverMigrations(ctx context.Context, connStr string) error {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	if err := scorequeue.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Println("River queue migrations completed successfully")
	return nil
}

// CleanScoreTables empties every score table.
func CleanScoreTables(ctx context.Context, db bun.IDB) error {
	idents := make([]any, len(scoreTables))
	for i, name := range scoreTables {
		idents[i] = bun.Ident(name)
	}
	if _, err := db.NewRaw("TRUNCATE TABLE ?, ?, ?, ?, ? RESTART IDENTITY", idents...).Exec(ctx); err != nil {
		return fmt.Errorf("failed to truncate score tables: %w", err)
	}
	return nil
}

// CleanupRiverJobs deletes all jobs from the River queue
func CleanupRiverJobs(ctx context.Context, db bun.IDB) error {
	_, err := db.NewRaw("DELETE FROM river_job").Exec(ctx)
	return err
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, db bun.IDB, table string) (int, error) {
	return db.NewSelect().Table(table).Count(ctx)
}
