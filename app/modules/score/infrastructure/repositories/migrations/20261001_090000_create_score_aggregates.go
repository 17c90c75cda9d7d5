package scoremigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating score aggregate tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			statements := []string{
				`CREATE TABLE IF NOT EXISTS user_global_total_scores (
					user_id TEXT PRIMARY KEY,
					score BIGINT NOT NULL DEFAULT 0,
					last_known_username TEXT NOT NULL DEFAULT '',
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);`,
				`CREATE TABLE IF NOT EXISTS user_group_total_scores (
					user_id TEXT NOT NULL,
					group_id TEXT NOT NULL,
					score BIGINT NOT NULL DEFAULT 0,
					last_known_username TEXT NOT NULL DEFAULT '',
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, group_id)
				);`,
				`CREATE TABLE IF NOT EXISTS user_global_deck_scores (
					user_id TEXT NOT NULL,
					deck_unique_id TEXT NOT NULL,
					score BIGINT NOT NULL DEFAULT 0,
					last_known_username TEXT NOT NULL DEFAULT '',
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, deck_unique_id)
				);`,
				`CREATE TABLE IF NOT EXISTS user_group_deck_scores (
					user_id TEXT NOT NULL,
					group_id TEXT NOT NULL,
					deck_unique_id TEXT NOT NULL,
					score BIGINT NOT NULL DEFAULT 0,
					last_known_username TEXT NOT NULL DEFAULT '',
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, group_id, deck_unique_id)
				);`,
				`CREATE INDEX IF NOT EXISTS idx_user_global_total_scores_score ON user_global_total_scores (score DESC);`,
				`CREATE INDEX IF NOT EXISTS idx_user_group_total_scores_group_score ON user_group_total_scores (group_id, score DESC);`,
				`CREATE INDEX IF NOT EXISTS idx_user_global_deck_scores_deck ON user_global_deck_scores (deck_unique_id);`,
				`CREATE INDEX IF NOT EXISTS idx_user_group_deck_scores_group_deck ON user_group_deck_scores (group_id, deck_unique_id);`,
			}
			for _, stmt := range statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create score aggregates: %w", err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping score aggregate tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS user_group_deck_scores;
			DROP TABLE IF EXISTS user_global_deck_scores;
			DROP TABLE IF EXISTS user_group_total_scores;
			DROP TABLE IF EXISTS user_global_total_scores;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop score aggregate tables: %w", err)
		}
		return nil
	})
}
