package scoremigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating custom_decks table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS custom_decks (
				id BIGSERIAL PRIMARY KEY,
				short_name TEXT NOT NULL UNIQUE,
				unique_id TEXT NOT NULL UNIQUE,
				name TEXT,
				owner_id TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create custom_decks table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping custom_decks table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS custom_decks;`); err != nil {
			return fmt.Errorf("failed to drop custom_decks table: %w", err)
		}
		return nil
	})
}
