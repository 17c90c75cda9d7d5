package scoreservice

import (
	"context"
	"fmt"
	"log/slog"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/legacy"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/uptrace/bun"
)

// ScoreApplier applies a single scoring event.
type ScoreApplier interface {
	ApplyScore(ctx context.Context, event scoredomain.ScoreEvent) error
}

// AggregateTruncater wipes every aggregate table.
type AggregateTruncater interface {
	TruncateAggregates(ctx context.Context, db bun.IDB) error
}

const defaultProgressEvery = 1000

// Migrator rebuilds the aggregate tables from the legacy score log.
type Migrator struct {
	store         legacy.Store
	truncater     AggregateTruncater
	applier       ScoreApplier
	logger        *slog.Logger
	metrics       observability.ScoreMetrics
	progressEvery int
}

// NewMigrator creates a Migrator. progressEvery <= 0 uses the default of 1000 rows.
func NewMigrator(
	store legacy.Store,
	truncater AggregateTruncater,
	applier ScoreApplier,
	logger *slog.Logger,
	metrics observability.ScoreMetrics,
	progressEvery int,
) *Migrator {
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	return &Migrator{
		store:         store,
		truncater:     truncater,
		applier:       applier,
		logger:        logger,
		metrics:       metrics,
		progressEvery: progressEvery,
	}
}

// Run wipes all four aggregate tables and replays the legacy score log one row at a time.
// It does nothing when the store holds no score log. Any failure is a
// *scoredomain.MigrationFatalError; the aggregate tables must not be trusted afterwards.
func (m *Migrator) Run(ctx context.Context) error {
	var rows []legacy.ScoreRow
	found, err := m.store.GetData(ctx, legacy.ScoresKey, &rows)
	if err != nil {
		return &scoredomain.MigrationFatalError{Row: -1, Err: fmt.Errorf("failed to load legacy scores: %w", err)}
	}
	if !found {
		m.logger.InfoContext(ctx, "No legacy score log found, skipping migration")
		return nil
	}

	names := legacy.UsernameMap{}
	if _, err := m.store.GetData(ctx, legacy.UsernamesKey, &names); err != nil {
		return &scoredomain.MigrationFatalError{Row: -1, Err: fmt.Errorf("failed to load legacy usernames: %w", err)}
	}

	m.logger.InfoContext(ctx, "Migrating legacy scores", slog.Int("rows", len(rows)))

	if err := m.truncater.TruncateAggregates(ctx, nil); err != nil {
		return &scoredomain.MigrationFatalError{Row: -1, Err: err}
	}

	replayed, skipped := 0, 0
	for i, row := range rows {
		if i%m.progressEvery == 0 {
			m.logger.InfoContext(ctx, "Legacy migration progress",
				slog.Int("row", i),
				slog.Int("total", len(rows)),
			)
		}

		event, ok, err := eventFromLegacyRow(row, names)
		if err != nil {
			m.metrics.RecordMigrationRows(ctx, replayed, skipped)
			return &scoredomain.MigrationFatalError{Row: i, Err: err}
		}
		if !ok {
			skipped++
			continue
		}

		if err := m.applier.ApplyScore(ctx, event); err != nil {
			m.metrics.RecordMigrationRows(ctx, replayed, skipped)
			return &scoredomain.MigrationFatalError{Row: i, Err: err}
		}
		replayed++
	}

	m.metrics.RecordMigrationRows(ctx, replayed, skipped)
	m.logger.InfoContext(ctx, "Legacy score migration complete",
		slog.Int("replayed", replayed),
		slog.Int("skipped", skipped),
	)
	return nil
}

// eventFromLegacyRow applies the legacy defaults. ok is false for rows that carry no score.
func eventFromLegacyRow(row legacy.ScoreRow, names legacy.UsernameMap) (scoredomain.ScoreEvent, bool, error) {
	deckID := scoredomain.UnknownDeckID
	if row.DeckID != nil {
		deckID = scoredomain.DeckUniqueID(*row.DeckID)
	}
	username := names[row.UserID]
	if username == "" {
		username = scoredomain.UnknownUsername
	}

	if scoredomain.TruncateScore(row.Score) == 0 {
		return scoredomain.ScoreEvent{}, false, nil
	}

	switch {
	case row.UserID == "":
		return scoredomain.ScoreEvent{}, false, &scoredomain.ValidationError{Field: "userId", Value: row.UserID}
	case row.ServerID == "":
		return scoredomain.ScoreEvent{}, false, &scoredomain.ValidationError{Field: "serverId", Value: row.ServerID}
	case deckID == "":
		return scoredomain.ScoreEvent{}, false, &scoredomain.ValidationError{Field: "deckId", Value: string(deckID)}
	}

	return scoredomain.ScoreEvent{
		UserID:       scoredomain.UserID(row.UserID),
		GroupID:      scoredomain.GroupID(row.ServerID),
		DeckUniqueID: deckID,
		Score:        row.Score,
		Username:     username,
	}, true, nil
}
