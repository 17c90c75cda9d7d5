package scoreservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/catalog"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// CustomDeckFinder looks up user-authored decks by short name.
type CustomDeckFinder interface {
	GetCustomDeckUniqueID(ctx context.Context, db bun.IDB, shortName string) (scoredomain.DeckUniqueID, error)
}

// DeckResolver maps user supplied deck names to canonical deck ids.
type DeckResolver struct {
	catalog *catalog.Catalog
	decks   CustomDeckFinder
	metrics observability.ScoreMetrics
}

// NewDeckResolver creates a resolver over an immutable catalog and the custom deck store.
func NewDeckResolver(c *catalog.Catalog, decks CustomDeckFinder, metrics observability.ScoreMetrics) *DeckResolver {
	if c == nil {
		c = catalog.New(nil)
	}
	return &DeckResolver{catalog: c, decks: decks, metrics: metrics}
}

// Resolve returns the canonical id for name, ignoring case. Lookup order is the catalog
// display names, then catalog ids, then custom deck short names. Custom decks are read
// on every call.
func (r *DeckResolver) Resolve(ctx context.Context, name string) (scoredomain.DeckUniqueID, error) {
	key := strings.ToLower(name)

	if id, ok := r.catalog.Lookup(key); ok {
		r.metrics.RecordDeckResolution(ctx, "catalog")
		return id, nil
	}
	if id := scoredomain.DeckUniqueID(key); r.catalog.ContainsID(id) {
		r.metrics.RecordDeckResolution(ctx, "canonical_id")
		return id, nil
	}
	if key == "" {
		r.metrics.RecordDeckResolution(ctx, "not_found")
		return "", &scoredomain.DeckNotFoundError{Name: name}
	}

	id, err := r.decks.GetCustomDeckUniqueID(ctx, nil, key)
	switch {
	case err == nil:
		r.metrics.RecordDeckResolution(ctx, "custom")
		return id, nil
	case errors.Is(err, scoredb.ErrNotFound):
		r.metrics.RecordDeckResolution(ctx, "not_found")
		return "", &scoredomain.DeckNotFoundError{Name: name}
	default:
		return "", fmt.Errorf("failed to look up custom deck %q: %w", name, err)
	}
}

// ResolveAll resolves every name concurrently. The result keeps the input order. The
// first failure cancels the remaining lookups and is returned alone.
func (r *DeckResolver) ResolveAll(ctx context.Context, names []string) ([]scoredomain.DeckUniqueID, error) {
	ids := make([]scoredomain.DeckUniqueID, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			id, err := r.Resolve(gctx, name)
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ResolveDeckIDs resolves deck names through the service's resolver.
func (s *ScoreService) ResolveDeckIDs(ctx context.Context, names []string) ([]scoredomain.DeckUniqueID, error) {
	return withTelemetry(s, ctx, "ResolveDeckIDs", []attribute.KeyValue{
		attribute.StringSlice("deck_names", names),
	}, func(ctx context.Context) ([]scoredomain.DeckUniqueID, error) {
		return s.resolver.ResolveAll(ctx, names)
	})
}
