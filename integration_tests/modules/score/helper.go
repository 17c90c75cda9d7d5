package scoreintegrationtests

import (
	"context"
	"testing"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
	"github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/catalog"
	scoredb "github.com/Black-And-White-Club/quizboard/app/modules/score/infrastructure/repositories"
	"github.com/Black-And-White-Club/quizboard/app/observability"
	"github.com/Black-And-White-Club/quizboard/integration_tests/testutils"
)

type TestDeps struct {
	Ctx     context.Context
	Env     *testutils.TestEnvironment
	Repo    *scoredb.Impl
	BunDB   *bun.DB
	Service *scoreservice.ScoreService
}

func testCatalog() *catalog.Catalog {
	return catalog.New(map[string]scoredomain.DeckUniqueID{
		"JLPT1":    "jlpt1_vocab",
		"JLPT2":    "jlpt2_vocab",
		"Hiragana": "hiragana",
	})
}

func SetupTestScoreService(t *testing.T) TestDeps {
	t.Helper()

	env := testutils.GetOrCreateTestEnv(t)
	if err := testutils.CleanScoreTables(env.Ctx, env.DB); err != nil {
		t.Fatalf("Failed to clean score tables: %v", err)
	}

	repo := scoredb.NewRepository(env.DB)
	service := scoreservice.NewScoreService(
		repo,
		testCatalog(),
		testutils.DiscardLogger(),
		observability.NoOpScoreMetrics{},
		noop.NewTracerProvider().Tracer("test_score_service"),
		env.DB,
		false,
	)

	return TestDeps{
		Ctx:     env.Ctx,
		Env:     env,
		Repo:    repo,
		BunDB:   env.DB,
		Service: service,
	}
}

// leaderboard reads a whole board through the service.
func leaderboard(t *testing.T, deps TestDeps, groupID scoredomain.GroupID, decks ...string) *scoreservice.Leaderboard {
	t.Helper()
	board, err := deps.Service.GetLeaderboard(deps.Ctx, scoreservice.LeaderboardRequest{
		GroupID:   groupID,
		DeckNames: decks,
		Start:     0,
		End:       1000,
	})
	if err != nil {
		t.Fatalf("GetLeaderboard(%q, %v): %v", groupID, decks, err)
	}
	return board
}

func scoreserviceRequest(groupID scoredomain.GroupID) scoreservice.LeaderboardRequest {
	return scoreservice.LeaderboardRequest{GroupID: groupID, Start: 0, End: 100}
}
