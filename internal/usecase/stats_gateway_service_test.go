package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/gameweek-oracle/internal/platform/cache"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

type stubStatsProvider struct {
	bootstrap     ExternalBootstrap
	bootstrapErr  error
	bootstrapHits atomic.Int32
	live          map[int]ExternalLiveStats
	liveHits      atomic.Int32
	history       []ExternalPlayerRound
	fixtures      []ExternalFixture
}

func (s *stubStatsProvider) FetchBootstrap(ctx context.Context) (ExternalBootstrap, error) {
	s.bootstrapHits.Add(1)
	return s.bootstrap, s.bootstrapErr
}

func (s *stubStatsProvider) FetchLiveGameweek(ctx context.Context, gameweek int) (map[int]ExternalLiveStats, error) {
	s.liveHits.Add(1)
	return s.live, nil
}

func (s *stubStatsProvider) FetchPlayerHistory(ctx context.Context, externalID int) ([]ExternalPlayerRound, error) {
	return s.history, nil
}

func (s *stubStatsProvider) FetchFixtures(ctx context.Context, gameweek int) ([]ExternalFixture, error) {
	return s.fixtures, nil
}

func newGateway(provider StatsProvider) *StatsGatewayService {
	return NewStatsGatewayService(provider, cache.NewStore(time.Minute), 30*time.Second, logging.NewNop())
}

func TestStatsGateway_BootstrapIsCached(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{
		bootstrap: ExternalBootstrap{
			Players:   []ExternalPlayer{{ExternalID: 1, Name: "A"}},
			Teams:     []ExternalTeam{{ExternalID: 1, Name: "T"}},
			Gameweeks: []ExternalGameweek{{ID: 1, IsCurrent: true}},
		},
	}
	svc := newGateway(provider)
	ctx := context.Background()

	if _, err := svc.Players(ctx); err != nil {
		t.Fatalf("Players: %v", err)
	}
	if _, err := svc.Teams(ctx); err != nil {
		t.Fatalf("Teams: %v", err)
	}
	if _, err := svc.Gameweeks(ctx); err != nil {
		t.Fatalf("Gameweeks: %v", err)
	}

	if got := provider.bootstrapHits.Load(); got != 1 {
		t.Fatalf("expected a single provider fetch, got %d", got)
	}
}

func TestStatsGateway_BootstrapErrorPropagates(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{bootstrapErr: errors.New("upstream down")}
	svc := newGateway(provider)

	if _, err := svc.Players(context.Background()); err == nil {
		t.Fatal("expected error to propagate, got nil")
	}
}

func TestStatsGateway_CurrentGameweek(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{
		bootstrap: ExternalBootstrap{
			Gameweeks: []ExternalGameweek{
				{ID: 1, Finished: true, IsPrevious: true},
				{ID: 2, IsCurrent: true},
				{ID: 3, IsNext: true},
			},
		},
	}
	svc := newGateway(provider)

	current, err := svc.CurrentGameweek(context.Background())
	if err != nil {
		t.Fatalf("CurrentGameweek: %v", err)
	}
	if current.ID != 2 {
		t.Fatalf("expected gameweek 2, got %+v", current)
	}
}

func TestStatsGateway_CurrentGameweekFallsBackToNext(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{
		bootstrap: ExternalBootstrap{
			Gameweeks: []ExternalGameweek{{ID: 1, IsNext: true}},
		},
	}
	svc := newGateway(provider)

	current, err := svc.CurrentGameweek(context.Background())
	if err != nil {
		t.Fatalf("CurrentGameweek: %v", err)
	}
	if current.ID != 1 {
		t.Fatalf("expected next gameweek fallback, got %+v", current)
	}

	empty := newGateway(&stubStatsProvider{})
	if _, err := empty.CurrentGameweek(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound with no gameweeks, got %v", err)
	}
}

func TestStatsGateway_FinishedGameweeks(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{
		bootstrap: ExternalBootstrap{
			Gameweeks: []ExternalGameweek{
				{ID: 1, Finished: true, DataChecked: true},
				{ID: 2, Finished: true, DataChecked: false},
				{ID: 3},
			},
		},
	}
	svc := newGateway(provider)

	finished, err := svc.FinishedGameweeks(context.Background())
	if err != nil {
		t.Fatalf("FinishedGameweeks: %v", err)
	}
	if len(finished) != 1 || finished[0] != 1 {
		t.Fatalf("expected only data-checked gameweek 1, got %v", finished)
	}
}

func TestStatsGateway_LiveGameweekUsesShortTTL(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{live: map[int]ExternalLiveStats{1: {TotalPoints: 5}}}
	svc := NewStatsGatewayService(provider, cache.NewStore(time.Minute), 20*time.Millisecond, logging.NewNop())
	ctx := context.Background()

	if _, err := svc.LiveGameweek(ctx, 1); err != nil {
		t.Fatalf("LiveGameweek: %v", err)
	}
	if _, err := svc.LiveGameweek(ctx, 1); err != nil {
		t.Fatalf("LiveGameweek: %v", err)
	}
	if got := provider.liveHits.Load(); got != 1 {
		t.Fatalf("expected cached second read, got %d fetches", got)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := svc.LiveGameweek(ctx, 1); err != nil {
		t.Fatalf("LiveGameweek: %v", err)
	}
	if got := provider.liveHits.Load(); got != 2 {
		t.Fatalf("expected refetch after TTL, got %d fetches", got)
	}

	if _, err := svc.LiveGameweek(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for gameweek 0, got %v", err)
	}
}

func TestStatsGateway_InvalidateLiveForcesRefetch(t *testing.T) {
	t.Parallel()

	provider := &stubStatsProvider{live: map[int]ExternalLiveStats{1: {TotalPoints: 5}}}
	svc := newGateway(provider)
	ctx := context.Background()

	if _, err := svc.LiveGameweek(ctx, 2); err != nil {
		t.Fatalf("LiveGameweek: %v", err)
	}
	svc.InvalidateLive(ctx, 2)
	if _, err := svc.LiveGameweek(ctx, 2); err != nil {
		t.Fatalf("LiveGameweek: %v", err)
	}
	if got := provider.liveHits.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidation, got %d fetches", got)
	}
}
