package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/gameweek-oracle/internal/platform/cache"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

// StatsProvider is the upstream stats feed. Implemented by external/fpl.
type StatsProvider interface {
	FetchBootstrap(ctx context.Context) (ExternalBootstrap, error)
	FetchLiveGameweek(ctx context.Context, gameweek int) (map[int]ExternalLiveStats, error)
	FetchPlayerHistory(ctx context.Context, externalID int) ([]ExternalPlayerRound, error)
	FetchFixtures(ctx context.Context, gameweek int) ([]ExternalFixture, error)
}

// StatsGatewayService fronts the provider with a read-through cache. Live
// gameweek data turns over quickly and gets a much shorter TTL than the
// season-wide snapshots.
type StatsGatewayService struct {
	provider StatsProvider
	cache    *cache.Store
	liveTTL  time.Duration
	logger   *logging.Logger
}

func NewStatsGatewayService(provider StatsProvider, cacheStore *cache.Store, liveTTL time.Duration, logger *logging.Logger) *StatsGatewayService {
	if logger == nil {
		logger = logging.Default()
	}
	if liveTTL <= 0 {
		liveTTL = 30 * time.Second
	}
	return &StatsGatewayService{
		provider: provider,
		cache:    cacheStore,
		liveTTL:  liveTTL,
		logger:   logger,
	}
}

func (s *StatsGatewayService) Bootstrap(ctx context.Context) (ExternalBootstrap, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsGatewayService.Bootstrap")
	defer span.End()

	if s.provider == nil {
		return ExternalBootstrap{}, fmt.Errorf("%w: stats provider is not configured", ErrDependencyUnavailable)
	}

	out, err := s.cache.GetOrLoad(ctx, "fpl:bootstrap", func(ctx context.Context) (any, error) {
		return s.provider.FetchBootstrap(ctx)
	})
	if err != nil {
		return ExternalBootstrap{}, fmt.Errorf("load bootstrap: %w", err)
	}

	bootstrap, ok := out.(ExternalBootstrap)
	if !ok {
		return ExternalBootstrap{}, fmt.Errorf("unexpected cached bootstrap type %T", out)
	}
	return bootstrap, nil
}

func (s *StatsGatewayService) Players(ctx context.Context) ([]ExternalPlayer, error) {
	bootstrap, err := s.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	return bootstrap.Players, nil
}

func (s *StatsGatewayService) Teams(ctx context.Context) ([]ExternalTeam, error) {
	bootstrap, err := s.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	return bootstrap.Teams, nil
}

func (s *StatsGatewayService) Gameweeks(ctx context.Context) ([]ExternalGameweek, error) {
	bootstrap, err := s.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	return bootstrap.Gameweeks, nil
}

// CurrentGameweek returns the gameweek the provider flags as current, falling
// back to the next one before the season starts.
func (s *StatsGatewayService) CurrentGameweek(ctx context.Context) (ExternalGameweek, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsGatewayService.CurrentGameweek")
	defer span.End()

	gameweeks, err := s.Gameweeks(ctx)
	if err != nil {
		return ExternalGameweek{}, err
	}

	for _, row := range gameweeks {
		if row.IsCurrent {
			return row, nil
		}
	}
	for _, row := range gameweeks {
		if row.IsNext {
			return row, nil
		}
	}
	return ExternalGameweek{}, fmt.Errorf("%w: no current gameweek in provider data", ErrNotFound)
}

// FinishedGameweeks returns ids of gameweeks the provider has finished and
// data-checked, in ascending order.
func (s *StatsGatewayService) FinishedGameweeks(ctx context.Context) ([]int, error) {
	gameweeks, err := s.Gameweeks(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, len(gameweeks))
	for _, row := range gameweeks {
		if row.Finished && row.DataChecked {
			out = append(out, row.ID)
		}
	}
	return out, nil
}

func (s *StatsGatewayService) LiveGameweek(ctx context.Context, gameweek int) (map[int]ExternalLiveStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsGatewayService.LiveGameweek")
	defer span.End()

	if s.provider == nil {
		return nil, fmt.Errorf("%w: stats provider is not configured", ErrDependencyUnavailable)
	}
	if gameweek <= 0 {
		return nil, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}

	key := fmt.Sprintf("fpl:live:%d", gameweek)
	out, err := s.cache.GetOrLoadTTL(ctx, key, s.liveTTL, func(ctx context.Context) (any, error) {
		return s.provider.FetchLiveGameweek(ctx, gameweek)
	})
	if err != nil {
		return nil, fmt.Errorf("load live gameweek=%d: %w", gameweek, err)
	}

	live, ok := out.(map[int]ExternalLiveStats)
	if !ok {
		return nil, fmt.Errorf("unexpected cached live data type %T", out)
	}
	return live, nil
}

func (s *StatsGatewayService) PlayerHistory(ctx context.Context, externalID int) ([]ExternalPlayerRound, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsGatewayService.PlayerHistory")
	defer span.End()

	if s.provider == nil {
		return nil, fmt.Errorf("%w: stats provider is not configured", ErrDependencyUnavailable)
	}
	if externalID <= 0 {
		return nil, fmt.Errorf("%w: external player id must be greater than zero", ErrInvalidInput)
	}

	key := fmt.Sprintf("fpl:history:%d", externalID)
	out, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.provider.FetchPlayerHistory(ctx, externalID)
	})
	if err != nil {
		return nil, fmt.Errorf("load player history external_id=%d: %w", externalID, err)
	}

	rounds, ok := out.([]ExternalPlayerRound)
	if !ok {
		return nil, fmt.Errorf("unexpected cached history type %T", out)
	}
	return rounds, nil
}

// Fixtures returns fixtures for one gameweek, or all season fixtures when
// gameweek is zero.
func (s *StatsGatewayService) Fixtures(ctx context.Context, gameweek int) ([]ExternalFixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsGatewayService.Fixtures")
	defer span.End()

	if s.provider == nil {
		return nil, fmt.Errorf("%w: stats provider is not configured", ErrDependencyUnavailable)
	}
	if gameweek < 0 {
		return nil, fmt.Errorf("%w: gameweek must not be negative", ErrInvalidInput)
	}

	key := fmt.Sprintf("fpl:fixtures:%d", gameweek)
	out, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.provider.FetchFixtures(ctx, gameweek)
	})
	if err != nil {
		return nil, fmt.Errorf("load fixtures gameweek=%d: %w", gameweek, err)
	}

	fixtures, ok := out.([]ExternalFixture)
	if !ok {
		return nil, fmt.Errorf("unexpected cached fixtures type %T", out)
	}
	return fixtures, nil
}

// InvalidateLive drops the cached live payload for a gameweek so the next
// read refetches.
func (s *StatsGatewayService) InvalidateLive(ctx context.Context, gameweek int) {
	if gameweek <= 0 {
		return
	}
	s.cache.Delete(ctx, fmt.Sprintf("fpl:live:%d", gameweek))
}
