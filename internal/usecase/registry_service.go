package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/gameweek-oracle/internal/domain/playermap"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

type registryStatsGateway interface {
	Players(ctx context.Context) ([]ExternalPlayer, error)
	Teams(ctx context.Context) ([]ExternalTeam, error)
	LiveGameweek(ctx context.Context, gameweek int) (map[int]ExternalLiveStats, error)
	PlayerHistory(ctx context.Context, externalID int) ([]ExternalPlayerRound, error)
}

// PlayerRegistryService maintains the bidirectional link between internal
// player ids and provider player ids. The static seed table is authoritative
// for the id linkage; descriptive fields are enriched best-effort from live
// provider data on first use.
type PlayerRegistryService struct {
	seeds   []playermap.SeedRow
	gateway registryStatsGateway
	logger  *logging.Logger

	initOnce sync.Once

	mu         sync.RWMutex
	byInternal map[uint64]playermap.Mapping
	byExternal map[int]uint64
	ordered    []uint64
}

func NewPlayerRegistryService(seeds []playermap.SeedRow, gateway registryStatsGateway, logger *logging.Logger) *PlayerRegistryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerRegistryService{
		seeds:   seeds,
		gateway: gateway,
		logger:  logger,
	}
}

// ensureInit builds the lookup tables once. Seed rows with duplicate ids are
// skipped with a warning; enrichment failure leaves the static fields in
// place. Initialization itself never fails.
func (s *PlayerRegistryService) ensureInit(ctx context.Context) {
	s.initOnce.Do(func() {
		byInternal := make(map[uint64]playermap.Mapping, len(s.seeds))
		byExternal := make(map[int]uint64, len(s.seeds))
		ordered := make([]uint64, 0, len(s.seeds))

		for _, row := range s.seeds {
			if err := row.Validate(); err != nil {
				s.logger.WarnContext(ctx, "skipping invalid mapping row", "internal_id", row.InternalID, "error", err)
				continue
			}
			if _, exists := byInternal[row.InternalID]; exists {
				s.logger.WarnContext(ctx, "skipping duplicate internal id in mapping table", "internal_id", row.InternalID)
				continue
			}
			if _, exists := byExternal[row.ExternalID]; exists {
				s.logger.WarnContext(ctx, "skipping duplicate external id in mapping table",
					"internal_id", row.InternalID,
					"external_id", row.ExternalID,
				)
				continue
			}
			byInternal[row.InternalID] = playermap.Mapping(row)
			byExternal[row.ExternalID] = row.InternalID
			ordered = append(ordered, row.InternalID)
		}

		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

		s.mu.Lock()
		s.byInternal = byInternal
		s.byExternal = byExternal
		s.ordered = ordered
		s.mu.Unlock()

		s.enrich(ctx)
	})
}

// enrich refreshes names, teams and positions from provider data. The id
// linkage never changes here.
func (s *PlayerRegistryService) enrich(ctx context.Context) {
	if s.gateway == nil {
		return
	}

	players, err := s.gateway.Players(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "mapping enrichment skipped, using static fields", "error", err)
		return
	}
	playersByExternal := make(map[int]ExternalPlayer, len(players))
	for _, row := range players {
		playersByExternal[row.ExternalID] = row
	}

	teamNameByID := make(map[int]string)
	if teams, err := s.gateway.Teams(ctx); err == nil {
		for _, row := range teams {
			teamNameByID[row.ExternalID] = row.Name
		}
	} else {
		s.logger.WarnContext(ctx, "team enrichment skipped, keeping static team names", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enriched := 0
	for internalID, mapping := range s.byInternal {
		provider, ok := playersByExternal[mapping.ExternalID]
		if !ok {
			continue
		}
		if provider.Name != "" {
			mapping.Name = provider.Name
		}
		if name, ok := teamNameByID[provider.TeamExternalID]; ok && name != "" {
			mapping.Team = name
		}
		if position := playermap.Position(provider.Position); position != "" {
			if _, valid := playermap.AllPositions[position]; valid {
				mapping.Position = position
			}
		}
		s.byInternal[internalID] = mapping
		enriched++
	}

	s.logger.InfoContext(ctx, "player mapping table initialized",
		"mapped_players", len(s.byInternal),
		"enriched_players", enriched,
	)
}

// ResolveExternalID returns the provider id linked to an internal id.
func (s *PlayerRegistryService) ResolveExternalID(ctx context.Context, internalID uint64) (int, error) {
	mapping, err := s.MappingByInternalID(ctx, internalID)
	if err != nil {
		return 0, err
	}
	return mapping.ExternalID, nil
}

// ResolveInternalID returns the internal id linked to a provider id.
func (s *PlayerRegistryService) ResolveInternalID(ctx context.Context, externalID int) (uint64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerRegistryService.ResolveInternalID")
	defer span.End()

	if externalID <= 0 {
		return 0, fmt.Errorf("%w: external id must be greater than zero", ErrInvalidInput)
	}
	s.ensureInit(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	internalID, ok := s.byExternal[externalID]
	if !ok {
		return 0, fmt.Errorf("%w: external_id=%d is not mapped", ErrNotFound, externalID)
	}
	return internalID, nil
}

func (s *PlayerRegistryService) MappingByInternalID(ctx context.Context, internalID uint64) (playermap.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerRegistryService.MappingByInternalID")
	defer span.End()

	if internalID == 0 {
		return playermap.Mapping{}, fmt.Errorf("%w: internal id is required", ErrInvalidInput)
	}
	s.ensureInit(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping, ok := s.byInternal[internalID]
	if !ok {
		return playermap.Mapping{}, fmt.Errorf("%w: internal_id=%d is not mapped", ErrNotFound, internalID)
	}
	return mapping, nil
}

func (s *PlayerRegistryService) MappingByExternalID(ctx context.Context, externalID int) (playermap.Mapping, error) {
	internalID, err := s.ResolveInternalID(ctx, externalID)
	if err != nil {
		return playermap.Mapping{}, err
	}
	return s.MappingByInternalID(ctx, internalID)
}

// ListAll returns every mapping ordered by internal id.
func (s *PlayerRegistryService) ListAll(ctx context.Context) ([]playermap.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerRegistryService.ListAll")
	defer span.End()

	s.ensureInit(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]playermap.Mapping, 0, len(s.ordered))
	for _, internalID := range s.ordered {
		out = append(out, s.byInternal[internalID])
	}
	return out, nil
}

// Search matches a case-insensitive substring against name, team and
// position.
func (s *PlayerRegistryService) Search(ctx context.Context, term string) ([]playermap.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerRegistryService.Search")
	defer span.End()

	normalized := strings.ToLower(strings.TrimSpace(term))
	if normalized == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidInput)
	}
	s.ensureInit(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]playermap.Mapping, 0, 8)
	for _, internalID := range s.ordered {
		mapping := s.byInternal[internalID]
		if strings.Contains(strings.ToLower(mapping.Name), normalized) ||
			strings.Contains(strings.ToLower(mapping.Team), normalized) ||
			strings.Contains(strings.ToLower(string(mapping.Position)), normalized) {
			out = append(out, mapping)
		}
	}
	return out, nil
}

func (s *PlayerRegistryService) IsMapped(ctx context.Context, internalID uint64) bool {
	if internalID == 0 {
		return false
	}
	s.ensureInit(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byInternal[internalID]
	return ok
}

// UnmappedIDs filters candidates down to the internal ids absent from the
// mapping table, preserving input order.
func (s *PlayerRegistryService) UnmappedIDs(ctx context.Context, candidates []uint64) []uint64 {
	s.ensureInit(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uint64, 0, len(candidates))
	for _, internalID := range candidates {
		if _, ok := s.byInternal[internalID]; !ok {
			out = append(out, internalID)
		}
	}
	return out
}

// LiveStats returns a mapped player's live stat line for a gameweek. A
// player with no stat line that round reports ErrNotFound.
func (s *PlayerRegistryService) LiveStats(ctx context.Context, internalID uint64, gameweek int) (ExternalLiveStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerRegistryService.LiveStats")
	defer span.End()

	if gameweek <= 0 {
		return ExternalLiveStats{}, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}
	mapping, err := s.MappingByInternalID(ctx, internalID)
	if err != nil {
		return ExternalLiveStats{}, err
	}
	if s.gateway == nil {
		return ExternalLiveStats{}, fmt.Errorf("%w: stats gateway is not configured", ErrDependencyUnavailable)
	}

	live, err := s.gateway.LiveGameweek(ctx, gameweek)
	if err != nil {
		return ExternalLiveStats{}, fmt.Errorf("load live stats internal_id=%d gameweek=%d: %w", internalID, gameweek, err)
	}
	stats, ok := live[mapping.ExternalID]
	if !ok {
		return ExternalLiveStats{}, fmt.Errorf("%w: no live data for internal_id=%d in gameweek=%d", ErrNotFound, internalID, gameweek)
	}
	return stats, nil
}

// History returns a mapped player's per-gameweek rows for the season.
func (s *PlayerRegistryService) History(ctx context.Context, internalID uint64) ([]ExternalPlayerRound, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerRegistryService.History")
	defer span.End()

	mapping, err := s.MappingByInternalID(ctx, internalID)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: stats gateway is not configured", ErrDependencyUnavailable)
	}

	rounds, err := s.gateway.PlayerHistory(ctx, mapping.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("load history internal_id=%d: %w", internalID, err)
	}
	return rounds, nil
}
