package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/gameweek-oracle/internal/domain/playermap"
	"github.com/riskibarqy/gameweek-oracle/internal/domain/points"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

// syncBatchSize caps how many players one store write carries. Chain writes
// grow linearly with batch size, so this bounds per-transaction gas.
const syncBatchSize = 10

type syncRegistry interface {
	ListAll(ctx context.Context) ([]playermap.Mapping, error)
}

type syncStatsGateway interface {
	LiveGameweek(ctx context.Context, gameweek int) (map[int]ExternalLiveStats, error)
	CurrentGameweek(ctx context.Context) (ExternalGameweek, error)
}

// PointsSyncService reconciles provider point totals into the persistent
// points store. Sync state lives in memory only and resets on restart.
type PointsSyncService struct {
	registry syncRegistry
	gateway  syncStatsGateway
	store    points.Store
	logger   *logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	statuses map[int]points.SyncStatus
	inFlight map[int]bool
}

func NewPointsSyncService(registry syncRegistry, gateway syncStatsGateway, store points.Store, logger *logging.Logger) *PointsSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PointsSyncService{
		registry: registry,
		gateway:  gateway,
		store:    store,
		logger:   logger,
		now:      time.Now,
		statuses: make(map[int]points.SyncStatus, 38),
		inFlight: make(map[int]bool, 4),
	}
}

// PointsForGameweek diffs live provider data against the mapping table and
// returns one update per mapped player with a stat line that round, ordered
// by internal id. Mapped players absent from the live payload are excluded;
// present players with zero points are included.
func (s *PointsSyncService) PointsForGameweek(ctx context.Context, gameweek int) ([]points.Update, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsSyncService.PointsForGameweek")
	defer span.End()

	if gameweek <= 0 {
		return nil, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}
	if s.registry == nil || s.gateway == nil {
		return nil, fmt.Errorf("%w: points sync is not fully configured", ErrDependencyUnavailable)
	}

	live, err := s.gateway.LiveGameweek(ctx, gameweek)
	if err != nil {
		return nil, fmt.Errorf("load live data gameweek=%d: %w", gameweek, err)
	}
	mappings, err := s.registry.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mapping table: %w", err)
	}

	updates := make([]points.Update, 0, len(mappings))
	for _, mapping := range mappings {
		stats, ok := live[mapping.ExternalID]
		if !ok {
			continue
		}
		updates = append(updates, points.Update{
			Gameweek:   gameweek,
			InternalID: mapping.InternalID,
			Points:     clampPoints(stats.TotalPoints),
		})
	}
	return updates, nil
}

// SyncGameweek runs the full reconciliation pass for one gameweek: diff,
// idempotence filter, then batched writes. A batch failure stops the run and
// keeps progress from earlier batches; re-invoking resumes where the guard
// left off. At most one sync per gameweek runs at a time.
func (s *PointsSyncService) SyncGameweek(ctx context.Context, gameweek int) (points.SyncStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsSyncService.SyncGameweek")
	defer span.End()

	if gameweek <= 0 {
		return points.SyncStatus{}, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}
	if s.registry == nil || s.gateway == nil || s.store == nil {
		return points.SyncStatus{}, fmt.Errorf("%w: points sync is not fully configured", ErrDependencyUnavailable)
	}

	s.mu.Lock()
	if s.inFlight[gameweek] {
		current := s.statuses[gameweek]
		s.mu.Unlock()
		return current, fmt.Errorf("%w: gameweek=%d", ErrSyncInProgress, gameweek)
	}
	s.inFlight[gameweek] = true
	status := points.SyncStatus{
		Gameweek: gameweek,
		State:    points.SyncStateSyncing,
	}
	s.statuses[gameweek] = status
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, gameweek)
		s.mu.Unlock()
	}()

	status, err := s.runSync(ctx, gameweek, status)

	s.mu.Lock()
	s.statuses[gameweek] = status
	s.mu.Unlock()

	return status, err
}

func (s *PointsSyncService) runSync(ctx context.Context, gameweek int, status points.SyncStatus) (points.SyncStatus, error) {
	updates, err := s.PointsForGameweek(ctx, gameweek)
	if err != nil {
		status.State = points.SyncStateFailed
		status.Error = err.Error()
		return status, err
	}
	status.TotalPlayers = len(updates)

	if len(updates) == 0 {
		return s.complete(ctx, status), nil
	}

	// Idempotence guard: a positive recorded value means the player was
	// synced by an earlier run. Read failures count as unsynced so a flaky
	// read cannot drop a player from the pass.
	pending := make([]points.Update, 0, len(updates))
	for _, update := range updates {
		recorded, err := s.store.GetPoints(ctx, update.Gameweek, update.InternalID)
		if err != nil {
			s.logger.WarnContext(ctx, "points read failed, treating player as unsynced",
				"gameweek", update.Gameweek,
				"internal_id", update.InternalID,
				"error", err,
			)
			recorded = 0
		}
		if recorded > 0 {
			status.PlayersSynced++
			continue
		}
		pending = append(pending, update)
	}

	if len(pending) == 0 {
		return s.complete(ctx, status), nil
	}

	for start := 0; start < len(pending); start += syncBatchSize {
		end := start + syncBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		playerIDs := make([]uint64, 0, len(batch))
		values := make([]uint32, 0, len(batch))
		for _, update := range batch {
			playerIDs = append(playerIDs, update.InternalID)
			values = append(values, update.Points)
		}

		if err := s.store.SetPointsBatch(ctx, gameweek, playerIDs, values); err != nil {
			status.State = points.SyncStateFailed
			status.Error = fmt.Sprintf("batch sync failed: %v", err)
			s.logger.ErrorContext(ctx, "points batch write failed",
				"gameweek", gameweek,
				"batch_start", start,
				"batch_size", len(batch),
				"players_synced", status.PlayersSynced,
				"error", err,
			)
			return status, fmt.Errorf("sync gameweek=%d batch_start=%d: %w", gameweek, start, err)
		}

		status.PlayersSynced += len(batch)
		s.mu.Lock()
		s.statuses[gameweek] = status
		s.mu.Unlock()
	}

	return s.complete(ctx, status), nil
}

func (s *PointsSyncService) complete(ctx context.Context, status points.SyncStatus) points.SyncStatus {
	now := s.now().UTC()
	status.State = points.SyncStateCompleted
	status.SyncedAt = &now
	status.Error = ""
	s.logger.InfoContext(ctx, "gameweek sync completed",
		"gameweek", status.Gameweek,
		"players_synced", status.PlayersSynced,
		"total_players", status.TotalPlayers,
	)
	return status
}

// SyncStatusFor reports the in-memory status of one gameweek.
func (s *PointsSyncService) SyncStatusFor(ctx context.Context, gameweek int) (points.SyncStatus, error) {
	if gameweek <= 0 {
		return points.SyncStatus{}, fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.statuses[gameweek]
	if !ok {
		return points.SyncStatus{}, fmt.Errorf("%w: no sync recorded for gameweek=%d", ErrNotFound, gameweek)
	}
	return status, nil
}

// AllSyncStatuses returns every tracked status ordered by gameweek.
func (s *PointsSyncService) AllSyncStatuses(ctx context.Context) []points.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]points.SyncStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gameweek < out[j].Gameweek })
	return out
}

// UnsyncedGameweeks lists every gameweek before the current one whose sync
// has not completed in this process lifetime.
func (s *PointsSyncService) UnsyncedGameweeks(ctx context.Context) ([]int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PointsSyncService.UnsyncedGameweeks")
	defer span.End()

	if s.gateway == nil {
		return nil, fmt.Errorf("%w: points sync is not fully configured", ErrDependencyUnavailable)
	}

	current, err := s.gateway.CurrentGameweek(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current gameweek: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, 0, current.ID)
	for gameweek := 1; gameweek < current.ID; gameweek++ {
		status, ok := s.statuses[gameweek]
		if !ok || status.State != points.SyncStateCompleted {
			out = append(out, gameweek)
		}
	}
	return out, nil
}

// clampPoints floors negative provider totals at zero. Providers can report
// negative per-round totals (cards, own goals); the store records unsigned
// values.
func clampPoints(value int) uint32 {
	if value < 0 {
		return 0
	}
	return uint32(value)
}
