package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/gameweek-oracle/internal/domain/points"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

type catchUpRunner interface {
	UnsyncedGameweeks(ctx context.Context) ([]int, error)
	SyncGameweek(ctx context.Context, gameweek int) (points.SyncStatus, error)
}

type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	MaxWorkers int
}

type catchUpPool interface {
	Submit(task func()) error
	Release()
}

// SyncSchedulerService periodically sweeps unsynced gameweeks and runs the
// reconciliation pass for each. Distinct gameweeks sync in parallel on a
// bounded pool; the engine's own guard keeps one gameweek from syncing twice
// at once.
type SyncSchedulerService struct {
	runner  catchUpRunner
	cfg     SchedulerConfig
	logger  *logging.Logger
	cron    *cron.Cron
	newPool func(size int) (catchUpPool, error)
}

func NewSyncSchedulerService(runner catchUpRunner, cfg SchedulerConfig, logger *logging.Logger) *SyncSchedulerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	return &SyncSchedulerService{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		newPool: func(size int) (catchUpPool, error) {
			return ants.NewPool(size)
		},
	}
}

// Start registers the catch-up sweep and begins the schedule. It is a no-op
// when the scheduler is disabled.
func (s *SyncSchedulerService) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.InfoContext(ctx, "sync scheduler disabled")
		return nil
	}
	if s.runner == nil {
		return fmt.Errorf("%w: sync scheduler has no runner", ErrDependencyUnavailable)
	}
	if s.cron != nil {
		return nil
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunCatchUp(ctx); err != nil {
			s.logger.WarnContext(ctx, "scheduled catch-up sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register catch-up schedule %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.logger.InfoContext(ctx, "sync scheduler started", "interval", s.cfg.Interval.String(), "max_workers", normalizeSyncWorkerCount(s.cfg.MaxWorkers, 0))
	return nil
}

// Stop halts the schedule and waits for in-flight sweep jobs to return.
func (s *SyncSchedulerService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// CatchUpResult summarizes one sweep.
type CatchUpResult struct {
	Checked   int   `json:"checked"`
	Completed int   `json:"completed"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"`
	Gameweeks []int `json:"gameweeks"`
}

// RunCatchUp syncs every currently-unsynced gameweek once.
func (s *SyncSchedulerService) RunCatchUp(ctx context.Context) (CatchUpResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SyncSchedulerService.RunCatchUp")
	defer span.End()

	if s.runner == nil {
		return CatchUpResult{}, fmt.Errorf("%w: sync scheduler has no runner", ErrDependencyUnavailable)
	}

	gameweeks, err := s.runner.UnsyncedGameweeks(ctx)
	if err != nil {
		return CatchUpResult{}, fmt.Errorf("list unsynced gameweeks: %w", err)
	}

	result := CatchUpResult{
		Checked:   len(gameweeks),
		Gameweeks: gameweeks,
	}
	if len(gameweeks) == 0 {
		return result, nil
	}

	workerCount := normalizeSyncWorkerCount(s.cfg.MaxWorkers, len(gameweeks))
	pool, err := s.newPool(workerCount)
	if err != nil {
		return CatchUpResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	var workers sync.WaitGroup
	var submitErr error
	for _, gameweek := range gameweeks {
		gameweek := gameweek
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			status, err := s.runner.SyncGameweek(ctx, gameweek)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, ErrSyncInProgress):
				result.Skipped++
			case err != nil:
				result.Failed++
				s.logger.WarnContext(ctx, "catch-up sync failed",
					"gameweek", gameweek,
					"players_synced", status.PlayersSynced,
					"total_players", status.TotalPlayers,
					"error", err,
				)
			default:
				result.Completed++
			}
		}); err != nil {
			workers.Done()
			submitErr = fmt.Errorf("submit gameweek %d to worker pool: %w", gameweek, err)
			break
		}
	}
	// Jobs already submitted keep writing into result; wait for them even
	// when a later submission failed.
	workers.Wait()
	if submitErr != nil {
		return result, submitErr
	}

	s.logger.InfoContext(ctx, "catch-up sweep finished",
		"checked", result.Checked,
		"completed", result.Completed,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

func normalizeSyncWorkerCount(value int, taskCount int) int {
	if value <= 0 {
		value = 1
	}
	if value > 2 {
		value = 2
	}
	if taskCount > 0 && value > taskCount {
		value = taskCount
	}
	return value
}
