package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/gameweek-oracle/internal/domain/points"
	"github.com/riskibarqy/gameweek-oracle/internal/platform/logging"
)

type stubCatchUpRunner struct {
	mu        sync.Mutex
	unsynced  []int
	listErr   error
	synced    []int
	failGW    int
	inFlight  int
	callCount int
}

func (s *stubCatchUpRunner) UnsyncedGameweeks(ctx context.Context) ([]int, error) {
	return s.unsynced, s.listErr
}

func (s *stubCatchUpRunner) SyncGameweek(ctx context.Context, gameweek int) (points.SyncStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	if gameweek == s.inFlight {
		return points.SyncStatus{Gameweek: gameweek}, fmt.Errorf("%w: gameweek=%d", ErrSyncInProgress, gameweek)
	}
	if gameweek == s.failGW {
		return points.SyncStatus{Gameweek: gameweek, State: points.SyncStateFailed}, errors.New("batch sync failed")
	}
	s.synced = append(s.synced, gameweek)
	return points.SyncStatus{Gameweek: gameweek, State: points.SyncStateCompleted}, nil
}

func TestRunCatchUp_SyncsEveryUnsyncedGameweek(t *testing.T) {
	t.Parallel()

	runner := &stubCatchUpRunner{unsynced: []int{1, 2, 3, 4}}
	svc := NewSyncSchedulerService(runner, SchedulerConfig{MaxWorkers: 2}, logging.NewNop())

	result, err := svc.RunCatchUp(context.Background())
	if err != nil {
		t.Fatalf("RunCatchUp returned error: %v", err)
	}
	if result.Checked != 4 || result.Completed != 4 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(runner.synced) != 4 {
		t.Fatalf("expected 4 gameweeks synced, got %v", runner.synced)
	}
}

func TestRunCatchUp_CountsFailuresAndSkips(t *testing.T) {
	t.Parallel()

	runner := &stubCatchUpRunner{
		unsynced: []int{1, 2, 3},
		failGW:   2,
		inFlight: 3,
	}
	svc := NewSyncSchedulerService(runner, SchedulerConfig{MaxWorkers: 1}, logging.NewNop())

	result, err := svc.RunCatchUp(context.Background())
	if err != nil {
		t.Fatalf("RunCatchUp returned error: %v", err)
	}
	if result.Completed != 1 || result.Failed != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunCatchUp_EmptySweep(t *testing.T) {
	t.Parallel()

	runner := &stubCatchUpRunner{}
	svc := NewSyncSchedulerService(runner, SchedulerConfig{}, logging.NewNop())

	result, err := svc.RunCatchUp(context.Background())
	if err != nil {
		t.Fatalf("RunCatchUp returned error: %v", err)
	}
	if result.Checked != 0 || runner.callCount != 0 {
		t.Fatalf("expected no work, got %+v calls=%d", result, runner.callCount)
	}
}

func TestRunCatchUp_ListFailurePropagates(t *testing.T) {
	t.Parallel()

	runner := &stubCatchUpRunner{listErr: errors.New("provider down")}
	svc := NewSyncSchedulerService(runner, SchedulerConfig{}, logging.NewNop())

	if _, err := svc.RunCatchUp(context.Background()); err == nil {
		t.Fatal("expected error when unsynced listing fails")
	}
}

// slowStartPool runs each submitted task on its own goroutine after a short
// delay and rejects submissions beyond its limit.
type slowStartPool struct {
	mu        sync.Mutex
	submitted int
	limit     int
}

func (p *slowStartPool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitted >= p.limit {
		return errors.New("pool overloaded")
	}
	p.submitted++
	go func() {
		time.Sleep(20 * time.Millisecond)
		task()
	}()
	return nil
}

func (p *slowStartPool) Release() {}

func TestRunCatchUp_SubmitFailureWaitsForInFlightJobs(t *testing.T) {
	t.Parallel()

	runner := &stubCatchUpRunner{unsynced: []int{1, 2}}
	svc := NewSyncSchedulerService(runner, SchedulerConfig{MaxWorkers: 2}, logging.NewNop())
	svc.newPool = func(size int) (catchUpPool, error) {
		return &slowStartPool{limit: 1}, nil
	}

	result, err := svc.RunCatchUp(context.Background())
	if err == nil {
		t.Fatal("expected error when a submission is rejected")
	}

	// The accepted job must have finished before RunCatchUp returned.
	runner.mu.Lock()
	calls := runner.callCount
	runner.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected 1 completed sync before return, got %d", calls)
	}
	if result.Completed != 1 {
		t.Fatalf("expected the in-flight job counted in the result, got %+v", result)
	}
}

func TestScheduler_StartDisabledIsNoOp(t *testing.T) {
	t.Parallel()

	svc := NewSyncSchedulerService(&stubCatchUpRunner{}, SchedulerConfig{Enabled: false}, logging.NewNop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	svc.Stop()
}

func TestScheduler_StartAndStop(t *testing.T) {
	t.Parallel()

	svc := NewSyncSchedulerService(&stubCatchUpRunner{}, SchedulerConfig{
		Enabled:  true,
		Interval: time.Hour,
	}, logging.NewNop())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	// Second start is idempotent.
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	svc.Stop()
}

func TestNormalizeSyncWorkerCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, tasks, want int
	}{
		{0, 5, 1},
		{1, 5, 1},
		{2, 5, 2},
		{8, 5, 2},
		{2, 1, 1},
		{2, 0, 2},
	}
	for _, tc := range cases {
		if got := normalizeSyncWorkerCount(tc.value, tc.tasks); got != tc.want {
			t.Fatalf("normalizeSyncWorkerCount(%d, %d) = %d, want %d", tc.value, tc.tasks, got, tc.want)
		}
	}
}
