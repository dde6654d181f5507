package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var executions int32
	var sharedCount int32

	start := make(chan struct{})
	var wg sync.WaitGroup
	const callers = 8
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			val, err, shared := g.Do("live/7", func() (any, error) {
				atomic.AddInt32(&executions, 1)
				time.Sleep(100 * time.Millisecond)
				return "payload", nil
			})
			if err != nil {
				t.Errorf("Do returned error: %v", err)
			}
			if val != "payload" {
				t.Errorf("Do returned %v, want payload", val)
			}
			if shared {
				atomic.AddInt32(&sharedCount, 1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&executions); got != 1 {
		t.Fatalf("fn executed %d times, want 1", got)
	}
	if got := atomic.LoadInt32(&sharedCount); got != callers-1 {
		t.Fatalf("%d callers saw a shared result, want %d", got, callers-1)
	}
}

func TestSingleFlight_ErrorSharedWithWaiters(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	fetchErr := errors.New("provider unavailable")

	_, err, shared := g.Do("bootstrap", func() (any, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("Do error = %v, want %v", err, fetchErr)
	}
	if shared {
		t.Fatal("lone caller reported a shared result")
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	t.Parallel()

	var g SingleFlight
	var executions int32

	for _, key := range []string{"live/1", "live/2", "live/1"} {
		_, err, _ := g.Do(key, func() (any, error) {
			atomic.AddInt32(&executions, 1)
			return nil, nil
		})
		if err != nil {
			t.Fatalf("Do(%q) returned error: %v", key, err)
		}
	}

	// Sequential calls never overlap, so each runs its own fn.
	if got := atomic.LoadInt32(&executions); got != 3 {
		t.Fatalf("fn executed %d times, want 3", got)
	}
}
