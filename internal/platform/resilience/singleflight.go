package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution whose result every waiter shares. Used to keep a burst of
// identical provider fetches from fanning out into duplicate requests.
type SingleFlight struct {
	mu      sync.Mutex
	pending map[string]*flightResult
}

type flightResult struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key at a time. The boolean reports whether the result
// was shared from another caller's in-flight execution.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	g.mu.Lock()
	if g.pending == nil {
		g.pending = make(map[string]*flightResult)
	}
	if r, ok := g.pending[key]; ok {
		g.mu.Unlock()
		<-r.done
		return r.val, r.err, true
	}

	r := &flightResult{done: make(chan struct{})}
	g.pending[key] = r
	g.mu.Unlock()

	r.val, r.err = fn()
	close(r.done)

	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()

	return r.val, r.err, false
}
