// Package memory provides an in-process points store used when no chain
// backend is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
)

type key struct {
	gameweek int
	playerID uint64
}

// Store keeps recorded point totals in a mutex-guarded map. Reads of
// unrecorded keys return zero, matching the chain backend's default value
// semantics.
type Store struct {
	mu     sync.RWMutex
	points map[key]uint32
}

func NewStore() *Store {
	return &Store{
		points: make(map[key]uint32, 256),
	}
}

func (s *Store) GetPoints(ctx context.Context, gameweek int, playerID uint64) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if gameweek <= 0 {
		return 0, fmt.Errorf("gameweek must be greater than zero")
	}
	if playerID == 0 {
		return 0, fmt.Errorf("player id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points[key{gameweek: gameweek, playerID: playerID}], nil
}

func (s *Store) SetPointsBatch(ctx context.Context, gameweek int, playerIDs []uint64, values []uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if gameweek <= 0 {
		return fmt.Errorf("gameweek must be greater than zero")
	}
	if len(playerIDs) == 0 {
		return fmt.Errorf("batch must not be empty")
	}
	if len(playerIDs) != len(values) {
		return fmt.Errorf("batch length mismatch: %d player ids, %d values", len(playerIDs), len(values))
	}
	for _, playerID := range playerIDs {
		if playerID == 0 {
			return fmt.Errorf("player id is required")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, playerID := range playerIDs {
		s.points[key{gameweek: gameweek, playerID: playerID}] = values[i]
	}
	return nil
}
