package points

import "context"

// Reader checks durably recorded point totals. A zero value means "not yet
// recorded".
type Reader interface {
	GetPoints(ctx context.Context, gameweek int, playerID uint64) (uint32, error)
}

// Writer records point totals for a batch of players in one atomic call;
// there is no partial-batch commit.
type Writer interface {
	SetPointsBatch(ctx context.Context, gameweek int, playerIDs []uint64, values []uint32) error
}

// Store is the persistent points store keyed by (gameweek, player id).
type Store interface {
	Reader
	Writer
}
