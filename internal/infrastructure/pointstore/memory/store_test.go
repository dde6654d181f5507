package memory

import (
	"context"
	"testing"
)

func TestStore_UnrecordedKeysReadZero(t *testing.T) {
	t.Parallel()

	store := NewStore()
	got, err := store.GetPoints(context.Background(), 1, 42)
	if err != nil {
		t.Fatalf("GetPoints returned error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected zero for unrecorded key, got %d", got)
	}
}

func TestStore_SetPointsBatchRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	if err := store.SetPointsBatch(ctx, 3, []uint64{1, 2, 3}, []uint32{13, 0, 7}); err != nil {
		t.Fatalf("SetPointsBatch returned error: %v", err)
	}

	cases := map[uint64]uint32{1: 13, 2: 0, 3: 7}
	for playerID, want := range cases {
		got, err := store.GetPoints(ctx, 3, playerID)
		if err != nil {
			t.Fatalf("GetPoints player=%d: %v", playerID, err)
		}
		if got != want {
			t.Fatalf("player %d: expected %d points, got %d", playerID, want, got)
		}
	}

	// Same player in another gameweek stays untouched.
	got, err := store.GetPoints(ctx, 4, 1)
	if err != nil {
		t.Fatalf("GetPoints: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected zero for other gameweek, got %d", got)
	}
}

func TestStore_SetPointsBatchValidation(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	if err := store.SetPointsBatch(ctx, 0, []uint64{1}, []uint32{1}); err == nil {
		t.Fatal("expected error for gameweek 0")
	}
	if err := store.SetPointsBatch(ctx, 1, nil, nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
	if err := store.SetPointsBatch(ctx, 1, []uint64{1, 2}, []uint32{1}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if err := store.SetPointsBatch(ctx, 1, []uint64{0}, []uint32{1}); err == nil {
		t.Fatal("expected error for zero player id")
	}
}
