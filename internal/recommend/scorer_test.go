package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/PirrosBell/BidHub/internal/db"
	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

func TestRecommendNotTrained(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	alice := createUser(t, database, "alice")

	// No rec index yet.
	if _, err := Recommend(ctx, database, dir, alice.ID); !errors.Is(err, ErrNotTrained) {
		t.Errorf("expected ErrNotTrained for an unindexed user, got %v", err)
	}

	// Indexed, but no matrices on disk.
	store.SetRecIndexes(ctx, database, map[int64]int64{alice.ID: 0}, nil)
	if _, err := Recommend(ctx, database, dir, alice.ID); !errors.Is(err, ErrNotTrained) {
		t.Errorf("expected ErrNotTrained without persisted matrices, got %v", err)
	}
}

func TestRecommendStaleIndex(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	alice := createUser(t, database, "alice")
	// The persisted matrix predates this user: index beyond its rows.
	store.SetRecIndexes(ctx, database, map[int64]int64{alice.ID: 5}, nil)
	SaveMatrices(dir, NewMatrix(2, 2), NewMatrix(2, 2))

	if _, err := Recommend(ctx, database, dir, alice.ID); !errors.Is(err, ErrNotTrained) {
		t.Errorf("expected ErrNotTrained for a stale index, got %v", err)
	}
}

func TestRecommendOrdering(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	seller := createUser(t, database, "seller")
	alice := createUser(t, database, "alice")

	weak := createItem(t, database, seller.ID, "Weak", model.ItemStatusActive)
	strong := createItem(t, database, seller.ID, "Strong", model.ItemStatusActive)
	middle := createItem(t, database, seller.ID, "Middle", model.ItemStatusActive)
	unseen := createItem(t, database, seller.ID, "Unseen", model.ItemStatusActive)
	own := createItem(t, database, alice.ID, "Own", model.ItemStatusActive)
	closed := createItem(t, database, seller.ID, "Closed", model.ItemStatusSold)

	// Hand-built factors: alice's vector picks out the first component, so
	// the score is just each item's first factor value. "Unseen" gets no
	// index, as if created after the last training run.
	store.SetRecIndexes(ctx, database,
		map[int64]int64{alice.ID: 0},
		map[int64]int64{weak.ID: 0, strong.ID: 1, middle.ID: 2, own.ID: 3, closed.ID: 4},
	)

	users := NewMatrix(1, 2)
	users.Data = []float64{1, 0}
	items := NewMatrix(5, 2)
	items.Data = []float64{
		0.2, 9, // weak
		0.9, 9, // strong
		0.5, 9, // middle
		7.0, 9, // own: highest score, but alice is selling it
		8.0, 9, // closed: not active
	}
	if err := SaveMatrices(dir, users, items); err != nil {
		t.Fatalf("SaveMatrices: %v", err)
	}

	ranked, err := Recommend(ctx, database, dir, alice.ID)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	want := []int64{strong.ID, middle.ID, weak.ID}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(ranked))
	}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Errorf("position %d: expected item %d, got %d (%s)", i, id, ranked[i].ID, ranked[i].Name)
		}
	}
	for _, item := range ranked {
		if item.ID == own.ID || item.ID == closed.ID || item.ID == unseen.ID {
			t.Errorf("expected item %d (%s) to be excluded", item.ID, item.Name)
		}
	}
}
