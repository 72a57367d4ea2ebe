package scheduler

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/PirrosBell/BidHub/internal/db"
	"github.com/PirrosBell/BidHub/internal/model"
	"github.com/PirrosBell/BidHub/internal/store"
)

func createUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), database, username, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestCloseSweep(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createUser(t, database, "seller")

	ends := time.Now().Add(time.Hour)
	due, _ := store.CreateItem(ctx, database, seller.ID, "Due", "", 10.0, nil, nil, ends)
	running, _ := store.CreateItem(ctx, database, seller.ID, "Running", "", 10.0, nil, nil, ends)
	database.Exec(`UPDATE items SET status = 'active' WHERE id IN (?, ?)`, due.ID, running.ID)
	database.Exec(`UPDATE items SET ends = ? WHERE id = ?`, time.Now().UTC().Add(-time.Minute), due.ID)

	s := New(database, t.TempDir())
	s.CloseSweep(ctx)

	closed, _ := store.GetItem(ctx, database, due.ID)
	if closed.Status != model.ItemStatusExpired {
		t.Errorf("expected due item expired, got %q", closed.Status)
	}
	untouched, _ := store.GetItem(ctx, database, running.ID)
	if untouched.Status != model.ItemStatusActive {
		t.Errorf("expected running item untouched, got %q", untouched.Status)
	}
}

func TestCloseSweepContinuesPastFailures(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createUser(t, database, "seller")

	past := time.Now().UTC().Add(-time.Minute)
	first, _ := store.CreateItem(ctx, database, seller.ID, "First", "", 10.0, nil, nil, past)
	second, _ := store.CreateItem(ctx, database, seller.ID, "Second", "", 10.0, nil, nil, past)
	database.Exec(`UPDATE items SET status = 'active' WHERE id IN (?, ?)`, first.ID, second.ID)

	// Sabotage the first close by flipping its status between the sweep's
	// list query and the close itself: the conditional update matches zero
	// rows, the close fails, the sweep must still settle the second item.
	database.Exec(`UPDATE items SET status = 'cancelled' WHERE id = ?`, first.ID)

	s := New(database, t.TempDir())
	s.CloseSweep(ctx)

	got, _ := store.GetItem(ctx, database, second.ID)
	if got.Status != model.ItemStatusExpired {
		t.Errorf("expected second item settled despite first failing, got %q", got.Status)
	}
}

func TestPublishSweep(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createUser(t, database, "seller")

	starts := time.Now().Add(-time.Minute)
	ends := time.Now().Add(time.Hour)
	scheduled, _ := store.CreateItem(ctx, database, seller.ID, "Scheduled", "", 10.0, nil, &starts, ends)
	draft, _ := store.CreateItem(ctx, database, seller.ID, "Draft", "", 10.0, nil, nil, ends)

	s := New(database, t.TempDir())
	s.PublishSweep(ctx)

	published, _ := store.GetItem(ctx, database, scheduled.ID)
	if published.Status != model.ItemStatusActive {
		t.Errorf("expected scheduled item published, got %q", published.Status)
	}
	pending, _ := store.GetItem(ctx, database, draft.ID)
	if pending.Status != model.ItemStatusPending {
		t.Errorf("expected draft without start time untouched, got %q", pending.Status)
	}
}

func TestTrainSweepNoData(t *testing.T) {
	database := db.NewTestDB(t)

	// No interactions at all: the sweep must be a quiet no-op.
	s := New(database, t.TempDir())
	s.TrainSweep(context.Background())
}

func TestStartStop(t *testing.T) {
	database := db.NewTestDB(t)

	s := New(database, t.TempDir(),
		WithSweepInterval(10*time.Millisecond),
		WithTrainInterval(time.Hour))

	s.Start()
	if !s.Running() {
		t.Fatal("expected scheduler to report running")
	}
	s.Start() // idempotent

	// Let at least one sweep cycle fire and re-arm.
	time.Sleep(50 * time.Millisecond)

	s.Stop()
	if s.Running() {
		t.Fatal("expected scheduler to report stopped")
	}
	s.Stop() // idempotent

	// No timer may fire after Stop returns; restart still works.
	s.Start()
	if !s.Running() {
		t.Fatal("expected scheduler to restart")
	}
	s.Stop()
}

func TestReArmReusesTimers(t *testing.T) {
	database := db.NewTestDB(t)

	s := New(database, t.TempDir(),
		WithSweepInterval(5*time.Millisecond),
		WithTrainInterval(5*time.Millisecond))

	s.Start()
	// Many re-arm cycles; the sweeps must keep resetting their own timers
	// instead of allocating new ones.
	time.Sleep(100 * time.Millisecond)

	s.mu.Lock()
	n := len(s.timers)
	s.mu.Unlock()
	if n != 3 {
		t.Errorf("expected one timer per sweep, got %d", n)
	}

	s.Stop()
}

func TestSweepClosesScheduledLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	seller := createUser(t, database, "seller")

	// Scheduled in the past, already over: one publish sweep and one close
	// sweep walk it through active to expired.
	starts := time.Now().Add(-2 * time.Hour)
	ends := time.Now().Add(-time.Hour)
	item, _ := store.CreateItem(ctx, database, seller.ID, "Whole Life", "", 10.0, nil, &starts, ends)

	s := New(database, t.TempDir())
	s.PublishSweep(ctx)
	s.CloseSweep(ctx)

	got, _ := store.GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusExpired {
		t.Errorf("expected item to finish expired, got %q", got.Status)
	}
}
