// Package scheduler drives the auction lifecycle without external triggers.
// Three independently scheduled sweeps re-arm themselves after completing, so
// a slow sweep can never overlap its own next run.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/PirrosBell/BidHub/internal/auction"
	"github.com/PirrosBell/BidHub/internal/recommend"
	"github.com/PirrosBell/BidHub/internal/store"
)

// Default sweep intervals.
const (
	DefaultSweepInterval = time.Minute
	DefaultTrainInterval = time.Hour
)

// Scheduler owns the periodic publish, close and recommendation sweeps.
// Construct with New, then Start/Stop. Starting twice is a no-op while
// running; Stop cancels the pending timers and waits for in-flight sweeps.
type Scheduler struct {
	db      *sql.DB
	dataDir string

	sweepEvery time.Duration
	trainEvery time.Duration

	mu      sync.Mutex
	running bool
	timers  []*time.Timer
	wg      sync.WaitGroup
}

// Option adjusts a Scheduler.
type Option func(*Scheduler)

// WithSweepInterval overrides the close/publish sweep interval.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.sweepEvery = d }
}

// WithTrainInterval overrides the recommendation training interval.
func WithTrainInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.trainEvery = d }
}

// New creates a scheduler. dataDir is where the recommendation sweep persists
// its factor matrices.
func New(db *sql.DB, dataDir string, opts ...Option) *Scheduler {
	s := &Scheduler{
		db:         db,
		dataDir:    dataDir,
		sweepEvery: DefaultSweepInterval,
		trainEvery: DefaultTrainInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms all three sweeps. Idempotent while running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	s.arm(s.sweepEvery, s.CloseSweep)
	s.arm(s.sweepEvery, s.PublishSweep)
	s.arm(s.trainEvery, s.TrainSweep)

	slog.Info("scheduler started",
		"sweep_interval", s.sweepEvery, "train_interval", s.trainEvery)
}

// Stop cancels the pending timers, marks the scheduler inactive so in-flight
// re-arm checks decline to reschedule, and waits for running sweeps to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("scheduler stopped")
}

// Running reports whether the scheduler is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// arm schedules one sweep execution after d. The sweep re-arms its own timer
// with Reset on completion, unless the scheduler stopped in the meantime, so
// each sweep owns exactly one timer for the scheduler's lifetime. Callers
// must hold s.mu.
func (s *Scheduler) arm(d time.Duration, sweep func(context.Context)) {
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		sweep(context.Background())

		s.mu.Lock()
		if s.running {
			timer.Reset(d)
		}
		s.mu.Unlock()
	})
	s.timers = append(s.timers, timer)
}

// CloseSweep closes every active item whose end time has passed. A failure on
// one item is logged and does not abort the sweep for the rest.
func (s *Scheduler) CloseSweep(ctx context.Context) {
	items, err := store.ListItemsDueForClose(ctx, s.db, time.Now())
	if err != nil {
		slog.Error("close sweep query failed", "error", err)
		return
	}
	for _, item := range items {
		if _, err := auction.Close(ctx, s.db, item.ID); err != nil {
			slog.Error("close sweep: closing item failed", "item", item.ID, "error", err)
		}
	}
	if len(items) > 0 {
		slog.Info("close sweep finished", "items", len(items))
	}
}

// PublishSweep publishes every pending item whose scheduled start has passed.
func (s *Scheduler) PublishSweep(ctx context.Context) {
	items, err := store.ListItemsDueForPublish(ctx, s.db, time.Now())
	if err != nil {
		slog.Error("publish sweep query failed", "error", err)
		return
	}
	for _, item := range items {
		if _, err := auction.Publish(ctx, s.db, item.ID); err != nil {
			slog.Error("publish sweep: publishing item failed", "item", item.ID, "error", err)
		}
	}
	if len(items) > 0 {
		slog.Info("publish sweep finished", "items", len(items))
	}
}

// TrainSweep runs the full recommendation training job. Training failures do
// not affect the other sweeps; previously persisted matrices stay in place.
func (s *Scheduler) TrainSweep(ctx context.Context) {
	result, err := recommend.Train(ctx, s.db, s.dataDir, recommend.DefaultTrainOptions())
	switch {
	case errors.Is(err, recommend.ErrNoTrainingData):
		slog.Info("recommendation sweep skipped, no interaction data")
	case errors.Is(err, recommend.ErrNumericDivergence):
		slog.Warn("recommendation training diverged, keeping previous matrices")
	case err != nil:
		slog.Error("recommendation sweep failed", "error", err)
	default:
		slog.Info("recommendation sweep finished",
			"users", result.Users, "items", result.Items,
			"epochs", result.Epochs, "rmse", result.ValidationRMSE)
	}
}
