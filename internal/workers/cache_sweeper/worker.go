package cache_sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/domain/services/responsecache"
)

const sweepTimeout = 2 * time.Minute

// Sweeper is the part of the response cache the worker drives
type Sweeper interface {
	ClearAll(ctx context.Context) (responsecache.SweepResult, error)
}

// Worker periodically removes stale and search entries from the response cache
type Worker struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewWorker creates a sweeper worker. An empty schedule disables periodic runs.
func NewWorker(sweeper Sweeper, schedule string, logger *zap.Logger) *Worker {
	return &Worker{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

func (w *Worker) Start() error {
	if w.schedule == "" {
		w.logger.Info("Cache sweeper disabled")
		return nil
	}

	_, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error("Failed to sweep bridge cache", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	w.logger.Info("Cache sweeper worker started", zap.String("schedule", w.schedule))
	return nil
}

// RunOnce sweeps immediately
func (w *Worker) RunOnce(ctx context.Context) (responsecache.SweepResult, error) {
	return w.sweeper.ClearAll(ctx)
}

// Shutdown stops the schedule, waits for a running sweep and does a final sweep
func (w *Worker) Shutdown(timeout time.Duration) error {
	<-w.cron.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := w.RunOnce(ctx)

	w.logger.Info("Cache sweeper worker stopped")
	return err
}
