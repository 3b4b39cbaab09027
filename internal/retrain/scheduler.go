// Package retrain runs the training pipeline on a schedule and publishes
// the resulting artifact, hot-swapping it into the prediction service.
// A failed run is reported and changes nothing; the previously active
// artifact stays in force.
package retrain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pennywise-app/pennywise/internal/artifact"
	"github.com/pennywise-app/pennywise/internal/model"
	"github.com/pennywise-app/pennywise/internal/service"
)

// Trainer fits a model from labeled transactions.
type Trainer interface {
	Train(ctx context.Context, records []model.Transaction) (*artifact.Artifact, error)
}

// Publisher persists an artifact and makes it the active version.
type Publisher interface {
	Publish(a *artifact.Artifact) (string, error)
}

// Reloader is notified after a successful publish so the serving path
// picks up the new version without a restart.
type Reloader interface {
	Reload() error
}

// Scheduler periodically retrains the model from the transaction store.
type Scheduler struct {
	storage   service.Storage
	trainer   Trainer
	publisher Publisher
	reloader  Reloader
	interval  time.Duration
	mu        sync.Mutex
}

// NewScheduler creates a retraining scheduler. A nil reloader is valid
// when no long-lived prediction service is attached.
func NewScheduler(storage service.Storage, trainer Trainer, publisher Publisher, reloader Reloader, interval time.Duration) *Scheduler {
	return &Scheduler{
		storage:   storage,
		trainer:   trainer,
		publisher: publisher,
		reloader:  reloader,
		interval:  interval,
	}
}

// Run retrains immediately and then on every interval tick until the
// context is canceled. Individual run failures are logged and do not stop
// the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("retrain interval must be positive, got %v", s.interval)
	}

	slog.Info("Retraining scheduler started", "interval", s.interval)

	if err := s.RunOnce(ctx); err != nil {
		slog.Error("Retraining run failed, previous model remains active", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Retraining scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				slog.Error("Retraining run failed, previous model remains active", "error", err)
			}
		}
	}
}

// RunOnce executes a single train-and-publish cycle. Runs are serialized;
// if one overlapped anyway, the publish step itself is still atomic.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	records, err := s.storage.GetTrainingData(ctx)
	if err != nil {
		return fmt.Errorf("failed to read training data: %w", err)
	}

	a, err := s.trainer.Train(ctx, records)
	if err != nil {
		return err
	}

	version, err := s.publisher.Publish(a)
	if err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}

	if s.reloader != nil {
		if err := s.reloader.Reload(); err != nil {
			return fmt.Errorf("published %s but failed to hot-swap it: %w", version, err)
		}
	}

	slog.Info("Retraining run complete",
		"version", version,
		"samples", a.Stats.Samples,
		"duration", time.Since(start))
	return nil
}
