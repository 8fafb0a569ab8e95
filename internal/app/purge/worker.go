package purge

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"onchan/internal/app/image"
	"onchan/internal/providers/storage"
)

// Worker is the single background task reconciling the removal queue with
// the file store: rows whose database image died get their files deleted
// here, never inline with a request.
type Worker struct {
	queue    image.QueueRepository
	store    storage.FileStore
	interval time.Duration
	logger   *zap.SugaredLogger
}

func NewWorker(queue image.QueueRepository, store storage.FileStore, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		queue:    queue,
		store:    store,
		interval: interval,
		logger:   logger.Sugar(),
	}
}

// Run polls the queue until ctx is cancelled. One bad file never aborts a
// drain cycle.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Infow("Purge worker started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Purge worker stopped")
			return
		case <-ticker.C:
			w.Drain()
		}
	}
}

// Drain claims the queued rows, removes each file, then releases the ids
// whose removal settled: purged files and files already gone. A row whose
// backend errored stays queued and is retried next cycle. Rows enqueued
// while the drain runs keep their place.
func (w *Worker) Drain() {
	entries, err := w.queue.Claim()
	if err != nil {
		w.logger.Errorw("Failed to read removal queue", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	released := make([]uint64, 0, len(entries))
	purged := 0
	for _, entry := range entries {
		err := w.store.Remove(entry.Path)
		switch {
		case err == nil:
			purged++
			released = append(released, entry.ID)
			w.logger.Debugw("Purged file", "path", entry.Path)
		case errors.Is(err, fs.ErrNotExist):
			released = append(released, entry.ID)
			w.logger.Warnw("File not found for removal, skipping", "path", entry.Path)
		default:
			w.logger.Errorw("Failed to remove file, will retry", "path", entry.Path, "error", err)
		}
	}

	if len(released) == 0 {
		return
	}
	if err := w.queue.Release(released); err != nil {
		w.logger.Errorw("Failed to release removal queue entries", "error", err)
		return
	}

	w.logger.Infow("Drain cycle complete", "claimed", len(entries), "purged", purged)
}
