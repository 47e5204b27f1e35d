// Package worker removes expired report files, both on request through the
// queue and on a periodic sweep.
package worker

import (
	"context"
	"time"

	"memberreports/internal/logger"
	"memberreports/internal/metrics"
	"memberreports/internal/queue"
)

// Ledger is the part of the ledger the worker drives.
type Ledger interface {
	Purge(ctx context.Context, fileID string) (bool, error)
	Sweep(ctx context.Context) (int, error)
}

// Worker consumes purge requests and sweeps on an interval.
type Worker struct {
	queue    queue.Queue
	ledger   Ledger
	metrics  *metrics.Reports
	interval time.Duration
}

// New creates a worker. A non-positive interval defaults to one hour.
func New(q queue.Queue, l Ledger, m *metrics.Reports, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Worker{queue: q, ledger: l, metrics: m, interval: interval}
}

// Run sweeps once, then processes messages and ticks until ctx ends.
func (w *Worker) Run(ctx context.Context) error {
	messages, err := w.queue.Consume(ctx)
	if err != nil {
		return err
	}
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	logger.Info("worker started", "sweep_interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			w.Handle(ctx, msg)
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Handle processes one queue message. Unknown types are ignored.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) {
	if msg.Type != queue.TypePurge {
		logger.Debug("ignoring message", "type", msg.Type)
		return
	}
	id := string(msg.Body)
	purged, err := w.ledger.Purge(ctx, id)
	if err != nil {
		logger.Warn("purge failed", "file_id", id, "err", err)
		return
	}
	if purged {
		w.metrics.PurgedTotal.Inc()
		logger.Info("expired file purged", "file_id", id)
	}
}

func (w *Worker) sweep(ctx context.Context) {
	n, err := w.ledger.Sweep(ctx)
	if err != nil {
		logger.Warn("sweep failed", "err", err)
	}
	w.metrics.PurgedTotal.Add(float64(n))
}
