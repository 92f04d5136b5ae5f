// Package worker delivers queued newsletter broadcasts to customer inboxes.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/repository"
)

// Worker polls for pending newsletter broadcasts and fans each one out into a
// per-user inbox copy for every approved customer.
type Worker struct {
	repos        *repository.Repositories
	pollInterval time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// Config holds worker configuration.
type Config struct {
	PollInterval time.Duration
}

// New creates a new worker.
func New(repos *repository.Repositories, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		repos:        repos,
		pollInterval: cfg.PollInterval,
		stop:         make(chan struct{}),
		logger:       logger.With("component", "newsletter-worker"),
	}
}

// Start begins processing broadcasts.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting", "poll_interval", w.pollInterval)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping")
	close(w.stop)
	w.wg.Wait()
	w.logger.Info("stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessNext(ctx)
		}
	}
}

// ProcessNext claims and delivers at most one pending broadcast. It is
// exported so a broadcast can also be flushed on demand.
func (w *Worker) ProcessNext(ctx context.Context) {
	broadcast, err := w.repos.Message.ClaimPendingNewsletter(ctx)
	if err != nil {
		w.logger.Error("failed to claim broadcast", "error", err)
		return
	}
	if broadcast == nil {
		return
	}

	w.logger.Info("delivering broadcast", "message_id", broadcast.ID, "subject", broadcast.Subject)

	recipients, err := w.repos.User.ListApproved(ctx)
	if err != nil {
		w.logger.Error("failed to list recipients", "message_id", broadcast.ID, "error", err)
		return
	}

	now := time.Now()
	delivered := 0
	for _, user := range recipients {
		userID := user.ID
		copyMsg := &models.Message{
			UserID:   &userID,
			Subject:  broadcast.Subject,
			Body:     broadcast.Body,
			Kind:     models.MessageNewsletter,
			Status:   models.MessageSent,
			OriginID: &broadcast.ID,
			SentAt:   &now,
		}
		if err := w.repos.Message.Create(ctx, copyMsg); err != nil {
			w.logger.Error("failed to deliver copy",
				"message_id", broadcast.ID, "user_id", user.ID, "error", err)
			continue
		}
		delivered++
	}

	if err := w.repos.Message.MarkSent(ctx, broadcast.ID, now); err != nil {
		w.logger.Error("failed to mark broadcast sent", "message_id", broadcast.ID, "error", err)
		return
	}

	w.logger.Info("broadcast delivered",
		"message_id", broadcast.ID, "recipients", len(recipients), "delivered", delivered)
}
