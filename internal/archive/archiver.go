package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/config"
	"github.com/mr1hm/go-community-alerts/internal/models"
	"github.com/mr1hm/go-community-alerts/internal/repository"
	"github.com/mr1hm/go-community-alerts/internal/worker"
)

// Archiver mirrors every alert on the board into the repository so history
// can be paged without holding the store lock.
type Archiver struct {
	cfg         *config.Config
	store       *board.Store
	repo        repository.AlertRepository
	pool        *worker.Pool[models.Alert]
	unsubscribe func()
	mu          sync.Mutex
}

func NewArchiver(cfg *config.Config, store *board.Store, repo repository.AlertRepository) *Archiver {
	return &Archiver{
		cfg:   cfg,
		store: store,
		repo:  repo,
	}
}

func (a *Archiver) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pool = worker.NewPool("archive", a.cfg.Worker.Count, a.cfg.Worker.BufferSize, a.process)
	a.pool.Start(ctx)

	a.unsubscribe = a.store.Subscribe(func(ev board.Event) {
		if ev.Kind != board.EventAlertAdded || ev.Alert == nil {
			return
		}
		a.submit(*ev.Alert)
	})

	// Backfill whatever was on the board before we subscribed
	backfill := a.store.Alerts()
	for _, alert := range backfill {
		a.submit(alert)
	}

	slog.Info("archiver started", "workers", a.cfg.Worker.Count, "backfill", len(backfill))
}

func (a *Archiver) submit(alert models.Alert) {
	if err := a.pool.Submit(alert); err != nil {
		slog.Warn("alert not archived", "id", alert.ID, "error", err)
	}
}

func (a *Archiver) process(ctx context.Context, alert models.Alert) error {
	exists, err := a.repo.Exists(ctx, alert.ID)
	if err != nil {
		return fmt.Errorf("error checking existence of %s: %w", alert.ID, err)
	}
	if exists {
		return nil
	}

	if err := a.repo.AddAlert(ctx, &alert); err != nil {
		// Backfill and the live subscription can race on the same id
		if ok, _ := a.repo.Exists(ctx, alert.ID); ok {
			return nil
		}
		return err
	}

	slog.Debug("archived alert", "id", alert.ID, "category", alert.Category)
	return nil
}

// History pages through archived alerts.
func (a *Archiver) History(ctx context.Context, opts repository.Filter) ([]models.Alert, error) {
	return a.repo.ListAlerts(ctx, opts)
}

// Stop detaches from the store and waits for queued alerts to be written.
func (a *Archiver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.pool != nil {
		a.pool.Stop()
	}
	slog.Info("archiver stopped")
}
