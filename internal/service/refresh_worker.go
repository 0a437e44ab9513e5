package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRefreshSchedule reloads open sessions every 15 minutes
const DefaultRefreshSchedule = "@every 15m"

// RefreshWorker periodically reloads every open dashboard session from the
// remote store and reconciles it, bounding how long drift can be displayed
type RefreshWorker struct {
	sessions *SessionManager
	logger   zerolog.Logger
	schedule string
	cron     *cron.Cron
	entryID  cron.EntryID
	mu       sync.Mutex
	running  bool
}

// RefreshResult summarizes one refresh pass
type RefreshResult struct {
	Sessions int
	Errors   int
}

// NewRefreshWorker creates a new refresh worker for a cron schedule
func NewRefreshWorker(sessions *SessionManager, logger zerolog.Logger, schedule string) *RefreshWorker {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	return &RefreshWorker{
		sessions: sessions,
		logger:   logger.With().Str("component", "refresh_worker").Logger(),
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the refresh job and starts the scheduler
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	id, err := w.cron.AddFunc(w.schedule, func() {
		w.RefreshAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", w.schedule, err)
	}
	w.entryID = id
	w.cron.Start()
	w.running = true

	w.logger.Info().Str("schedule", w.schedule).Msg("Starting refresh worker")
	return nil
}

// Stop gracefully stops the worker and waits for a running pass to finish
func (w *RefreshWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cron.Remove(w.entryID)
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping refresh worker")
	<-w.cron.Stop().Done()
	w.logger.Info().Msg("Refresh worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RefreshAll reloads and reconciles every open session
func (w *RefreshWorker) RefreshAll(ctx context.Context) RefreshResult {
	startTime := time.Now()
	sessions := w.sessions.Sessions()
	result := RefreshResult{Sessions: len(sessions)}

	for _, state := range sessions {
		if ctx.Err() != nil {
			w.logger.Info().Msg("Context cancelled, stopping refresh")
			break
		}
		if err := RefreshSession(ctx, state); err != nil {
			if errors.Is(err, domain.ErrSessionClosed) {
				continue
			}
			result.Errors++
			w.logger.Error().
				Err(err).
				Int32("workspace_id", state.WorkspaceID()).
				Msg("Failed to refresh dashboard session")
		}
	}

	w.logger.Info().
		Int("sessions", result.Sessions).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed dashboard refresh")
	return result
}

// RefreshSession reloads one session from the remote store and reconciles it
func RefreshSession(ctx context.Context, state *DashboardState) error {
	if err := state.Initialize(ctx); err != nil {
		return err
	}
	_, err := state.Reconcile(ctx)
	return err
}
