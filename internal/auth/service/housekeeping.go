package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/revocation"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// KeyPurger deletes persisted keys past their grace window.
// *store.KeyStoreAdapter and *jwtx.MemoryKeyStore implement it.
type KeyPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// HousekeepingService periodically cleans up expired records to prevent
// unbounded growth of refresh_tokens, revocations and signing_keys.
type HousekeepingService struct {
	Store       store.Store
	Revocations revocation.List
	KeyStore    KeyPurger
	KeyManager  *jwtx.KeyManager
	Logger      *slog.Logger
	Interval    time.Duration
	Now         func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	s store.Store,
	revocations revocation.List,
	keyStore KeyPurger,
	km *jwtx.KeyManager,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:       s,
		Revocations: revocations,
		KeyStore:    keyStore,
		KeyManager:  km,
		Logger:      logger,
		Interval:    interval,
		Now:         time.Now,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// CleanupReport counts what one cleanup pass removed.
type CleanupReport struct {
	RefreshTokens int64 `json:"refresh_tokens"`
	Revocations   int64 `json:"revocations"`
	SigningKeys   int64 `json:"signing_keys"`
	Failures      int   `json:"failures"`
}

// Total is the number of rows deleted.
func (r CleanupReport) Total() int64 {
	return r.RefreshTokens + r.Revocations + r.SigningKeys
}

// Cleanup performs the actual deletion of expired records.
// Each deletion is independent - failures in one won't stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) CleanupReport {
	now := s.Now()
	s.Logger.Info("starting housekeeping cleanup")

	var report CleanupReport

	if n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
		report.Failures++
	} else {
		s.Logger.Debug("deleted expired refresh tokens", "count", n)
		report.RefreshTokens = n
	}

	if n, err := s.Revocations.Purge(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired revocations", "error", err)
		report.Failures++
	} else {
		s.Logger.Debug("deleted expired revocations", "count", n)
		report.Revocations = n
	}

	if s.KeyStore != nil {
		if n, err := s.KeyStore.PurgeExpired(ctx, now); err != nil {
			s.Logger.Error("failed to delete expired signing keys", "error", err)
			report.Failures++
		} else {
			s.Logger.Debug("deleted expired signing keys", "count", n)
			report.SigningKeys = n
		}
	}

	if s.KeyManager != nil {
		if n := s.KeyManager.Purge(); n > 0 {
			s.Logger.Debug("dropped expired keys from key set", "count", n)
		}
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", report.Total(), "failures", report.Failures)
	return report
}
