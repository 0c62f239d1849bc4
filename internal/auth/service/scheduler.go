package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
)

// RotationScheduler rotates the signing key once it reaches the rotation
// interval. A failed attempt is logged and retried on the next tick while
// the current key stays in service.
type RotationScheduler struct {
	KeyManager *jwtx.KeyManager
	Logger     *slog.Logger
	Interval   time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRotationScheduler checks for due rotations every interval. If
// interval is 0 or negative it defaults to a sixtieth of the rotation
// interval, clamped to [1m, 1h].
func NewRotationScheduler(km *jwtx.KeyManager, logger *slog.Logger, interval time.Duration) *RotationScheduler {
	if interval <= 0 {
		interval = min(max(km.RotationInterval()/60, time.Minute), time.Hour)
	}

	return &RotationScheduler{
		KeyManager: km,
		Logger:     logger,
		Interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *RotationScheduler) Start() {
	go s.run()
	s.Logger.Info("key rotation scheduler started",
		"check_interval", s.Interval,
		"rotation_interval", s.KeyManager.RotationInterval(),
	)
}

// Stop blocks until an in-progress rotation has finished.
func (s *RotationScheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("key rotation scheduler stopped")
}

func (s *RotationScheduler) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Tick picks up rotations made by other instances, then rotates if due.
func (s *RotationScheduler) Tick(ctx context.Context) {
	if err := s.KeyManager.Reload(ctx); err != nil {
		s.Logger.Error("failed to reload signing keys", "error", err)
	}

	rotated, err := s.KeyManager.RotateIfDue(ctx)
	if err != nil {
		s.Logger.Error("scheduled key rotation failed, keeping current key", "error", err)
		return
	}
	if rotated {
		signer, _ := s.KeyManager.CurrentSigner()
		if signer != nil {
			s.Logger.Info("signing key rotated", "kid", signer.KID(), "trigger", "schedule")
		}
	}
}
