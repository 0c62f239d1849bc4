package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// KeyInfo describes a verification key for the admin API.
type KeyInfo struct {
	Kid         string     `json:"kid"`
	Algorithm   string     `json:"alg"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	VerifyUntil *time.Time `json:"verify_until,omitempty"`
}

// KeyRotationService exposes manual key management on top of the
// KeyManager. Scheduled rotation is done by RotationScheduler.
type KeyRotationService struct {
	KeyManager *jwtx.KeyManager
	Now        func() time.Time
}

func NewKeyRotationService(km *jwtx.KeyManager, now func() time.Time) *KeyRotationService {
	if now == nil {
		now = time.Now
	}
	return &KeyRotationService{KeyManager: km, Now: now}
}

// RotateKey forces a rotation and returns the new active key.
func (s *KeyRotationService) RotateKey(ctx context.Context) (KeyInfo, error) {
	if err := s.KeyManager.Rotate(ctx); err != nil {
		return KeyInfo{}, err
	}

	keys := s.ListKeys()
	slogx.FromContext(ctx).Info("signing key rotated", slog.String("kid", keys[0].Kid), slog.String("trigger", "manual"))
	return keys[0], nil
}

// ListKeys returns the keys that currently verify, active first.
func (s *KeyRotationService) ListKeys() []KeyInfo {
	keys := s.KeyManager.VerificationKeys().Keys(s.Now())
	out := make([]KeyInfo, 0, len(keys))
	for _, k := range keys {
		info := KeyInfo{
			Kid:       k.Kid,
			Algorithm: k.Algorithm,
			State:     string(k.State),
			CreatedAt: k.CreatedAt,
		}
		if !k.VerifyUntil.IsZero() {
			until := k.VerifyUntil
			info.VerifyUntil = &until
		}
		out = append(out, info)
	}
	return out
}

// RevokeKey takes a retired key out of verification immediately. Tokens
// it signed stop verifying at once.
func (s *KeyRotationService) RevokeKey(ctx context.Context, kid string) error {
	if err := s.KeyManager.RevokeKey(ctx, kid); err != nil {
		return err
	}
	slogx.FromContext(ctx).Warn("signing key revoked", slog.String("kid", kid))
	return nil
}
