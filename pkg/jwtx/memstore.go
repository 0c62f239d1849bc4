package jwtx

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryKeyStore is an in-process KeyStore. Keys are lost on restart, so
// every token becomes invalid when the service restarts.
type MemoryKeyStore struct {
	mu      sync.Mutex
	records []SigningKeyRecord
}

// NewMemoryKeyStore returns an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{}
}

func (m *MemoryKeyStore) LoadSigningKeys(_ context.Context) ([]SigningKeyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SigningKeyRecord, 0, len(m.records))
	for _, r := range m.records {
		if r.State != KeyRevoked {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryKeyStore) SaveRotation(_ context.Context, next SigningKeyRecord, retiredAt, verifyUntil time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].State == KeyActive {
			m.records[i].State = KeyRetired
			m.records[i].RetiredAt = &retiredAt
			m.records[i].VerifyUntil = &verifyUntil
		}
	}
	m.records = append(m.records, next)
	return nil
}

func (m *MemoryKeyStore) RevokeSigningKey(_ context.Context, kid string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.records, func(r SigningKeyRecord) bool { return r.Kid == kid })
	if i < 0 {
		return ErrNoKey
	}
	m.records[i].State = KeyRevoked
	return nil
}

// PurgeExpired deletes retired keys whose grace window ended before now.
func (m *MemoryKeyStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.records)
	m.records = slices.DeleteFunc(m.records, func(r SigningKeyRecord) bool {
		return r.State != KeyActive && r.VerifyUntil != nil && !now.Before(*r.VerifyUntil)
	})
	return int64(before - len(m.records)), nil
}
