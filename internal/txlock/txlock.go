// internal/txlock/txlock.go

// Package txlock provides an in-process, per-key, TTL-based mutual exclusion
// service used to keep state-changing admission workflow steps single-flight
// across browser tabs and retried requests. Locks live in memory only; a
// multi-node deployment gets single-flight per node.
package txlock

import (
	"time"
)

// Transaction types guarded by the service.
const (
	TypeSectionSave    = "section-save"
	TypePayment        = "payment"
	TypePaymentConfirm = "payment-confirm"
	TypeFinalize       = "finalize"
)

// Key identifies what a lock protects. TransactionID may be empty, meaning a
// global lock for the owner and type.
type Key struct {
	OwnerID         string
	TransactionType string
	TransactionID   string
}

// Lock is a live hold on a Key. ClientContext is stored for auditing but
// never exposed through LockInfo.
type Lock struct {
	ID              string
	OwnerID         string
	TransactionType string
	TransactionID   string
	TabID           string
	ClientContext   string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

func (l *Lock) key() Key {
	return Key{
		OwnerID:         l.OwnerID,
		TransactionType: l.TransactionType,
		TransactionID:   l.TransactionID,
	}
}

func (l *Lock) expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// LockInfo is the externally visible view of a lock. It carries enough
// metadata for a caller to render "in progress elsewhere", without the
// holder's client context.
type LockInfo struct {
	LockID          string    `json:"lock_id"`
	OwnerID         string    `json:"owner_id"`
	TransactionType string    `json:"transaction_type"`
	TransactionID   string    `json:"transaction_id,omitempty"`
	TabID           string    `json:"tab_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func (l *Lock) info() *LockInfo {
	return &LockInfo{
		LockID:          l.ID,
		OwnerID:         l.OwnerID,
		TransactionType: l.TransactionType,
		TransactionID:   l.TransactionID,
		TabID:           l.TabID,
		CreatedAt:       l.CreatedAt,
		ExpiresAt:       l.ExpiresAt,
	}
}

// AcquireRequest describes an acquisition attempt. TabID lets the same
// browser tab refresh its own hold; ClientContext is free-form (user agent).
type AcquireRequest struct {
	OwnerID         string
	TransactionType string
	TransactionID   string
	TabID           string
	ClientContext   string
}

// AcquireResult reports the outcome of an acquisition attempt. On denial,
// Conflict describes the lock currently holding the key.
type AcquireResult struct {
	Granted  bool      `json:"granted"`
	LockID   string    `json:"lock_id,omitempty"`
	Conflict *LockInfo `json:"conflict,omitempty"`
}
