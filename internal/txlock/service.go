// internal/txlock/service.go
package txlock

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Service manages transaction locks. A single mutex guards the whole table;
// every operation is a short in-memory read-modify-write, so coarse locking
// is cheaper than per-key locks at the expected key cardinality.
type Service struct {
	mu    sync.Mutex
	table *table
	ttl   time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewService creates a lock service and starts its expiry sweeper. Callers
// own the lifecycle and must Close the service on shutdown.
func NewService(ttl, sweepInterval time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	s := &Service{
		table: newTable(),
		ttl:   ttl,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go s.runSweeper(sweepInterval)

	return s
}

// Close stops the sweeper. The table itself needs no teardown.
func (s *Service) Close() {
	close(s.stop)
	<-s.done
}

// Acquire attempts to take the lock for the request's key. First committer
// wins; a repeat acquire from the tab currently holding the key is treated
// as a renewal and extends the hold. Expired entries count as absent.
func (s *Service) Acquire(req AcquireRequest) AcquireResult {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key{OwnerID: req.OwnerID, TransactionType: req.TransactionType, TransactionID: req.TransactionID}

	if existing := s.table.get(key); existing != nil {
		if existing.expired(now) {
			s.table.remove(existing)
		} else if req.TabID != "" && existing.TabID == req.TabID {
			// Same tab refreshing its own hold.
			existing.ExpiresAt = now.Add(s.ttl)
			return AcquireResult{Granted: true, LockID: existing.ID}
		} else {
			return AcquireResult{Granted: false, Conflict: existing.info()}
		}
	}

	lock := &Lock{
		ID:              uuid.New().String(),
		OwnerID:         req.OwnerID,
		TransactionType: req.TransactionType,
		TransactionID:   req.TransactionID,
		TabID:           req.TabID,
		ClientContext:   req.ClientContext,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}
	s.table.insert(lock)

	return AcquireResult{Granted: true, LockID: lock.ID}
}

// Release removes the lock for the key. When lockID is given, the stored
// lock must carry the same id and owner; a mismatch is a no-op so one owner
// cannot release another's hold even with a guessed key.
func (s *Service) Release(ownerID, transactionType, transactionID, lockID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lock *Lock
	if lockID != "" {
		lock = s.table.getByID(lockID)
		if lock == nil || lock.OwnerID != ownerID {
			return false
		}
	} else {
		lock = s.table.get(Key{OwnerID: ownerID, TransactionType: transactionType, TransactionID: transactionID})
		if lock == nil {
			return false
		}
	}

	s.table.remove(lock)
	return true
}

// Extend pushes the lock's expiry a full TTL forward from now. Fails if the
// lock is missing, expired, or held by a different owner.
func (s *Service) Extend(ownerID, transactionType, transactionID, lockID string) bool {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var lock *Lock
	if lockID != "" {
		lock = s.table.getByID(lockID)
	} else {
		lock = s.table.get(Key{OwnerID: ownerID, TransactionType: transactionType, TransactionID: transactionID})
	}

	if lock == nil || lock.OwnerID != ownerID {
		return false
	}
	if lock.expired(now) {
		s.table.remove(lock)
		return false
	}

	lock.ExpiresAt = now.Add(s.ttl)
	return true
}

// IsLocked reports whether a live lock holds the key. An expired entry is
// purged on sight and reported as absent.
func (s *Service) IsLocked(ownerID, transactionType, transactionID string) bool {
	return s.GetLockInfo(ownerID, transactionType, transactionID) != nil
}

// GetLockInfo returns the live lock for the key, or nil.
func (s *Service) GetLockInfo(ownerID, transactionType, transactionID string) *LockInfo {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	lock := s.table.get(Key{OwnerID: ownerID, TransactionType: transactionType, TransactionID: transactionID})
	if lock == nil {
		return nil
	}
	if lock.expired(now) {
		s.table.remove(lock)
		return nil
	}

	return lock.info()
}

// ForceReleaseOwnerLocks removes every lock the owner holds. Administrative
// recovery only; the router must keep it behind admin auth.
func (s *Service) ForceReleaseOwnerLocks(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	locks := s.table.ownerLocks(ownerID)
	for _, lock := range locks {
		s.table.remove(lock)
	}

	if len(locks) > 0 {
		logrus.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"released": len(locks),
		}).Warn("Force released transaction locks")
	}

	return len(locks)
}

func (s *Service) runSweeper(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep removes every expired lock, keeping all three indexes consistent.
func (s *Service) sweep() {
	now := time.Now()

	s.mu.Lock()
	var reclaimed int
	for _, lock := range s.table.all() {
		if lock.expired(now) {
			s.table.remove(lock)
			reclaimed++
		}
	}
	remaining := s.table.len()
	s.mu.Unlock()

	if reclaimed > 0 {
		logrus.WithFields(logrus.Fields{
			"reclaimed": reclaimed,
			"remaining": remaining,
		}).Debug("Swept expired transaction locks")
	}
}
