// internal/txlock/table.go
package txlock

// table holds the lock state: one live lock per key, with reverse indexes by
// lock id and by owner. It is not safe for concurrent use; the Service's
// mutex guards every access.
type table struct {
	byKey   map[Key]*Lock
	byID    map[string]*Lock
	byOwner map[string]map[string]*Lock // ownerID -> lockID -> lock
}

func newTable() *table {
	return &table{
		byKey:   make(map[Key]*Lock),
		byID:    make(map[string]*Lock),
		byOwner: make(map[string]map[string]*Lock),
	}
}

func (t *table) get(key Key) *Lock {
	return t.byKey[key]
}

func (t *table) getByID(lockID string) *Lock {
	return t.byID[lockID]
}

func (t *table) insert(lock *Lock) {
	t.byKey[lock.key()] = lock
	t.byID[lock.ID] = lock

	owned := t.byOwner[lock.OwnerID]
	if owned == nil {
		owned = make(map[string]*Lock)
		t.byOwner[lock.OwnerID] = owned
	}
	owned[lock.ID] = lock
}

// remove deletes the lock from all three indexes.
func (t *table) remove(lock *Lock) {
	delete(t.byKey, lock.key())
	delete(t.byID, lock.ID)

	if owned := t.byOwner[lock.OwnerID]; owned != nil {
		delete(owned, lock.ID)
		if len(owned) == 0 {
			delete(t.byOwner, lock.OwnerID)
		}
	}
}

func (t *table) ownerLocks(ownerID string) []*Lock {
	owned := t.byOwner[ownerID]
	if len(owned) == 0 {
		return nil
	}
	locks := make([]*Lock, 0, len(owned))
	for _, lock := range owned {
		locks = append(locks, lock)
	}
	return locks
}

func (t *table) all() []*Lock {
	locks := make([]*Lock, 0, len(t.byID))
	for _, lock := range t.byID {
		locks = append(locks, lock)
	}
	return locks
}

func (t *table) len() int {
	return len(t.byID)
}
