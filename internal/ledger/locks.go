package ledger

import (
	"sync"
)

// keyedMutex serializes the mutating operations per listing id. Operations
// on distinct ids proceed in parallel; reads never take these locks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*listingLock
}

type listingLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*listingLock)}
}

func (k *keyedMutex) lock(id int64) {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &listingLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

func (k *keyedMutex) unlock(id int64) {
	k.mu.Lock()
	l := k.locks[id]
	l.refs--
	if l.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}
