package services

import (
	"sync"
	"time"
)

// roomLocks serializes the conflict-check-then-persist sequence per room so
// that two racing creates cannot both pass the availability scan. Rooms are
// independent: operations on different rooms never wait on each other.
type roomLocks struct {
	mu    sync.Mutex
	locks map[uint]chan struct{}
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[uint]chan struct{})}
}

// acquire enters the room's critical section, waiting at most timeout.
// It returns false when the section stayed contended for the whole wait.
func (r *roomLocks) acquire(roomID uint, timeout time.Duration) bool {
	r.mu.Lock()
	ch, ok := r.locks[roomID]
	if !ok {
		ch = make(chan struct{}, 1)
		r.locks[roomID] = ch
	}
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (r *roomLocks) release(roomID uint) {
	r.mu.Lock()
	ch := r.locks[roomID]
	r.mu.Unlock()
	if ch != nil {
		<-ch
	}
}
