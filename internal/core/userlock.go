package core

import "sync"

// userLocks serializes lifecycle operations per user. Deploy performs a
// read-then-create sequence that is not atomic, so concurrent calls for the
// same user must queue rather than race.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[string]*sync.Mutex{}}
}

// Lock acquires the mutex for userID and returns its release func.
func (l *userLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
