package session

import "sync"

// Locker serializes read-modify-write cycles against a single session.
// Without it two tabs racing to mutate the same cart silently drop one
// of the writes; the store itself is last-write-wins.
type Locker struct {
	mu sync.Mutex
	m  map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewLocker() *Locker {
	return &Locker{m: make(map[string]*entry)}
}

// Lock blocks until the session lock is held and returns the unlock
// function. Entries are dropped once the last holder releases.
func (l *Locker) Lock(sid string) func() {
	l.mu.Lock()
	e, ok := l.m[sid]
	if !ok {
		e = &entry{}
		l.m[sid] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, sid)
		}
		l.mu.Unlock()
	}
}
