package flow

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// instanceLock serializes routing and state writes per instance. Two
// instances never contend; operations within one instance do. Entries
// are reference counted and dropped once the last holder unlocks, so
// the map never accumulates instances that are done.
type instanceLock struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newInstanceLock() *instanceLock {
	return &instanceLock{
		locks: make(map[string]*lockEntry),
	}
}

func (l *instanceLock) Lock(instanceId string) {
	l.mu.Lock()
	e, ok := l.locks[instanceId]
	if !ok {
		e = &lockEntry{}
		l.locks[instanceId] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
}

func (l *instanceLock) Unlock(instanceId string) {
	l.mu.Lock()
	e := l.locks[instanceId]
	if e == nil {
		l.mu.Unlock()
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.locks, instanceId)
	}
	l.mu.Unlock()
	e.mu.Unlock()
}
