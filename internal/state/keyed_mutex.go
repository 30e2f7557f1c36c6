package state

import "sync"

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and drops it once nobody holds or
// waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
	return k.releaser(key, m)
}

// tryLock acquires key only if nobody holds or waits on it.
func (k *keyedMutex) tryLock(key string) (func(), bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, busy := k.locks[key]; busy {
		return nil, false
	}
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m := &refMutex{refs: 1}
	m.mu.Lock()
	k.locks[key] = m
	return k.releaser(key, m), true
}

func (k *keyedMutex) releaser(key string, m *refMutex) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Unlock()

			k.mu.Lock()
			m.refs--
			if m.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
