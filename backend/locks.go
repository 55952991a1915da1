package backend

import "sync"

// KeyLocks implements Locker with one sync.RWMutex per key. Entries are
// reference counted and removed once nobody holds or waits on them, so the
// map only grows with the number of keys in use. The zero value is ready to
// use.
type KeyLocks struct {
	m     sync.Mutex
	locks map[lockKey]*keyLock
}

type lockKey struct {
	owner string
	id    string
}

type keyLock struct {
	sync.RWMutex
	refs int // protected by KeyLocks.m
}

var _ Locker = &KeyLocks{}

// Lock acquires the write lock for (owner, id).
func (kl *KeyLocks) Lock(owner, id string) func() {
	k := lockKey{owner, id}
	l := kl.acquire(k)
	l.Lock()
	return func() {
		l.Unlock()
		kl.release(k, l)
	}
}

// RLock acquires the read lock for (owner, id).
func (kl *KeyLocks) RLock(owner, id string) func() {
	k := lockKey{owner, id}
	l := kl.acquire(k)
	l.RLock()
	return func() {
		l.RUnlock()
		kl.release(k, l)
	}
}

func (kl *KeyLocks) acquire(k lockKey) *keyLock {
	kl.m.Lock()
	defer kl.m.Unlock()
	if kl.locks == nil {
		kl.locks = make(map[lockKey]*keyLock)
	}
	l := kl.locks[k]
	if l == nil {
		l = &keyLock{}
		kl.locks[k] = l
	}
	l.refs++
	return l
}

func (kl *KeyLocks) release(k lockKey, l *keyLock) {
	kl.m.Lock()
	l.refs--
	if l.refs == 0 {
		delete(kl.locks, k)
	}
	kl.m.Unlock()
}

// held returns the number of keys currently in the table.
func (kl *KeyLocks) held() int {
	kl.m.Lock()
	defer kl.m.Unlock()
	return len(kl.locks)
}
