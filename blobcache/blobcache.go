// Package blobcache implements a simple cache of converted fragment data. It
// is backed by a store, so it can be entirely in memory or disk-backed.
//
// While the cached contents are kept in the store, the list recording usage
// information is kept only in memory. On startup the items in the store are
// enumerated and taken to populate the cache list in an undetermined order.
//
// The cache uses an LRU item replacement policy.
package blobcache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/ndlib/fragments/store"
)

// Cache is the interface shared by the caches in this package. A miss is
// not an error.
type Cache interface {
	Contains(key string) bool
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}

// T is an LRU cache keeping its items in a store.Store.
type T struct {
	// this is the place where cached items are stored
	s store.Store

	m sync.Mutex // protects everything below

	// total size used to store items in cache
	size int64

	maxSize int64 // The maximum amount of space we may use

	// front of list is MRU, tail is LRU.
	lru   *list.List
	index map[string]*list.Element
}

var _ Cache = &T{}

type entry struct {
	key  string
	size int64
}

var (
	// ErrCacheFull means an item is larger than the whole cache.
	ErrCacheFull = errors.New("Cache is full and no more items can be removed")
)

// NewLRU creates and initializes a new cache structure. The given store
// may already have items in it. Call Scan() either inline or in a goroutine
// to add the items inside it to the LRU list.
func NewLRU(s store.Store, maxSize int64) *T {
	return &T{
		s:       s,
		maxSize: maxSize,
		lru:     list.New(),
		index:   make(map[string]*list.Element),
	}
}

// Scan enumerates the items in the store and adds them to the cache. Items
// not fitting are deleted. Blocks until it is completely finished.
func (t *T) Scan() {
	for key := range t.s.List() {
		if t.Contains(key) {
			continue
		}
		rc, size, err := t.s.Open(key)
		if err != nil {
			continue
		}
		rc.Close()
		t.m.Lock()
		err = t.reserve(size)
		if err == nil {
			t.link(key, size)
		}
		t.m.Unlock()
		if err != nil {
			t.s.Delete(key)
		}
	}
}

// Contains returns true if the given item is in the cache. It does not
// update the LRU status.
func (t *T) Contains(key string) bool {
	t.m.Lock()
	defer t.m.Unlock()
	return t.index[key] != nil
}

// Size returns the number of bytes in the cache.
func (t *T) Size() int64 {
	t.m.Lock()
	defer t.m.Unlock()
	return t.size
}

// Get returns the content of the given item and marks it as most recently
// used. The second result is false if the item is not in the cache.
func (t *T) Get(key string) ([]byte, bool) {
	t.m.Lock()
	e := t.index[key]
	if e != nil {
		t.lru.MoveToFront(e)
	}
	t.m.Unlock()
	if e == nil {
		return nil, false
	}
	data, err := store.ReadAll(t.s, key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put saves data in the cache under key, evicting items as needed. Putting
// a key already in the cache does nothing.
func (t *T) Put(key string, data []byte) error {
	size := int64(len(data))
	t.m.Lock()
	if t.index[key] != nil {
		t.m.Unlock()
		return nil
	}
	err := t.reserve(size)
	t.m.Unlock()
	if err != nil {
		return err
	}
	err = store.Replace(t.s, key, data)
	t.m.Lock()
	defer t.m.Unlock()
	if err != nil || t.index[key] != nil {
		// failed, or someone else added it in the meantime
		t.size -= size
		return err
	}
	t.link(key, size)
	return nil
}

// link adds an entry to the front of the LRU list. Caller holds t.m.
func (t *T) link(key string, size int64) {
	t.index[key] = t.lru.PushFront(entry{key: key, size: size})
}

// reserve space for size bytes, evicting items if necessary to stay
// under maxSize. Nothing is reserved if there is an error. Caller holds t.m.
func (t *T) reserve(size int64) error {
	if size > t.maxSize {
		return ErrCacheFull
	}
	t.size += size
	for t.size > t.maxSize {
		// LRU eviction
		e := t.lru.Back()
		if e == nil {
			t.size -= size
			return ErrCacheFull
		}
		ent := t.lru.Remove(e).(entry)
		delete(t.index, ent.key)
		t.size -= ent.size
		if err := t.s.Delete(ent.key); err != nil {
			t.size -= size
			return err
		}
	}
	return nil
}
