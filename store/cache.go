package store

// Remote stores need to remember which keys exist so they do not issue a
// HEAD request for every Open and Create.

import (
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// head is the structure stored in a sizecache.
type head struct {
	expire time.Time
	size   int64 // 0 = unknown, negative = doesn't exist
}

// A sizecache remembers the size or non-existence of a remote object.
// Entries expire after some amount of time. Items not existing
// expire quicker than items with a positive size.
type sizecache struct {
	clock     clock.Clock
	m         sync.Mutex      // protects everything below
	cache     map[string]head // cache for item sizes
	sweeptime time.Time       // next time to age everything
}

const (
	// sizeDeleted marks a key as missing. Any negative number would work.
	sizeDeleted int64 = -1

	defaultMissTTL = 10 * time.Minute
	defaultHitTTL  = 24 * time.Hour
)

func newSizeCache() *sizecache {
	return &sizecache{
		clock: clock.New(),
		cache: make(map[string]head),
	}
}

// Get returns the size associated with key. If key is not cached, or has
// expired, the fill function is called to find it. A missing key gives an
// error wrapping ErrNotExist.
func (s *sizecache) Get(key string, fill func(key string) (int64, error)) (int64, error) {
	s.m.Lock()
	defer s.m.Unlock()
	now := s.clock.Now()
	if now.After(s.sweeptime) {
		s.age(now)
	}
	entry, ok := s.cache[key]
	if ok && now.Before(entry.expire) {
		if entry.size > 0 {
			return entry.size, nil
		}
		if entry.size < 0 {
			return 0, fmt.Errorf("%s: %w", key, ErrNotExist)
		}
	}
	if fill == nil {
		return 0, nil
	}
	size, err := fill(key)
	if err == nil || IsNotExist(err) {
		s.set0(key, size, now)
	}
	return size, err
}

// Set caches a size to use for the given key.
// Use sizeDeleted to mark the key as missing.
func (s *sizecache) Set(key string, size int64) {
	s.m.Lock()
	s.set0(key, size, s.clock.Now())
	s.m.Unlock()
}

// set0 is just like Set but assumes caller already holds s.m
func (s *sizecache) set0(key string, size int64, now time.Time) {
	ttl := defaultHitTTL
	switch {
	case size < 0:
		ttl = defaultMissTTL
	case size == 0:
		// zero length items are not distinguished from unknown ones
		delete(s.cache, key)
		return
	}
	s.cache[key] = head{expire: now.Add(ttl), size: size}
}

// age removes the expired entries. Caller must hold s.m.
func (s *sizecache) age(now time.Time) {
	s.sweeptime = now.Add(time.Hour)
	for k, v := range s.cache {
		if now.After(v.expire) {
			delete(s.cache, k)
		}
	}
}
