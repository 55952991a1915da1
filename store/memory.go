package store

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Memory implements a simple in-memory version of a store. It is intended
// mainly for testing. Keys are listed in the order they were created.
type Memory struct {
	m     sync.RWMutex
	store map[string]*buf
	keys  []string // insertion order
}

var (
	// ensure Memory satisfies the Store interface
	_ Store = &Memory{}
)

// NewMemory returns a new, empty memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string]*buf)}
}

// List returns a channel giving the id for every item in the store.
// The keys are copied before the channel is returned, so the listing is a
// snapshot and holds no lock while it is being consumed.
func (ms *Memory) List() <-chan string {
	ms.m.RLock()
	keys := make([]string, len(ms.keys))
	copy(keys, ms.keys)
	ms.m.RUnlock()

	c := make(chan string)
	go func() {
		for _, k := range keys {
			c <- k
		}
		close(c)
	}()
	return c
}

// ListPrefix returns all the key entries which begin with the given prefix.
func (ms *Memory) ListPrefix(prefix string) ([]string, error) {
	var result []string
	ms.m.RLock()
	for _, k := range ms.keys {
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	ms.m.RUnlock()
	return result, nil
}

// Open returns a ReadAtCloser and the size of the given blob.
func (ms *Memory) Open(key string) (ReadAtCloser, int64, error) {
	ms.m.RLock()
	v, ok := ms.store[key]
	ms.m.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("No item %s: %w", key, ErrNotExist)
	}
	v.m.RLock()
	return v, int64(len(v.b)), nil
}

// Need to support a RWMutex instead of a Mutex, since a payload may be
// opened more than once for reading at the same time.
// Because the same Close() is used in both cases, we need a flag to
// remember which unlock method to use.
type buf struct {
	m       sync.RWMutex
	iswrite bool
	b       []byte
}

func (r *buf) Close() error {
	if r.iswrite {
		r.iswrite = false
		r.m.Unlock()
	} else {
		r.m.RUnlock()
	}
	return nil
}

func (r *buf) ReadAt(p []byte, off int64) (int, error) {
	if int(off) >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[off:])
	return n, nil
}

func (r *buf) Write(p []byte) (int, error) {
	r.b = append(r.b, p...)
	return len(p), nil
}

// Create makes a new entry in the store, and returns a writer to save data
// into it. It is an error to create a key which already exists.
func (ms *Memory) Create(key string) (io.WriteCloser, error) {
	r := &buf{}
	r.m.Lock()
	r.iswrite = true
	ms.m.Lock()
	defer ms.m.Unlock()
	if _, ok := ms.store[key]; ok {
		return nil, ErrKeyExists
	}
	ms.store[key] = r
	ms.keys = append(ms.keys, key)
	return r, nil
}

// Delete the given key from the store. It is not an error if the item does
// not exist in the store.
func (ms *Memory) Delete(key string) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	if _, ok := ms.store[key]; !ok {
		return nil
	}
	delete(ms.store, key)
	for i, k := range ms.keys {
		if k == key {
			ms.keys = append(ms.keys[:i], ms.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Dump writes a listing of the contents of the store to the given writer.
// This is intended for testing and debugging.
func (ms *Memory) Dump(w io.Writer) {
	ms.m.RLock()
	for _, k := range ms.keys {
		s := ms.store[k].b
		if len(s) > 300 {
			s = s[:50]
		}
		fmt.Fprintf(w, "%s: %s\n", k, string(s))
	}
	ms.m.RUnlock()
}
