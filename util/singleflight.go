package util

import (
	"sync"
)

// A Flight makes sure only one goroutine at a time computes the value of a
// given key. Goroutines asking for a key while it is being computed wait for
// and share the result. The zero value is ready to use.
type Flight struct {
	mu       sync.Mutex              // controls everything below
	inflight map[string]*flightEntry // requests in progress
}

type flightEntry struct {
	wg     sync.WaitGroup
	result []byte
	err    error
}

// Do returns the result of calling fn, or of the call to fn already in
// progress for key.
func (s *Flight) Do(key string, fn func() ([]byte, error)) ([]byte, error) {
	s.mu.Lock()
	if r, ok := s.inflight[key]; ok {
		// item is already being worked on
		s.mu.Unlock()
		r.wg.Wait()
		return r.result, r.err
	}
	r := &flightEntry{}
	r.wg.Add(1)
	if s.inflight == nil {
		s.inflight = make(map[string]*flightEntry)
	}
	s.inflight[key] = r
	s.mu.Unlock()
	defer func() {
		r.wg.Done()
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()

	r.result, r.err = fn()
	return r.result, r.err
}
