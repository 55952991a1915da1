package util

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFlightShares(t *testing.T) {
	var f Flight
	var calls int64
	release := make(chan struct{})
	fn := func() ([]byte, error) {
		atomic.AddInt64(&calls, 1)
		<-release
		return []byte("result"), nil
	}
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := f.Do("key", fn)
			if err != nil || string(data) != "result" {
				t.Errorf("Do = (%q, %v)", data, err)
			}
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	if calls != 1 {
		t.Errorf("fn called %d times, expected 1", calls)
	}

	// once finished, a key is computed again
	f.Do("key", fn)
	if calls != 2 {
		t.Errorf("fn called %d times, expected 2", calls)
	}
}
