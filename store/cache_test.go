package store

import (
	"errors"
	"testing"
	"time"

	"github.com/facebookgo/clock"
)

func TestSizeCache(t *testing.T) {
	mock := clock.NewMock()
	c := newSizeCache()
	c.clock = mock

	var calls int
	fill := func(key string) (int64, error) {
		calls++
		switch key {
		case "present":
			return 100, nil
		case "broken":
			return 0, errors.New("network down")
		}
		return sizeDeleted, ErrNotExist
	}

	var table = []struct {
		key   string
		size  int64
		err   bool
		calls int
	}{
		{"present", 100, false, 1},
		{"present", 100, false, 1}, // cached
		{"missing", sizeDeleted, true, 2},
		{"missing", 0, true, 2}, // cached miss
		{"broken", 0, true, 3},
		{"broken", 0, true, 4}, // errors are not cached
	}
	for _, test := range table {
		size, err := c.Get(test.key, fill)
		if size != test.size || (err != nil) != test.err || calls != test.calls {
			t.Errorf("Get(%s) = (%d, %v) after %d calls, expected (%d, err=%v) after %d",
				test.key, size, err, calls, test.size, test.err, test.calls)
		}
	}

	// misses expire before hits do
	mock.Add(defaultMissTTL + time.Minute)
	c.Get("missing", fill)
	c.Get("present", fill)
	if calls != 5 {
		t.Errorf("Expected 5 fill calls, got %d", calls)
	}

	c.Set("present", sizeDeleted)
	if _, err := c.Get("present", nil); !IsNotExist(err) {
		t.Errorf("Get(present) after Set deleted = %v", err)
	}
	c.Set("empty", 0)
	if size, err := c.Get("empty", nil); size != 0 || err != nil {
		t.Errorf("Get(empty) = (%d, %v)", size, err)
	}
}
