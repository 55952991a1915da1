package blobcache

import (
	"fmt"
	"testing"

	"github.com/ndlib/fragments/store"
)

func TestEviction(t *testing.T) {
	cache := NewLRU(store.NewMemory(), 100)
	// "hello world" is 11 bytes. so 10 should cause a cache eviction
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("hello-%d", i)
		if err := cache.Put(key, []byte("hello world")); err != nil {
			t.Fatalf("received %s", err.Error())
		}
	}

	// the oldest item is the one evicted
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("hello-%d", i)
		data, ok := cache.Get(key)
		if ok != (i != 0) {
			t.Errorf("Get(%s) hit = %v", key, ok)
		}
		if ok && string(data) != "hello world" {
			t.Errorf("Get(%s) = %q", key, data)
		}
	}
	if cache.Size() != 99 {
		t.Errorf("Size() = %d, expected 99", cache.Size())
	}
}

func TestLRUOrder(t *testing.T) {
	cache := NewLRU(store.NewMemory(), 30)
	cache.Put("a", []byte("0123456789"))
	cache.Put("b", []byte("0123456789"))
	cache.Put("c", []byte("0123456789"))
	// touch a, so b is now the least recently used
	cache.Get("a")
	cache.Put("d", []byte("0123456789"))
	var table = []struct {
		key      string
		contains bool
	}{
		{"a", true},
		{"b", false},
		{"c", true},
		{"d", true},
	}
	for _, test := range table {
		if cache.Contains(test.key) != test.contains {
			t.Errorf("Contains(%s) != %v", test.key, test.contains)
		}
	}
}

func TestTooLargeItem(t *testing.T) {
	cache := NewLRU(store.NewMemory(), 100)
	cache.Put("small", []byte("hello"))
	err := cache.Put("qwerty", make([]byte, 101))
	if err != ErrCacheFull {
		t.Errorf("Put of large item = %v, expected ErrCacheFull", err)
	}
	if cache.Contains("qwerty") || !cache.Contains("small") {
		t.Errorf("large item changed the cache")
	}
	if cache.Size() != 5 {
		t.Errorf("Size() = %d, expected 5", cache.Size())
	}
}

func TestScan(t *testing.T) {
	s := store.NewMemory()
	store.Replace(s, "one", []byte("12345"))
	store.Replace(s, "two", []byte("1234567890"))
	store.Replace(s, "big", make([]byte, 50))
	cache := NewLRU(s, 20)
	cache.Scan()
	if !cache.Contains("one") || !cache.Contains("two") || cache.Contains("big") {
		t.Errorf("Scan did not load the expected items")
	}
	if _, _, err := s.Open("big"); !store.IsNotExist(err) {
		t.Errorf("Scan did not remove the oversized item")
	}
	if cache.Size() != 15 {
		t.Errorf("Size() = %d, expected 15", cache.Size())
	}
}

func TestEmptyCache(t *testing.T) {
	var c Cache = EmptyCache{}
	c.Put("a", []byte("x"))
	if _, ok := c.Get("a"); ok || c.Contains("a") {
		t.Errorf("EmptyCache returned a hit")
	}
}
