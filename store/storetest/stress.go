// Package storetest provides functions for facilitating the testing of
// anything implementing the store.Store interface.
package storetest

import (
	"bytes"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/ndlib/fragments/store"
)

// Conformance runs the behaviour every Store implementation must share
// against s. The store should be empty when passed in.
func Conformance(t *testing.T, s store.Store) {
	t.Helper()

	// missing keys
	if _, _, err := s.Open("qwerty"); !store.IsNotExist(err) {
		t.Errorf("Open missing key: received %v, expected ErrNotExist", err)
	}
	if err := s.Delete("qwerty"); err != nil {
		t.Errorf("Delete missing key: received %s", err.Error())
	}

	// create and read back
	put(t, s, "abc001", "hello world")
	put(t, s, "abc002", "")
	put(t, s, "xyz001", "goodbye")
	expect(t, s, "abc001", "hello world")
	expect(t, s, "abc002", "")

	// items are immutable
	if _, err := s.Create("abc001"); err != store.ErrKeyExists {
		t.Errorf("Create existing key: received %v, expected ErrKeyExists", err)
	}

	// replace
	if err := store.Replace(s, "abc001", []byte("second version")); err != nil {
		t.Fatalf("Replace: %s", err.Error())
	}
	expect(t, s, "abc001", "second version")

	keys, err := s.ListPrefix("abc")
	if err != nil {
		t.Fatalf("ListPrefix: %s", err.Error())
	}
	sort.Strings(keys)
	if fmt.Sprint(keys) != "[abc001 abc002]" {
		t.Errorf("ListPrefix(abc) = %v", keys)
	}
	var all []string
	for k := range s.List() {
		all = append(all, k)
	}
	sort.Strings(all)
	if fmt.Sprint(all) != "[abc001 abc002 xyz001]" {
		t.Errorf("List() = %v", all)
	}

	for _, k := range []string{"abc001", "abc002", "xyz001"} {
		if err := s.Delete(k); err != nil {
			t.Errorf("Delete(%s): %s", k, err.Error())
		}
		if _, _, err := s.Open(k); !store.IsNotExist(err) {
			t.Errorf("Open(%s) after delete: received %v", k, err)
		}
	}
}

// Stress will spawn a given number of goroutines which each repeatedly
// write, read back, and delete their own keys in s. It is a good test to run
// with the -race flag to look for race conditions.
func Stress(t *testing.T, s store.Store, workers int, rounds int) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(n)))
			for j := 0; j < rounds; j++ {
				key := fmt.Sprintf("stress%03d-%04d", n, j)
				data := make([]byte, r.Intn(4096))
				r.Read(data)
				if err := store.Replace(s, key, data); err != nil {
					t.Errorf("Replace(%s): %s", key, err.Error())
					return
				}
				got, err := store.ReadAll(s, key)
				if err != nil {
					t.Errorf("ReadAll(%s): %s", key, err.Error())
					return
				}
				if !bytes.Equal(got, data) {
					t.Errorf("ReadAll(%s): content mismatch", key)
				}
				if err := s.Delete(key); err != nil {
					t.Errorf("Delete(%s): %s", key, err.Error())
				}
			}
		}(i)
	}
	wg.Wait()
}

func put(t *testing.T, s store.Store, key, data string) {
	t.Helper()
	w, err := s.Create(key)
	if err != nil {
		t.Fatalf("Create(%s): %s", key, err.Error())
	}
	if _, err = w.Write([]byte(data)); err != nil {
		t.Fatalf("Write(%s): %s", key, err.Error())
	}
	if err = w.Close(); err != nil {
		t.Fatalf("Close(%s): %s", key, err.Error())
	}
}

func expect(t *testing.T, s store.Store, key, data string) {
	t.Helper()
	got, err := store.ReadAll(s, key)
	if err != nil {
		t.Errorf("ReadAll(%s): %s", key, err.Error())
		return
	}
	if string(got) != data {
		t.Errorf("ReadAll(%s) = %q, expected %q", key, got, data)
	}
}
