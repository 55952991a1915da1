// Package backendtest checks that a backend.Backend behaves the way the
// fragment layer expects.
package backendtest

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ndlib/fragments/backend"
)

// Conformance runs the shared backend checks against b, which should be
// empty.
func Conformance(t *testing.T, b backend.Backend) {
	t.Helper()
	metadata(t, b)
	data(t, b)
	ordering(t, b)
	locking(t, b)
}

func record(owner, id string, size int64) backend.Record {
	return backend.Record{
		ID:      id,
		OwnerID: owner,
		Created: "2021-03-04T05:06:07.000Z",
		Updated: "2021-03-04T05:06:07.000Z",
		Type:    "text/plain",
		Size:    size,
	}
}

func metadata(t *testing.T, b backend.Backend) {
	if _, err := b.GetMetadata("alice", "nope"); !backend.IsNotExist(err) {
		t.Errorf("GetMetadata missing: received %v", err)
	}
	if err := b.DeleteMetadata("alice", "nope"); !backend.IsNotExist(err) {
		t.Errorf("DeleteMetadata missing: received %v", err)
	}
	list, err := b.ListMetadata("alice")
	if err != nil || list == nil || len(list) != 0 {
		t.Errorf("ListMetadata empty owner = (%v, %v), expected empty list", list, err)
	}

	r := record("alice", "m1", 5)
	if err := b.PutMetadata(r); err != nil {
		t.Fatalf("PutMetadata: %s", err.Error())
	}
	got, err := b.GetMetadata("alice", "m1")
	if err != nil || got != r {
		t.Errorf("GetMetadata = (%v, %v), expected %v", got, err, r)
	}
	// same id, different owner
	if _, err := b.GetMetadata("bob", "m1"); !backend.IsNotExist(err) {
		t.Errorf("GetMetadata other owner: received %v", err)
	}

	// upsert
	r.Size = 3
	r.Updated = "2021-03-04T05:06:08.000Z"
	if err := b.PutMetadata(r); err != nil {
		t.Fatalf("PutMetadata: %s", err.Error())
	}
	got, _ = b.GetMetadata("alice", "m1")
	if got != r {
		t.Errorf("GetMetadata after update = %v, expected %v", got, r)
	}
	list, _ = b.ListMetadata("alice")
	if len(list) != 1 {
		t.Errorf("ListMetadata after update = %v, expected one record", list)
	}

	if err := b.DeleteMetadata("alice", "m1"); err != nil {
		t.Errorf("DeleteMetadata: %s", err.Error())
	}
	if _, err := b.GetMetadata("alice", "m1"); !backend.IsNotExist(err) {
		t.Errorf("GetMetadata after delete: received %v", err)
	}
}

func data(t *testing.T, b backend.Backend) {
	if _, err := b.GetData("alice", "d1"); !backend.IsNotExist(err) {
		t.Errorf("GetData missing: received %v", err)
	}
	if err := b.DeleteData("alice", "d1"); err != nil {
		t.Errorf("DeleteData missing: received %v", err)
	}
	var payloads = [][]byte{
		[]byte("hello"),
		{},
		{0, 1, 2, 0xff},
		bytes.Repeat([]byte("0123456789"), 10000),
	}
	// ids containing characters which are awkward as file names
	for i, p := range payloads {
		id := fmt.Sprintf("d 1/%d.x", i)
		if err := b.PutData("alice", id, p); err != nil {
			t.Fatalf("PutData(%q): %s", id, err.Error())
		}
		got, err := b.GetData("alice", id)
		if err != nil || !bytes.Equal(got, p) {
			t.Errorf("GetData(%q) = (%d bytes, %v), expected %d bytes", id, len(got), err, len(p))
		}
		if err := b.PutData("alice", id, []byte("second")); err != nil {
			t.Fatalf("PutData(%q) again: %s", id, err.Error())
		}
		got, _ = b.GetData("alice", id)
		if string(got) != "second" {
			t.Errorf("GetData(%q) after overwrite = %q", id, got)
		}
		if err := b.DeleteData("alice", id); err != nil {
			t.Errorf("DeleteData(%q): %s", id, err.Error())
		}
		if _, err := b.GetData("alice", id); !backend.IsNotExist(err) {
			t.Errorf("GetData(%q) after delete: received %v", id, err)
		}
	}
}

func ordering(t *testing.T, b backend.Backend) {
	ids := []string{"zz", "aa", "mm", "bb"}
	for _, id := range ids {
		if err := b.PutMetadata(record("carol", id, 0)); err != nil {
			t.Fatalf("PutMetadata(%s): %s", id, err.Error())
		}
	}
	b.PutMetadata(record("dave", "other", 0))
	// updating does not move a record
	b.PutMetadata(record("carol", "zz", 7))

	list, err := b.ListMetadata("carol")
	if err != nil {
		t.Fatalf("ListMetadata: %s", err.Error())
	}
	if fmt.Sprint(listIDs(list)) != fmt.Sprint(ids) {
		t.Errorf("ListMetadata = %v, expected %v", listIDs(list), ids)
	}
	if list[0].Size != 7 {
		t.Errorf("ListMetadata[0].Size = %d, expected 7", list[0].Size)
	}

	b.DeleteMetadata("carol", "aa")
	b.PutMetadata(record("carol", "aa", 0))
	list, _ = b.ListMetadata("carol")
	expected := []string{"zz", "mm", "bb", "aa"}
	if fmt.Sprint(listIDs(list)) != fmt.Sprint(expected) {
		t.Errorf("ListMetadata = %v, expected %v", listIDs(list), expected)
	}
}

func listIDs(list []backend.Record) []string {
	var result []string
	for _, r := range list {
		result = append(result, r.ID)
	}
	return result
}

// locking checks that writers to one key serialize and that readers never
// see a half finished write.
func locking(t *testing.T, b backend.Backend) {
	const workers = 8
	const rounds = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				payload := bytes.Repeat([]byte{byte(n)}, n*10+j)
				unlock := b.Lock("erin", "shared")
				b.PutMetadata(record("erin", "shared", int64(len(payload))))
				b.PutData("erin", "shared", payload)
				unlock()

				unlock = b.RLock("erin", "shared")
				r, err1 := b.GetMetadata("erin", "shared")
				d, err2 := b.GetData("erin", "shared")
				unlock()
				if err1 != nil || err2 != nil {
					t.Errorf("read shared: %v, %v", err1, err2)
					return
				}
				if r.Size != int64(len(d)) {
					t.Errorf("read shared: size %d, data length %d", r.Size, len(d))
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
