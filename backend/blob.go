package backend

import (
	"github.com/pkg/errors"

	"github.com/ndlib/fragments/store"
)

// Blob is a Backend keeping everything in store.Store objects. Metadata
// records are serialized as JSON. Since a Store has no ordering, each owner
// also has an index item listing their fragment ids in creation order.
//
// The keys are distinguished by their prefix: metadata records start with
// "md", owner indexes with "ix", and payloads with "d".
type Blob struct {
	KeyLocks

	payloads
	meta    JSONStore
	index   JSONStore
	ixlocks KeyLocks // serializes index updates per owner
}

var _ Backend = &Blob{}

// NewBlob makes a Blob backend keeping the metadata and indexes in meta and
// the payloads in data. The two may be the same store.
func NewBlob(meta, data store.Store) *Blob {
	return &Blob{
		meta:     NewJSON(store.NewWithPrefix(meta, "md")),
		index:    NewJSON(store.NewWithPrefix(meta, "ix")),
		payloads: newPayloads(data),
	}
}

func (b *Blob) PutMetadata(r Record) error {
	key := storeKey(r.OwnerID, r.ID)
	isnew, err := missing(b.meta.Store, key)
	if err != nil {
		return errors.Wrapf(err, "put metadata %s", key)
	}
	if err := b.meta.Save(key, r); err != nil {
		return errors.Wrapf(err, "put metadata %s", key)
	}
	if isnew {
		return b.updateIndex(r.OwnerID, func(ids []string) []string {
			return append(ids, r.ID)
		})
	}
	return nil
}

func (b *Blob) GetMetadata(owner, id string) (Record, error) {
	var r Record
	err := b.meta.Open(storeKey(owner, id), &r)
	if store.IsNotExist(err) {
		return r, ErrNotExist
	} else if err != nil {
		return r, errors.Wrapf(err, "get metadata %s", storeKey(owner, id))
	}
	return r, nil
}

func (b *Blob) ListMetadata(owner string) ([]Record, error) {
	unlock := b.ixlocks.RLock(owner, "")
	ids, err := b.readIndex(owner)
	unlock()
	if err != nil {
		return nil, err
	}
	result := make([]Record, 0, len(ids))
	for _, id := range ids {
		r, err := b.GetMetadata(owner, id)
		if IsNotExist(err) {
			// deleted since the index was read
			continue
		} else if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (b *Blob) DeleteMetadata(owner, id string) error {
	key := storeKey(owner, id)
	gone, err := missing(b.meta.Store, key)
	if err != nil {
		return errors.Wrapf(err, "delete metadata %s", key)
	}
	if gone {
		return ErrNotExist
	}
	if err := b.meta.Delete(key); err != nil {
		return errors.Wrapf(err, "delete metadata %s", key)
	}
	return b.updateIndex(owner, func(ids []string) []string {
		return remove(ids, id)
	})
}

// readIndex returns the ids of owner in creation order. Caller should hold
// the index lock for owner.
func (b *Blob) readIndex(owner string) ([]string, error) {
	var ids []string
	err := b.index.Open(ownerKey(owner), &ids)
	if store.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "read index %s", ownerKey(owner))
	}
	return ids, nil
}

// updateIndex rewrites the index of owner with the result of f.
func (b *Blob) updateIndex(owner string, f func([]string) []string) error {
	unlock := b.ixlocks.Lock(owner, "")
	defer unlock()
	ids, err := b.readIndex(owner)
	if err != nil {
		return err
	}
	ids = f(ids)
	key := ownerKey(owner)
	if len(ids) == 0 {
		err = b.index.Delete(key)
	} else {
		err = b.index.Save(key, ids)
	}
	return errors.Wrapf(err, "write index %s", key)
}

// missing reports whether key is absent from s.
func missing(s store.ROStore, key string) (bool, error) {
	r, _, err := s.Open(key)
	if store.IsNotExist(err) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	return false, r.Close()
}
