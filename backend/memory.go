package backend

import "sync"

// Memory is a Backend keeping everything in maps. It is intended for tests
// and for running the server without any durable storage.
type Memory struct {
	KeyLocks

	m     sync.RWMutex
	meta  map[lockKey]Record
	data  map[lockKey][]byte
	order map[string][]string // owner -> ids in creation order
}

var _ Backend = &Memory{}

// NewMemory returns an empty memory backend.
func NewMemory() *Memory {
	return &Memory{
		meta:  make(map[lockKey]Record),
		data:  make(map[lockKey][]byte),
		order: make(map[string][]string),
	}
}

func (mb *Memory) PutMetadata(r Record) error {
	k := lockKey{r.OwnerID, r.ID}
	mb.m.Lock()
	defer mb.m.Unlock()
	if _, ok := mb.meta[k]; !ok {
		mb.order[r.OwnerID] = append(mb.order[r.OwnerID], r.ID)
	}
	mb.meta[k] = r
	return nil
}

func (mb *Memory) GetMetadata(owner, id string) (Record, error) {
	mb.m.RLock()
	defer mb.m.RUnlock()
	r, ok := mb.meta[lockKey{owner, id}]
	if !ok {
		return Record{}, ErrNotExist
	}
	return r, nil
}

func (mb *Memory) ListMetadata(owner string) ([]Record, error) {
	mb.m.RLock()
	defer mb.m.RUnlock()
	result := make([]Record, 0, len(mb.order[owner]))
	for _, id := range mb.order[owner] {
		result = append(result, mb.meta[lockKey{owner, id}])
	}
	return result, nil
}

func (mb *Memory) DeleteMetadata(owner, id string) error {
	k := lockKey{owner, id}
	mb.m.Lock()
	defer mb.m.Unlock()
	if _, ok := mb.meta[k]; !ok {
		return ErrNotExist
	}
	delete(mb.meta, k)
	mb.order[owner] = remove(mb.order[owner], id)
	if len(mb.order[owner]) == 0 {
		delete(mb.order, owner)
	}
	return nil
}

func (mb *Memory) PutData(owner, id string, data []byte) error {
	b := make([]byte, len(data))
	copy(b, data)
	mb.m.Lock()
	mb.data[lockKey{owner, id}] = b
	mb.m.Unlock()
	return nil
}

func (mb *Memory) GetData(owner, id string) ([]byte, error) {
	mb.m.RLock()
	b, ok := mb.data[lockKey{owner, id}]
	mb.m.RUnlock()
	if !ok {
		return nil, ErrNotExist
	}
	result := make([]byte, len(b))
	copy(result, b)
	return result, nil
}

func (mb *Memory) DeleteData(owner, id string) error {
	mb.m.Lock()
	delete(mb.data, lockKey{owner, id})
	mb.m.Unlock()
	return nil
}

// remove returns list without the first occurrence of s. The list is
// modified in place.
func remove(list []string, s string) []string {
	for i := range list {
		if list[i] == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
