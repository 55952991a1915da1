package backend

import (
	"github.com/pkg/errors"

	"github.com/ndlib/fragments/store"
)

// payloads keeps fragment data in a store.Store. It provides the data half
// of the Backend interface to the backends which keep metadata elsewhere.
type payloads struct {
	data store.Store
}

func newPayloads(s store.Store) payloads {
	return payloads{data: store.NewWithPrefix(s, "d")}
}

func (p payloads) PutData(owner, id string, data []byte) error {
	key := storeKey(owner, id)
	if err := store.Replace(p.data, key, data); err != nil {
		return errors.Wrapf(err, "put data %s", key)
	}
	return nil
}

func (p payloads) GetData(owner, id string) ([]byte, error) {
	key := storeKey(owner, id)
	data, err := store.ReadAll(p.data, key)
	if store.IsNotExist(err) {
		return nil, ErrNotExist
	} else if err != nil {
		return nil, errors.Wrapf(err, "get data %s", key)
	}
	return data, nil
}

func (p payloads) DeleteData(owner, id string) error {
	key := storeKey(owner, id)
	if err := p.data.Delete(key); err != nil {
		return errors.Wrapf(err, "delete data %s", key)
	}
	return nil
}
