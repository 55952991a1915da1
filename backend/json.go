package backend

import (
	"encoding/json"

	"github.com/ndlib/fragments/store"
)

// A JSONStore wraps a Store and provides a store which serializes its items
// as JSON instead of using streams. It does not cache the results of
// serialization or deserialization.
type JSONStore struct {
	store.Store
}

// NewJSON creates a new JSONStore using the provided store for its storage.
func NewJSON(s store.Store) JSONStore {
	return JSONStore{s}
}

// Open the item having the given key and unserialize it into value.
func (js JSONStore) Open(key string, value interface{}) error {
	data, err := store.ReadAll(js.Store, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, value)
}

// Save the value under the given key, replacing any existing value.
func (js JSONStore) Save(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Replace(js.Store, key, data)
}
