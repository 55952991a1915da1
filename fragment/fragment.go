package fragment

import (
	"strings"

	"github.com/ndlib/fragments/backend"
	"github.com/ndlib/fragments/mimetype"
)

// A Fragment is the metadata of one stored blob. Its methods read and
// write through the Store it came from.
type Fragment struct {
	backend.Record
	store *Store
}

// Params gives the fields of a new fragment. OwnerID and Type are required.
// The other fields are given defaults when empty.
type Params struct {
	OwnerID string
	Type    string
	ID      string
	Size    int64
	Created string
	Updated string
}

// New validates p and returns a fragment which has not been saved yet.
// No fragment is returned if there is an error.
func (s *Store) New(p Params) (*Fragment, error) {
	switch {
	case strings.TrimSpace(p.OwnerID) == "":
		return nil, &ValidationError{Field: "ownerId", Msg: "is required"}
	case strings.TrimSpace(p.Type) == "":
		return nil, &ValidationError{Field: "type", Msg: "is required"}
	case !s.Registry.Supported(p.Type):
		return nil, &ValidationError{Field: "type", Msg: "unsupported type " + p.Type}
	case p.Size < 0:
		return nil, &ValidationError{Field: "size", Msg: "must not be negative"}
	}
	f := &Fragment{
		Record: backend.Record{
			ID:      p.ID,
			OwnerID: p.OwnerID,
			Type:    p.Type,
			Size:    p.Size,
			Created: p.Created,
			Updated: p.Updated,
		},
		store: s,
	}
	if f.ID == "" {
		f.ID = s.NewID()
	}
	if f.Created == "" {
		f.Created = s.stamp("")
	}
	if f.Updated == "" {
		f.Updated = f.Created
	}
	return f, nil
}

// MimeType returns the base type of the fragment, without parameters.
func (f *Fragment) MimeType() string {
	base, _ := mimetype.Base(f.Type)
	return base
}

// IsText reports whether the fragment holds some kind of text.
func (f *Fragment) IsText() bool {
	return mimetype.IsText(f.Type)
}

// Formats returns the base types the fragment may be served as.
func (f *Fragment) Formats() []string {
	return f.store.Registry.Compatible(f.Type)
}

// Save writes the metadata record, refreshing the updated time. Save does
// not change the payload, so the size of an already stored fragment is
// taken from the stored record.
func (f *Fragment) Save() error {
	unlock := f.store.Backend.Lock(f.OwnerID, f.ID)
	defer unlock()
	if r, ok := f.touch(); ok {
		f.Size = r.Size
	}
	return f.store.Backend.PutMetadata(f.Record)
}

// Data returns the stored payload.
func (f *Fragment) Data() ([]byte, error) {
	unlock := f.store.Backend.RLock(f.OwnerID, f.ID)
	defer unlock()
	return f.data()
}

// data reads the payload. Caller holds a lock on the key.
func (f *Fragment) data() ([]byte, error) {
	data, err := f.store.Backend.GetData(f.OwnerID, f.ID)
	if backend.IsNotExist(err) {
		return nil, &NotFoundError{OwnerID: f.OwnerID, ID: f.ID}
	}
	return data, err
}

// SetData replaces the payload and updates the size and updated time.
func (f *Fragment) SetData(data []byte) error {
	unlock := f.store.Backend.Lock(f.OwnerID, f.ID)
	defer unlock()
	return f.setData(data)
}

// setData writes the metadata and then the payload. Caller holds the write
// lock on the key.
func (f *Fragment) setData(data []byte) error {
	f.Size = int64(len(data))
	f.touch()
	if err := f.store.Backend.PutMetadata(f.Record); err != nil {
		return err
	}
	return f.store.Backend.PutData(f.OwnerID, f.ID, data)
}

// touch refreshes the updated time. It is kept later than the stored one,
// which may have been written through another Fragment value. The stored
// record is returned if there is one. Caller holds the write lock on the
// key.
func (f *Fragment) touch() (backend.Record, bool) {
	prev := f.Updated
	r, err := f.store.Backend.GetMetadata(f.OwnerID, f.ID)
	found := err == nil
	if found && later(r.Updated, prev) {
		prev = r.Updated
	}
	f.Updated = f.store.stamp(prev)
	return r, found
}
