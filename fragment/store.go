/*
Package fragment stores typed blobs of data, "fragments", on behalf of many
owners. Each fragment has a metadata record and a data payload, both kept in
a backend.Backend under the pair (owner, id). Fragments may be read back in
any representation their type can be converted into.

Writes put the metadata first and the data second, while holding the key's
write lock. Reads hold the read lock, so a reader always sees a metadata
record and payload written together.
*/
package fragment

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ndlib/fragments/backend"
	"github.com/ndlib/fragments/blobcache"
	"github.com/ndlib/fragments/convert"
	"github.com/ndlib/fragments/mimetype"
	"github.com/ndlib/fragments/util"
)

// Store manages the fragments kept in a Backend. The exported fields may be
// replaced after New returns and before the Store is first used.
type Store struct {
	Backend   backend.Backend
	Registry  *mimetype.Registry
	Converter *convert.Converter
	Cache     blobcache.Cache // converted representations
	Clock     clock.Clock
	NewID     func() string // makes the ids of new fragments

	flight util.Flight // one conversion per cache key at a time
}

// TimeFormat is the layout of the created and updated timestamps.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// New returns a Store keeping its fragments in b, using the default type
// registry and no conversion cache.
func New(b backend.Backend) *Store {
	return &Store{
		Backend:   b,
		Registry:  mimetype.Default(),
		Converter: convert.New(convert.DefaultImageWorkers),
		Cache:     blobcache.EmptyCache{},
		Clock:     clock.New(),
		NewID:     uuid.NewString,
	}
}

// stamp returns the current time as a timestamp. The result is always
// later than prev, if prev is given.
func (s *Store) stamp(prev string) string {
	now := s.Clock.Now().UTC().Truncate(time.Millisecond)
	if p, ok := parseTime(prev); ok && !now.After(p) {
		now = p.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return now.Format(TimeFormat)
}

// parseTime reads a timestamp in any ISO-8601 layout with a time zone,
// which includes TimeFormat.
func parseTime(t string) (time.Time, bool) {
	p, err := time.Parse(time.RFC3339Nano, t)
	return p, err == nil
}

// later reports whether timestamp a is after timestamp b. A timestamp that
// cannot be parsed is earlier than any that can.
func later(a, b string) bool {
	ta, oka := parseTime(a)
	tb, okb := parseTime(b)
	switch {
	case !oka:
		return false
	case !okb:
		return true
	}
	return ta.After(tb)
}

// Load returns the fragment (owner, id).
func (s *Store) Load(owner, id string) (*Fragment, error) {
	unlock := s.Backend.RLock(owner, id)
	defer unlock()
	return s.load(owner, id)
}

// load reads a metadata record. Caller holds a lock on the key.
func (s *Store) load(owner, id string) (*Fragment, error) {
	r, err := s.Backend.GetMetadata(owner, id)
	if backend.IsNotExist(err) {
		return nil, &NotFoundError{OwnerID: owner, ID: id}
	} else if err != nil {
		return nil, err
	}
	return &Fragment{Record: r, store: s}, nil
}

// List returns the ids of the fragments of owner in the order they were
// created.
func (s *Store) List(owner string) ([]string, error) {
	records, err := s.Backend.ListMetadata(owner)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ListExpanded returns the fragments of owner in the order they were
// created.
func (s *Store) ListExpanded(owner string) ([]*Fragment, error) {
	records, err := s.Backend.ListMetadata(owner)
	if err != nil {
		return nil, err
	}
	result := make([]*Fragment, 0, len(records))
	for _, r := range records {
		result = append(result, &Fragment{Record: r, store: s})
	}
	return result, nil
}

// Create makes a new fragment of the given type for owner and stores data
// in it.
func (s *Store) Create(owner, typ string, data []byte) (*Fragment, error) {
	f, err := s.New(Params{OwnerID: owner, Type: typ})
	if err != nil {
		return nil, err
	}
	unlock := s.Backend.Lock(owner, f.ID)
	defer unlock()
	return f, f.setData(data)
}

// Update replaces the data of the fragment (owner, id). The base type typ
// must be the stored base type.
func (s *Store) Update(owner, id, typ string, data []byte) (*Fragment, error) {
	if !s.Registry.Supported(typ) {
		return nil, &ValidationError{Field: "type", Msg: "unsupported type " + typ}
	}
	unlock := s.Backend.Lock(owner, id)
	defer unlock()
	f, err := s.load(owner, id)
	if err != nil {
		return nil, err
	}
	requested, _ := mimetype.Base(typ)
	if requested != f.MimeType() {
		return nil, &TypeMismatchError{ID: id, Stored: f.MimeType(), Requested: requested}
	}
	return f, f.setData(data)
}

// Delete removes both the metadata and the data of the fragment
// (owner, id). The data goes first, so a failure part way leaves metadata
// without data and never the other way around. A missing payload is not
// an error.
func (s *Store) Delete(owner, id string) error {
	unlock := s.Backend.Lock(owner, id)
	defer unlock()
	if _, err := s.load(owner, id); err != nil {
		return err
	}
	if err := s.Backend.DeleteData(owner, id); err != nil {
		return errors.Wrapf(err, "delete %s", id)
	}
	err := s.Backend.DeleteMetadata(owner, id)
	if backend.IsNotExist(err) {
		return &NotFoundError{OwnerID: owner, ID: id}
	}
	return errors.Wrapf(err, "delete %s", id)
}
