// Package backend keeps the two halves of a fragment: its metadata record and
// its data payload. Both are keyed by the pair (owner, id). A backend also
// hands out a reader/writer lock per key so that callers can make the
// metadata-then-data write sequence a critical section.
package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"

	"github.com/pkg/errors"
)

// Record is the persisted metadata of one fragment. Timestamps are kept as
// the ISO-8601 strings they are rendered as.
type Record struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Created string `json:"created"`
	Updated string `json:"updated"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
}

// ErrNotExist is returned, possibly wrapped, when a metadata or data record
// is missing.
var ErrNotExist = errors.New("record does not exist")

// IsNotExist reports whether err means a record is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// Locker provides a reader/writer lock for every (owner, id) key. The
// returned function releases the lock.
type Locker interface {
	Lock(owner, id string) (unlock func())
	RLock(owner, id string) (unlock func())
}

// A Backend persists metadata records and data payloads. Every
// implementation gives read-your-writes consistency per key once a call
// returns.
//
// GetMetadata and GetData return ErrNotExist for a missing record, as does
// DeleteMetadata. DeleteData on a missing payload is not an error.
// ListMetadata returns an owner's records in the order they were first
// stored, and an empty list when there are none.
type Backend interface {
	Locker
	PutMetadata(r Record) error
	GetMetadata(owner, id string) (Record, error)
	ListMetadata(owner string) ([]Record, error)
	DeleteMetadata(owner, id string) error
	PutData(owner, id string, data []byte) error
	GetData(owner, id string) ([]byte, error)
	DeleteData(owner, id string) error
}

// ownerKey turns an owner into a string safe to use as a store key.
func ownerKey(owner string) string {
	h := sha256.Sum256([]byte(owner))
	return hex.EncodeToString(h[:])
}

// storeKey turns an (owner, id) pair into a string safe to use as a store
// key. Ids are escaped so they never contain a slash or whitespace.
func storeKey(owner, id string) string {
	return ownerKey(owner) + "-" + url.PathEscape(id)
}
