// Package store provides a simple, goroutine safe key-value interface. Instead
// of values being an opaque array of bytes, though, they are a stream. The
// fragment backends keep both metadata records and fragment payloads in a
// Store.
//
// Probably the most important implementations are the FileSystem and S3. The
// others are useful for testing, or when a local key-value database or a
// redis server is preferred.
package store

import (
	"bytes"
	"errors"
	"io"
)

// ReadAtCloser combines the io.ReaderAt and io.Closer interfaces.
type ReadAtCloser interface {
	io.ReaderAt
	io.Closer
}

// Store defines the basic stream based key-value store.
// Items are immutable once stored, but they may be deleted and then replaced
// with a new value. Use Replace to do that in one call.
//
// Since the FileSystem store uses the key as file names, keys should not
// contain forbidden filesystem characters, such as '/'.
type Store interface {
	ROStore
	Create(key string) (io.WriteCloser, error)
	Delete(key string) error
}

// ROStore is the read-only pieces of a Store. It allows one to list contents,
// and to retrieve data.
type ROStore interface {
	List() <-chan string
	ListPrefix(prefix string) ([]string, error)
	Open(key string) (ReadAtCloser, int64, error)
}

var (
	// ErrNotExist is returned (possibly wrapped) by Open when there is no
	// item with the given key.
	ErrNotExist = errors.New("Key does not exist")

	// ErrKeyExists indicates an attempt to create a key which already exists
	ErrKeyExists = errors.New("Key already exists")
)

// NewReader converts a ReaderAt into a io.Reader. It is here as a utility to
// help work with the ReadAtCloser returned by Open.
func NewReader(r io.ReaderAt) io.Reader {
	return &reader{r: r}
}

type reader struct {
	r   io.ReaderAt
	off int64
}

func (r *reader) Read(p []byte) (n int, err error) {
	n, err = r.r.ReadAt(p, r.off)
	r.off += int64(n)
	if err == io.EOF && n > 0 {
		// reading less than a full buffer is not an error for
		// an io.Reader
		err = nil
	}
	return
}

// ReadAll returns the entire contents of the item under key.
func ReadAll(s ROStore, key string) ([]byte, error) {
	r, size, err := s.Open(key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	result := make([]byte, 0, size)
	buf := bytes.NewBuffer(result)
	_, err = io.Copy(buf, NewReader(r))
	return buf.Bytes(), err
}

// Replace stores data under key, deleting any previous item with that key
// first. It is not atomic: a concurrent reader may see the key missing.
// Callers needing more should serialize access to the key themselves.
func Replace(s Store, key string, data []byte) error {
	err := s.Delete(key)
	if err != nil {
		return err
	}
	w, err := s.Create(key)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	err2 := w.Close()
	if err == nil {
		err = err2
	}
	return err
}

// IsNotExist reports whether err says an item is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}
