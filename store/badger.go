package store

import (
	"bytes"
	"fmt"
	"io"
	"log"

	badger "github.com/dgraph-io/badger/v4"
	raven "github.com/getsentry/raven-go"
)

// Badger is a store kept in an embedded badger key-value database. The whole
// value of an item is read into memory on Open.
type Badger struct {
	db *badger.DB
}

var _ Store = &Badger{}

// OpenBadger opens (creating if needed) a badger database in the directory
// dir. If dir is the empty string the database is kept only in memory.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithInMemory(dir == "").
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

// Close closes the underlying database.
func (s *Badger) Close() error {
	return s.db.Close()
}

// List returns a channel listing every key in the database.
func (s *Badger) List() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		keys, err := s.ListPrefix("")
		if err != nil {
			log.Println("Badger List:", err)
			raven.CaptureError(err, nil)
		}
		for _, k := range keys {
			out <- k
		}
	}()
	return out
}

// ListPrefix returns the keys beginning with prefix, in key order.
func (s *Badger) ListPrefix(prefix string) ([]string, error) {
	var result []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			result = append(result, string(it.Item().Key()))
		}
		return nil
	})
	return result, err
}

// Open returns the content of key.
func (s *Badger) Open(key string) (ReadAtCloser, int64, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, 0, fmt.Errorf("%s: %w", key, ErrNotExist)
	} else if err != nil {
		return nil, 0, err
	}
	return nopCloser{bytes.NewReader(data)}, int64(len(data)), nil
}

// Create returns a writer for the new item key. The item is committed when
// the writer is closed.
func (s *Badger) Create(key string) (io.WriteCloser, error) {
	if key == "" {
		return nil, badger.ErrEmptyKey
	}
	exists, err := s.exists(key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrKeyExists
	}
	return &badgerWriter{db: s.db, key: []byte(key)}, nil
}

func (s *Badger) exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

// Delete removes key. It is not an error if the key does not exist.
func (s *Badger) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

type badgerWriter struct {
	db  *badger.DB
	key []byte
	buf bytes.Buffer
}

func (w *badgerWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *badgerWriter) Close() error {
	return w.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(w.key)
		if err == nil {
			return ErrKeyExists
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(w.key, w.buf.Bytes())
	})
}
