package fragment

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"github.com/ndlib/fragments/convert"
)

// Resolve returns the data of the fragment requested, and its base type.
//
// Without a hint, a requested id ending in an extension, such as
// "abc123.html", names the fragment "abc123" served as the type of the
// extension. The hint may be an extension or a MIME type. When there is
// neither the stored data is returned unchanged.
func (s *Store) Resolve(owner, requested, hint string) ([]byte, string, error) {
	id := requested
	if hint == "" {
		if i := strings.LastIndex(requested, "."); i > 0 {
			id, hint = requested[:i], requested[i+1:]
		}
	}

	unlock := s.Backend.RLock(owner, id)
	f, err := s.load(owner, id)
	var data []byte
	if err == nil {
		data, err = f.data()
	}
	unlock()
	if err != nil {
		return nil, "", err
	}

	from := f.MimeType()
	if hint == "" {
		return data, from, nil
	}
	formats := f.Formats()
	if len(formats) == 0 {
		return nil, "", errors.Errorf("fragment %s has type %s with no formats", id, f.Type)
	}
	to := s.Registry.ForHint(hint)
	if !contains(formats, to) {
		return nil, "", &UnsupportedConversionError{ID: id, Type: from, Target: hint}
	}
	if to == from {
		return data, from, nil
	}

	key := cacheKey(f, to)
	if out, ok := s.Cache.Get(key); ok {
		return out, to, nil
	}
	out, err := s.flight.Do(key, func() ([]byte, error) {
		return s.Converter.Convert(data, from, to)
	})
	if _, ok := err.(*convert.UnsupportedError); ok {
		return nil, "", &UnsupportedConversionError{ID: id, Type: from, Target: hint}
	} else if err != nil {
		return nil, "", errors.Wrapf(err, "converting %s", id)
	}
	// a cache failure only costs a conversion later
	_ = s.Cache.Put(key, out)
	return out, to, nil
}

// cacheKey names the conversion of one version of a fragment into type to.
func cacheKey(f *Fragment, to string) string {
	h := sha256.New()
	for _, s := range []string{f.OwnerID, f.ID, f.Updated, to} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
