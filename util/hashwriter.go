package util

import (
	"bytes"
	"crypto/sha256"
	"hash"
	"io"
)

// A HashWriter wraps an io.Writer and also calculates the SHA256 hash of the
// bytes written.
type HashWriter struct {
	io.Writer // our io.MultiWriter
	sha256    hash.Hash
}

// NewHashWriter returns a HashWriter wrapping w. If w is nil the data is
// only hashed.
func NewHashWriter(w io.Writer) *HashWriter {
	hw := &HashWriter{sha256: sha256.New()}
	if w == nil {
		hw.Writer = hw.sha256
	} else {
		hw.Writer = io.MultiWriter(w, hw.sha256)
	}
	return hw
}

// CheckSHA256 returns the SHA256 hash for this writer, and compares it for
// equality with the goal hash passed in. If the goal is empty then it is
// treated as matching.
func (hw *HashWriter) CheckSHA256(goal []byte) ([]byte, bool) {
	computed := hw.sha256.Sum(nil)
	ok := len(goal) == 0 || bytes.Equal(goal, computed)
	return computed, ok
}

// VerifyStreamHash reads r to the end and compares its SHA256 hash with
// goal. The reader is not closed when finished.
func VerifyStreamHash(r io.Reader, goal []byte) (bool, error) {
	hw := NewHashWriter(nil)
	_, err := io.Copy(hw, r)
	_, ok := hw.CheckSHA256(goal)
	return ok, err
}
