package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

const hashInput = "hello1 hello2 hello3 hello4 hello5abcdefghijklmnopqrstuvwxyz0123456789"

func TestHashWriter(t *testing.T) {
	goal, _ := hex.DecodeString("fef15edd82b33633582c723562d192fec2d2003df12d4aeac89df17c279a1658")
	var w = new(bytes.Buffer)
	hw := NewHashWriter(w)
	hw.Write([]byte(hashInput))
	if h, ok := hw.CheckSHA256(goal); !ok {
		t.Fatalf("Got %x, expected %x\n", h, goal)
	}
	if w.String() != hashInput {
		t.Errorf("Wrapped writer received %q", w.String())
	}
	if _, ok := hw.CheckSHA256(nil); !ok {
		t.Errorf("empty goal should match")
	}
	if _, ok := hw.CheckSHA256([]byte("wrong")); ok {
		t.Errorf("wrong goal should not match")
	}
}

func TestVerifyStreamHash(t *testing.T) {
	sum := sha256.Sum256([]byte(hashInput))
	ok, err := VerifyStreamHash(strings.NewReader(hashInput), sum[:])
	if err != nil || !ok {
		t.Errorf("Received (%v, %v)", ok, err)
	}
	ok, _ = VerifyStreamHash(strings.NewReader(hashInput+"x"), sum[:])
	if ok {
		t.Errorf("altered stream should not match")
	}
}
