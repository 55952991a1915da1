package main

// Stress test a fragments server
//
// Parameters:
//  n     - The number of goroutines to use. Default is 20
//  count - The number of fragments to create. Default is 1000
//  z     - The maximum size of a fragment in KB. Default is 512
//  url   - the url of the fragments server. Default is http://localhost:8080
//  token - the API token to use

import (
	"bytes"
	"crypto/sha256"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ndlib/fragments/fragclient"
	"github.com/ndlib/fragments/util"
)

var (
	NumGoroutines = flag.Int("n", 20, "number of goroutines")
	NumFragments  = flag.Int("count", 1000, "number of fragments to create")
	MaxUpload     = flag.Int("z", 512, "max fragment size in KB")
	urlpath       = flag.String("url", "http://localhost:8080", "base url of service to test")
	token         = flag.String("token", "", "API token")

	failures int64
)

func main() {
	flag.Parse()
	conn := &fragclient.Connection{HostURL: *urlpath, Token: *token}
	starttime := time.Now()
	wg := sync.WaitGroup{}
	gate := util.NewGate(*NumGoroutines)
	for i := 0; i < *NumFragments; i++ {
		wg.Add(1)
		go func(i int) {
			gate.Enter()
			RoundTrip(conn, i)
			gate.Leave()
			wg.Done()
		}(i)
	}
	wg.Wait()
	log.Printf("Finished %d fragments in %v, %d failures",
		*NumFragments, time.Since(starttime), atomic.LoadInt64(&failures))
}

func fail(format string, args ...interface{}) {
	atomic.AddInt64(&failures, 1)
	log.Printf(format, args...)
}

// RoundTrip creates a fragment, reads it back, asks for a conversion, and
// then deletes it.
func RoundTrip(conn *fragclient.Connection, i int) {
	typ, data, hint := makeContent(i)
	starttime := time.Now()
	info, err := conn.Create(typ, data)
	if err != nil {
		fail("Create %s: %s", typ, err)
		return
	}
	sum := sha256.Sum256(data)
	hw := util.NewHashWriter(nil)
	if _, err = conn.Download(hw, info.ID); err != nil {
		fail("Get %s: %s", info.ID, err)
	} else if h, ok := hw.CheckSHA256(sum[:]); !ok {
		fail("Get %s: checksum %x, expected %x", info.ID, h, sum)
	}
	if _, _, err = conn.Get(info.ID + "." + hint); err != nil {
		fail("Get %s.%s: %s", info.ID, hint, err)
	}
	if err = conn.Delete(info.ID); err != nil {
		fail("Delete %s: %s", info.ID, err)
	}
	log.Printf("%s %s: %d bytes, %v", info.ID, typ, len(data), time.Since(starttime))
}

// makeContent returns a random fragment, its type, and a format it can be
// converted to.
func makeContent(i int) (string, []byte, string) {
	size := rand.Intn(*MaxUpload*1000) + 1
	switch i % 3 {
	case 0:
		var b bytes.Buffer
		for b.Len() < size {
			fmt.Fprintf(&b, "## Section %d\n\nSome *emphasized* text.\n\n", b.Len())
		}
		return "text/markdown", b.Bytes(), "html"
	case 1:
		var b bytes.Buffer
		b.WriteString("<html><body>")
		for b.Len() < size {
			fmt.Fprintf(&b, "<p>paragraph <b>%d</b></p>", b.Len())
		}
		b.WriteString("</body></html>")
		return "text/html", b.Bytes(), "txt"
	}
	// keep images small since conversions are slow
	side := rand.Intn(128) + 1
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for x := 0; x < side; x++ {
		img.Set(x, x, color.RGBA{R: uint8(x), G: 100, B: 200, A: 255})
	}
	var b bytes.Buffer
	png.Encode(&b, img)
	return "image/png", b.Bytes(), "webp"
}
