// Command fragments runs the fragments REST API server.
package main

import (
	"crypto/tls"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/certifi/gocertifi"
	raven "github.com/getsentry/raven-go"

	"github.com/ndlib/fragments/blobcache"
	"github.com/ndlib/fragments/convert"
	"github.com/ndlib/fragments/fragment"
	"github.com/ndlib/fragments/server"
	"github.com/ndlib/fragments/store"
)

func main() {
	c, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}
	if c.SentryDSN != "" {
		setupSentry(c.SentryDSN)
	}

	s, closers, err := newServer(c)
	if err != nil {
		log.Fatalln(err)
	}
	defer func() {
		for _, x := range closers {
			x.Close()
		}
	}()

	go signalHandler(s)
	if err := s.Run(); err != nil {
		log.Println(err)
	}
}

// newServer builds a server from the settings in c. The returned closers
// should be closed once the server stops.
func newServer(c config) (*server.RESTServer, []io.Closer, error) {
	var closers []io.Closer
	closeAll := func() {
		for _, x := range closers {
			x.Close()
		}
	}
	track := func(v interface{}) {
		if x, ok := v.(io.Closer); ok {
			closers = append(closers, x)
		}
	}

	log.Println("Using data location", c.Data)
	data, err := parselocation(c.Data, "")
	if err != nil {
		return nil, nil, err
	}
	track(data)
	log.Println("Using metadata location", c.Metadata)
	b, err := parsebackend(c.Metadata, c.Data, data)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	track(b)

	fragments := fragment.New(b)
	fragments.Converter = convert.New(c.MaxConversions)
	if c.CacheSize > 0 {
		var cs store.Store = store.NewMemory()
		if c.CacheDir != "" {
			if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
				closeAll()
				return nil, nil, err
			}
			cs = store.NewFileSystem(c.CacheDir)
		}
		cache := blobcache.NewLRU(cs, c.CacheSize*1000000)
		go cache.Scan()
		fragments.Cache = cache
	}

	var validator server.TokenDecoder
	if c.Tokens != "" {
		log.Println("Using user token file", c.Tokens)
		validator, err = server.NewListDecoderFile(c.Tokens)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	return &server.RESTServer{
		PortNumber: c.Port,
		PProfPort:  c.PProfPort,
		APIURL:     c.APIURL,
		Fragments:  fragments,
		Validator:  validator,
	}, closers, nil
}

// setupSentry points raven at dsn, using the certifi root certificates so
// reports can be sent from hosts with an outdated certificate bundle.
func setupSentry(dsn string) {
	if err := raven.SetDSN(dsn); err != nil {
		log.Println("Sentry:", err)
		return
	}
	roots, err := gocertifi.CACerts()
	if err != nil {
		log.Println("Sentry certificates:", err)
		return
	}
	raven.DefaultClient.Transport = &raven.HTTPTransport{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{RootCAs: roots},
			},
		},
	}
}

// signalHandler stops the server on SIGINT or SIGTERM, letting requests in
// progress finish.
func signalHandler(s *server.RESTServer) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("Received signal, stopping")
	if err := s.Stop(); err != nil {
		log.Println("Stop:", err)
	}
}
