package fragclient

import (
	"log"
	"net/http"
	"strings"
	"sync"
)

// A FaultServer wraps another http.Handler and answers chosen requests with
// an error instead of passing them on. Each Fault fires once, on the first
// request with the given method whose path ends with Suffix. It is safe for
// concurrent use.
type FaultServer struct {
	h http.Handler

	m      sync.Mutex
	faults []Fault
}

// A Fault is one injected response.
type Fault struct {
	Method string
	Suffix string // e.g. ".html" to fail a conversion
	Status int
}

func (s *FaultServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if f, ok := s.take(req); ok {
		log.Printf("injecting %d for %s %s\n", f.Status, req.Method, req.URL)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.Status)
		w.Write([]byte(`{"status":"error","error":{"code":0,"message":"injected"}}`))
		return
	}
	s.h.ServeHTTP(w, req)
}

// take removes and returns the first fault matching req.
func (s *FaultServer) take(req *http.Request) (Fault, bool) {
	s.m.Lock()
	defer s.m.Unlock()
	for i, f := range s.faults {
		if f.Method == req.Method && strings.HasSuffix(req.URL.Path, f.Suffix) {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}

// Inject adds faults to those waiting to fire.
func (s *FaultServer) Inject(faults ...Fault) {
	s.m.Lock()
	s.faults = append(s.faults, faults...)
	s.m.Unlock()
}

// Pending returns the number of faults which have not fired.
func (s *FaultServer) Pending() int {
	s.m.Lock()
	defer s.m.Unlock()
	return len(s.faults)
}
