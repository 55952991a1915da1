package server

import (
	"crypto/sha256"
	"encoding/hex"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // for pprof server
	"time"

	"github.com/facebookgo/clock"
	"github.com/facebookgo/httpdown"
	"github.com/facebookgo/stats"
	"github.com/julienschmidt/httprouter"

	"github.com/ndlib/fragments/fragment"
)

// RESTServer holds the configuration for a fragment REST API server.
//
// Set all the public fields and then call Run. Run will listen on the given
// port and handle requests. Do not change any fields after calling Run.
type RESTServer struct {
	// Port number to listen on. defaults to 8080
	PortNumber string
	PProfPort  string

	// APIURL is the public base URL of the server, used to make the
	// Location header of new fragments. If empty, the Location is relative.
	APIURL string

	// Fragments is the fragment store. Run will panic if it is nil.
	Fragments *fragment.Store

	// Validator does authentication by validating any user tokens
	// presented to the API. If this is nil then every request is made as
	// the user "nobody".
	Validator TokenDecoder

	// MaxBodySize limits the size of uploaded fragments, in bytes.
	// Defaults to DefaultMaxBody.
	MaxBodySize int64

	// Stats receives request counts and timings. Defaults to counters
	// published through expvar.
	Stats stats.Client

	server httpdown.Server // used to close our listening socket
}

const (
	// DefaultMaxBody is the default limit on the size of a fragment.
	DefaultMaxBody = 5 << 20

	// GitHubURL is reported by the health check.
	GitHubURL = "https://github.com/ndlib/fragments"
)

// Version is the version of the server. It is set at link time.
var Version = "dev"

// Handler returns the routes of the API, filling in defaults for any fields
// not given.
func (s *RESTServer) Handler() http.Handler {
	if s.Fragments == nil {
		panic("No fragment store given. Fragments is nil.")
	}
	if s.Validator == nil {
		log.Println("No Validator given")
		s.Validator = NewNobodyDecoder()
	}
	if s.MaxBodySize == 0 {
		s.MaxBodySize = DefaultMaxBody
	}
	if s.Stats == nil {
		s.Stats = defaultStats
	}
	return s.addRoutes()
}

// Run initializes the server. It then blocks listening for and handling
// http requests.
func (s *RESTServer) Run() error {
	log.Println("==========")
	log.Printf("Starting Fragments Server version %s", Version)

	handler := s.Handler()

	// for pprof
	if s.PProfPort != "" {
		log.Println("Starting PProf on port", s.PProfPort)
		go func() {
			log.Println(http.ListenAndServe(":"+s.PProfPort, nil))
		}()
	}
	if s.PortNumber == "" {
		s.PortNumber = "8080"
	}
	log.Println("Listening on", s.PortNumber)

	h := httpdown.HTTP{
		StopTimeout: 10 * time.Second,
		KillTimeout: 5 * time.Second,
		Stats:       s.Stats,
		Clock:       clock.New(),
	}
	var err error
	s.server, err = h.ListenAndServe(&http.Server{
		Addr:    ":" + s.PortNumber,
		Handler: handler,
	})
	if err != nil {
		log.Println(err)
		return err
	}
	return s.server.Wait()
}

// Stop will stop the server and return when all the server goroutines have
// exited and the socket closed.
func (s *RESTServer) Stop() error {
	return s.server.Stop()
}

func (s *RESTServer) addRoutes() http.Handler {
	var routes = []struct {
		method  string
		route   string
		role    Role // RoleUnknown means no API key is needed to access
		handler httprouter.Handle
	}{
		{"GET", "/v1/fragments", RoleRead, s.ListHandler},
		{"POST", "/v1/fragments", RoleWrite, s.CreateHandler},
		{"GET", "/v1/fragments/:id", RoleRead, s.GetHandler},
		{"HEAD", "/v1/fragments/:id", RoleRead, s.GetHandler},
		{"PUT", "/v1/fragments/:id", RoleWrite, s.UpdateHandler},
		{"DELETE", "/v1/fragments/:id", RoleWrite, s.DeleteHandler},
		{"GET", "/v1/fragments/:id/info", RoleRead, s.InfoHandler},

		// other
		{"GET", "/", RoleUnknown, WelcomeHandler},
		{"GET", "/debug/vars", RoleUnknown, VarHandler}, // standard route for expvars data
	}

	r := httprouter.New()
	for _, route := range routes {
		r.Handle(route.method,
			route.route,
			s.logWrapper(s.authzWrapper(route.handler, route.role)))
	}
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

// VarHandler adapts the expvar default handler to the httprouter three parameter handler.
func VarHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	expvar.Handler().ServeHTTP(w, r)
}

// authzWrapper returns a Handler which will first verify the user token as
// having at least the given Role. The token is taken from the X-Api-Key
// header, or else from the password of HTTP basic authentication. The owner
// id derived from the user name is added as a parameter "owner".
func (s *RESTServer) authzWrapper(handler httprouter.Handle, leastRole Role) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := r.Header.Get("X-Api-Key")
		if token == "" {
			if _, password, ok := r.BasicAuth(); ok {
				token = password
			}
		}
		user, role, err := s.Validator.TokenDecode(token)
		if err != nil {
			log.Println("token decode:", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		// is role valid?
		if role < leastRole {
			w.Header().Set("WWW-Authenticate", `Basic realm="fragments"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ps = append(ps, httprouter.Param{Key: "owner", Value: ownerID(user)})
		handler(w, r, ps)
	}
}

// ownerID turns a user name into the id fragments are stored under.
func ownerID(user string) string {
	h := sha256.Sum256([]byte(user))
	return hex.EncodeToString(h[:])
}

// logWrapper takes a handler and returns a handler which does the same thing,
// after first logging the request URL. Request counts and times go to the
// stats client.
func (s *RESTServer) logWrapper(handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		log.Println(r.Method, r.URL)
		s.Stats.BumpSum("requests", 1)
		s.Stats.BumpSum(fmt.Sprintf("requests.%s", r.Method), 1)
		defer s.Stats.BumpTime("request.time").End()
		handler(w, r, ps)
	}
}
