package server

import (
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/ndlib/fragments/fragment"
	"github.com/ndlib/fragments/mimetype"
)

// info is the JSON form of a fragment's metadata.
func info(f *fragment.Fragment) map[string]interface{} {
	return map[string]interface{}{
		"fragment": f,
		"formats":  f.Formats(),
	}
}

// ListHandler handles requests to GET /v1/fragments. With the query
// parameter "expand" set to something true the full metadata of each
// fragment is returned instead of just the ids.
func (s *RESTServer) ListHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	owner := ps.ByName("owner")
	expand, _ := strconv.ParseBool(r.FormValue("expand"))
	var list interface{}
	var err error
	if expand {
		list, err = s.Fragments.ListExpanded(owner)
	} else {
		list, err = s.Fragments.List(owner)
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"fragments": list})
}

// CreateHandler handles requests to POST /v1/fragments. The body is the
// data of the new fragment, and its type is the Content-Type header.
func (s *RESTServer) CreateHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	typ := r.Header.Get("Content-Type")
	if !s.Fragments.Registry.Supported(typ) {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported content type "+typ)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	f, err := s.Fragments.Create(ps.ByName("owner"), typ, data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.Stats.BumpHistogram("fragment.size", float64(f.Size))
	w.Header().Set("Location", s.APIURL+"/v1/fragments/"+f.ID)
	writeOK(w, http.StatusCreated, info(f))
}

// GetHandler handles requests to GET /v1/fragments/:id. The id may end
// with an extension giving the format to return the fragment in.
func (s *RESTServer) GetHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	data, typ, err := s.Fragments.Resolve(ps.ByName("owner"), ps.ByName("id"), "")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if mimetype.IsText(typ) || typ == mimetype.JSON {
		typ += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", typ)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == "HEAD" {
		return
	}
	w.Write(data)
}

// InfoHandler handles requests to GET /v1/fragments/:id/info.
func (s *RESTServer) InfoHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	f, err := s.Fragments.Load(ps.ByName("owner"), ps.ByName("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, info(f))
}

// UpdateHandler handles requests to PUT /v1/fragments/:id. The
// Content-Type must have the same base type as the fragment.
func (s *RESTServer) UpdateHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	typ := r.Header.Get("Content-Type")
	if !s.Fragments.Registry.Supported(typ) {
		writeError(w, http.StatusUnsupportedMediaType, "Unsupported content type "+typ)
		return
	}
	data, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	f, err := s.Fragments.Update(ps.ByName("owner"), ps.ByName("id"), typ, data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.Stats.BumpHistogram("fragment.size", float64(f.Size))
	writeOK(w, http.StatusOK, info(f))
}

// DeleteHandler handles requests to DELETE /v1/fragments/:id.
func (s *RESTServer) DeleteHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := s.Fragments.Delete(ps.ByName("owner"), ps.ByName("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

// readBody reads the request body, up to MaxBodySize bytes.
func (s *RESTServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, s.MaxBodySize)
	defer body.Close()
	return ioutil.ReadAll(body)
}
