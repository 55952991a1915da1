package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	raven "github.com/getsentry/raven-go"

	"github.com/ndlib/fragments/fragment"
)

// writeOK writes a success envelope: the fields of body along with
// "status": "ok".
func writeOK(w http.ResponseWriter, code int, body map[string]interface{}) {
	if body == nil {
		body = make(map[string]interface{})
	}
	body["status"] = "ok"
	writeJSON(w, code, body)
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]interface{}{
		"status": "error",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		log.Println("writeJSON:", err)
	}
}

// writeErr maps err to an HTTP status and writes an error envelope.
// Unexpected errors are logged and reported to sentry.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr  *fragment.ValidationError
		nferr *fragment.NotFoundError
		cerr  *fragment.UnsupportedConversionError
		merr  *fragment.TypeMismatchError
		berr  *http.MaxBytesError
	)
	code := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		code = http.StatusBadRequest
		if verr.Field == "type" {
			code = http.StatusUnsupportedMediaType
		}
	case errors.As(err, &nferr):
		code = http.StatusNotFound
	case errors.As(err, &cerr):
		code = http.StatusUnsupportedMediaType
	case errors.As(err, &merr):
		code = http.StatusBadRequest
	case errors.As(err, &berr):
		code = http.StatusRequestEntityTooLarge
	default:
		log.Println(r.Method, r.URL, err)
		raven.CaptureError(err, map[string]string{"Method": r.Method, "URL": r.URL.String()})
		writeError(w, code, "Internal server error")
		return
	}
	writeError(w, code, err.Error())
}
