package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// WelcomeHandler is the health check. It reports the server version.
func WelcomeHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	w.Header().Set("Cache-Control", "no-cache")
	writeOK(w, http.StatusOK, map[string]interface{}{
		"version":   Version,
		"githubUrl": GitHubURL,
	})
}
