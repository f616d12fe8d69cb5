package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// Router wraps httprouter and registers handlers from endpoint strings of
// the form "METHOD /path", as they appear in the configuration. Keeping
// the surface in config lets a deployment move paths without code changes.
type Router struct {
	rt *httprouter.Router
}

func New() *Router {
	return &Router{rt: httprouter.New()}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.rt.ServeHTTP(w, req)
}

// Register parses an endpoint string like "POST /api/login" and mounts the
// handler on it.
func (r *Router) Register(endpoint string, handler http.HandlerFunc) error {
	method, path, found := strings.Cut(endpoint, " ")
	if !found || method == "" || !strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid endpoint %q, want \"METHOD /path\"", endpoint)
	}
	r.rt.Handler(method, path, handler)
	return nil
}
