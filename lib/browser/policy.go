package browser

import (
	"net/http"
	"strings"
)

// RequestPolicy decides whether the session may issue a request. It is
// installed once at session setup and evaluated per request.
type RequestPolicy func(method, path string) bool

// planner endpoints that mutate server-side state. the scraper never
// needs any of them, a misclick must not reach the upstream.
var mutatingPaths = []string{
	"/api/save-timetable",
	"/api/enrol",
	"/api/email-timetable",
	"/api/notes",
}

// AllowReadOnly permits read-only traffic and refuses anything that
// could change planner state on the upstream server.
func AllowReadOnly() RequestPolicy {
	return func(method, path string) bool {
		if method != http.MethodGet && method != http.MethodHead {
			return false
		}
		for _, p := range mutatingPaths {
			if strings.Contains(path, p) {
				return false
			}
		}
		return true
	}
}
