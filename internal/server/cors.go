package server

import (
	"net/http"
	"strings"
)

// DefaultAllowedOrigins are the CORS origins permitted when none are
// configured. Localhost entries support frontend development.
var DefaultAllowedOrigins = []string{
	"https://teamodea.com",
	"https://*.teamodea.com",
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With"
)

// corsMiddleware answers preflight requests and stamps CORS headers on
// responses to allowed origins. Requests from other origins pass through
// without CORS headers; the browser enforces the rest.
func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(origin, allowedOrigins) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// originAllowed matches an origin against the allowed list. Entries may
// contain a single "*." subdomain wildcard, e.g. "https://*.teamodea.com".
func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == origin {
			return true
		}
		scheme, host, ok := strings.Cut(a, "://")
		if !ok || !strings.HasPrefix(host, "*.") {
			continue
		}
		suffix := host[1:] // ".teamodea.com"
		oScheme, oHost, ok := strings.Cut(origin, "://")
		if !ok || oScheme != scheme {
			continue
		}
		if strings.HasSuffix(oHost, suffix) && len(oHost) > len(suffix) {
			return true
		}
	}
	return false
}
