package server

import (
	"net/http"
	"slices"
	"strings"
)

// CORS admits browser requests from the allowed origins. "*" admits any
// origin but never with credentials. Requests from other origins get no
// CORS headers, and their preflights are refused.
func CORS(allowed []string, next http.Handler) http.Handler {
	wildcard := slices.Contains(allowed, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Origin")
		switch {
		case slices.Contains(allowed, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		case wildcard:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		default:
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Compression-Ratio")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
