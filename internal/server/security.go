package server

import (
	"net/http"

	"github.com/rs/cors"
)

// SecurityConfig holds the security settings of the HTTP server.
type SecurityConfig struct {
	// EnableCORS enables Cross-Origin Resource Sharing headers.
	EnableCORS bool
	// AllowedOrigins lists the origins allowed to call the API. "*" allows any.
	AllowedOrigins []string
	// AllowedMethods lists the HTTP methods allowed for cross-origin calls.
	AllowedMethods []string
	// MaxAge is the preflight cache duration in seconds.
	MaxAge int
	// MaxBodyBytes caps the size of a request body.
	MaxBodyBytes int64
	// MaxElements caps the number of elements of a single operand.
	MaxElements int
}

// DefaultSecurityConfig returns a security configuration suited to a local
// compute service.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		MaxAge:         86400,
		MaxBodyBytes:   64 << 20,
		MaxElements:    10_000_000,
	}
}

// securityHeaders are written on every response.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
}

// SecurityMiddleware sets the standard security headers and, when enabled,
// handles CORS for the wrapped handler. Preflight requests are answered
// without reaching next.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	var h http.Handler = next
	if config.EnableCORS {
		h = cors.New(cors.Options{
			AllowedOrigins: config.AllowedOrigins,
			AllowedMethods: config.AllowedMethods,
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         config.MaxAge,
		}).Handler(next)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		for _, kv := range securityHeaders {
			w.Header().Set(kv[0], kv[1])
		}
		h.ServeHTTP(w, r)
	}
}
