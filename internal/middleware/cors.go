package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"pathlight-web/pkg/logger"
)

// CORSConfig lists what cross-origin browsers may send and read
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// DefaultCORSConfig allows the proxy's methods and headers; origins come
// from ALLOWED_ORIGINS
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Accept-Encoding", "Authorization", "Content-Type",
			"Content-Length", "X-CSRF-Token", "X-Requested-With",
		},
		ExposedHeaders:   []string{"Content-Length", "Content-Type", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// corsPolicy is a CORSConfig with its header values joined once
type corsPolicy struct {
	origins     map[string]bool
	anyOrigin   bool
	credentials bool
	headers     map[string]string
}

func newCORSPolicy(config *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     make(map[string]bool, len(config.AllowedOrigins)),
		credentials: config.AllowCredentials,
		headers:     make(map[string]string),
	}
	for _, o := range config.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[o] = true
	}

	set := func(name string, values []string) {
		if len(values) > 0 {
			p.headers[name] = strings.Join(values, ", ")
		}
	}
	set("Access-Control-Allow-Methods", config.AllowedMethods)
	set("Access-Control-Allow-Headers", config.AllowedHeaders)
	set("Access-Control-Expose-Headers", config.ExposedHeaders)
	if config.MaxAge > 0 {
		p.headers["Access-Control-Max-Age"] = strconv.Itoa(config.MaxAge)
	}
	return p
}

func (p *corsPolicy) allows(origin string) bool {
	return origin != "" && (p.anyOrigin || p.origins[origin])
}

// CORS answers preflights and decorates responses for allowed origins.
// The origin is echoed rather than "*" because the token travels in cookies.
// Requests from other origins pass through without CORS headers, and their
// preflights are refused.
func CORS(config *CORSConfig, log *logger.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultCORSConfig()
	}
	policy := newCORSPolicy(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if origin != "" {
				w.Header().Add("Vary", "Origin")
			}

			if !policy.allows(origin) {
				if origin != "" {
					log.WithFields(map[string]interface{}{
						"origin": origin,
						"path":   r.URL.Path,
					}).Debug("Cross-origin request from unlisted origin")
				}
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if policy.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			for name, value := range policy.headers {
				h.Set(name, value)
			}

			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
