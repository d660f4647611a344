package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/featurereg/internal/server/response"
)

// AuthConfig configures API key authentication.
type AuthConfig struct {
	APIKey      string
	HeaderName  string
	PublicPaths []string
}

// Auth rejects requests without the configured API key. The key is read
// from HeaderName or from an Authorization bearer token.
func Auth(cfg AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-API-Key"
	}
	want := []byte(cfg.APIKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(cfg.PublicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := apiKey(r, cfg.HeaderName)
			if key == "" || subtle.ConstantTimeCompare([]byte(key), want) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", key != "").
					Msg("Authentication failed")
				response.Unauthorized(w, "Invalid or missing API key",
					"Provide a valid API key in the "+cfg.HeaderName+" header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func apiKey(r *http.Request, header string) string {
	if k := r.Header.Get(header); k != "" {
		return k
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
