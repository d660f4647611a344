package middleware

import (
	"net/http"
	"strings"

	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/logging"
)

// Reviewer attributes review actions to the name sent in header. Requests
// without the header fall back to the configured default reviewer.
func Reviewer(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if name := strings.TrimSpace(r.Header.Get(header)); name != "" {
				ctx := actions.WithReviewer(r.Context(), name)
				ctx = logging.WithReviewer(ctx, name)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}
