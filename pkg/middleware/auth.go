package middleware

import (
	"net/http"
	"strings"

	"kosbook/pkg/auth"
	"kosbook/pkg/logger"
)

// Authentication verifies the Bearer token and threads a typed auth.Identity
// through the request context. Handlers never touch the raw token.
//
// A request without a token passes through anonymously so public reads (browse,
// availability) keep working; handlers that need an identity reject the request
// themselves. A token that is present but invalid always fails.
func Authentication(verifier *auth.TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				log.Warn("Token verification failed",
					"request_id", requestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"UNAUTHORIZED"}`))
}
