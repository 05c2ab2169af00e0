package httpserver

import (
	"crypto/hmac"
	"fmt"
	"net/http"
)

// APIKeyHeader carries the shared API key on every API request.
const APIKeyHeader = "X-API-Key"

// minAPIKeyLength is the shortest key accepted at startup. Shorter keys are
// rejected before the server starts.
const minAPIKeyLength = 16

// ValidateAPIKey checks the configured key at startup.
func ValidateAPIKey(key string) error {
	if len(key) < minAPIKeyLength {
		return fmt.Errorf("api key not set or shorter than %d characters", minAPIKeyLength)
	}
	return nil
}

// apiKeyMiddleware rejects requests whose X-API-Key header does not match
// the configured key. The comparison is constant-time.
func apiKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(APIKeyHeader)
			if !hmac.Equal([]byte(provided), []byte(key)) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
