package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/shopql/shopql/internal/models"
)

type apiKeyCtxKey struct{}

var publicPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
}

// Auth requires one of apiKeys in headerName (or the api_key cookie) on
// every non-public path. The accepted key is stored in the request context.
func Auth(apiKeys []string, headerName string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := presentedKey(r, headerName)
			switch {
			case key == "":
				models.WriteError(w, http.StatusUnauthorized, "API key required")
			case !knownKey(keys, key):
				models.WriteError(w, http.StatusForbidden, "invalid API key")
			default:
				ctx := context.WithValue(r.Context(), apiKeyCtxKey{}, key)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

func presentedKey(r *http.Request, headerName string) string {
	if key := r.Header.Get(headerName); key != "" {
		return key
	}
	if c, err := r.Cookie("api_key"); err == nil {
		return c.Value
	}
	return ""
}

func knownKey(keys [][]byte, key string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, []byte(key))
	}
	return found == 1
}

// APIKeyFromContext returns the key accepted by Auth, if any
func APIKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyCtxKey{}).(string)
	return key
}
