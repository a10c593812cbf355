package auth

import (
	"net/http"
	"strings"

	"pizzafactory/internal/store"
)

// VendorAuth resolves the bearer api key to a vendor record and stores the
// principal on the request context. The 401 message is uniform regardless
// of whether the header is missing, malformed or unknown.
func VendorAuth(s store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := bearerToken(r)
			if apiKey == "" {
				unauthorized(w)
				return
			}
			vendor, err := s.VendorByAPIKey(r.Context(), apiKey)
			if err != nil {
				unauthorized(w)
				return
			}
			p := Principal{Vendor: vendor, APIKey: apiKey}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole gates a route on one of the caller's roles.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := FromContext(r.Context())
			if p.Vendor == nil || !p.Vendor.HasRole(role) {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) >= 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"invalid authentication"}`))
}
