package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"duochat/internal/pkg/logx"
)

// contextKey prevents key collisions with other packages.
type contextKey string

const (
	// ContextAuthPayloadKey stores the parsed Payload in the request context.
	ContextAuthPayloadKey contextKey = "auth_payload"

	// ContextAuthExpiredKey marks a request that carried an expired token,
	// so handlers can respond with the logout flag instead of a plain 401.
	ContextAuthExpiredKey contextKey = "auth_expired"
)

// IdentityExtractorMiddleware extracts and validates the bearer token. On
// success the Payload is injected into the context. Requests without a usable
// token continue as anonymous; handlers decide whether auth is required.
// Expired tokens additionally set the expired marker.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := parts[1]

			payload, err := ParseToken(tokenString, secretKey)

			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					ctx := context.WithValue(r.Context(), ContextAuthExpiredKey, true)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}

				logx.Warn("Invalid JWT provided, treating as anonymous", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext extracts the authenticated Payload from the request
// context. A nil return means the user is anonymous.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}

// IsExpiredFromContext reports whether the request carried an expired token.
func IsExpiredFromContext(r *http.Request) bool {
	expired, ok := r.Context().Value(ContextAuthExpiredKey).(bool)
	return ok && expired
}
