package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/wolfman30/healthcare-booking/internal/accounts"
	"github.com/wolfman30/healthcare-booking/internal/http/respond"
)

// AccountTokens verifies patient access tokens.
type AccountTokens interface {
	Enabled() bool
	Parse(token string) (uuid.UUID, error)
}

// OptionalAccount puts the patient's account id in the request context when
// a valid bearer token is present. Requests without one pass through as
// anonymous; a present but invalid token is rejected.
func OptionalAccount(tokens AccountTokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok || tokens == nil || !tokens.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			id, err := tokens.Parse(raw)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Your session has expired. Please log in again.")
				return
			}
			next.ServeHTTP(w, r.WithContext(accounts.WithAccountID(r.Context(), id)))
		})
	}
}

// RequireAccount rejects requests that OptionalAccount left anonymous.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := accounts.AccountIDFromContext(r.Context()); !ok {
			respond.Error(w, http.StatusUnauthorized, "Please log in to continue.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
