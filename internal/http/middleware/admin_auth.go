package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/healthcare-booking/internal/http/respond"
)

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// AdminRole is the role claim staff tokens must carry.
const AdminRole = "admin"

// AdminClaims are the claims of a staff token.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminJWT enforces an HMAC-signed JWT with role=admin on admin endpoints.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				respond.Error(w, http.StatusUnauthorized, "admin auth disabled")
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			claims := AdminClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != AdminRole {
				respond.Error(w, http.StatusForbidden, "admin role required")
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (AdminClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(AdminClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}
