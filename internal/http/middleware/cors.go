package middleware

import (
	"net/http"
	"strings"
)

const (
	allowedCORSHeaders = "Authorization, Content-Type, X-Intake-Session, X-Request-ID"
	allowedCORSMethods = "GET, POST, OPTIONS"
)

type originPolicy struct {
	any  bool
	list map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{list: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			p.any = true
		default:
			p.list[o] = struct{}{}
		}
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if p.any {
		return true
	}
	_, ok := p.list[origin]
	return ok
}

// CORS echoes allowlisted origins for the booking site and intake wizard.
// A "*" entry admits every origin but never sends Allow-Credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if policy.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", allowedCORSHeaders)
				h.Set("Access-Control-Allow-Methods", allowedCORSMethods)
				h.Set("Access-Control-Max-Age", "600")
				if !policy.any {
					// intake session cookie
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
