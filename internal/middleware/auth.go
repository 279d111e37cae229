package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/volunteerhub/volunteerhub/internal/auth"
	"github.com/volunteerhub/volunteerhub/internal/store"
)

const sessionCookieName = "volunteerhub_session"

// RequireAuth validates the session cookie (or Bearer token) and populates
// the request context with the authenticated identity.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				writeUnauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil || sess == nil {
				writeUnauthorized(w)
				return
			}

			id := auth.Identity{
				SubjectType: sess.SubjectType,
				SubjectID:   sess.SubjectID,
				SessionID:   sess.ID,
			}

			ctx := auth.WithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePromoter checks that the authenticated subject is a promoter.
func RequirePromoter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsPromoter(r.Context()) {
			writeForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVolunteer checks that the authenticated subject is a volunteer.
func RequireVolunteer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsVolunteer(r.Context()) {
			writeForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
}

// SessionCookieName is exported for the auth handler that sets the cookie.
func SessionCookieName() string {
	return sessionCookieName
}
