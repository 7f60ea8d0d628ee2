package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/finjaanapp/finjaan/internal/auth"
	"github.com/finjaanapp/finjaan/internal/store"
)

const sessionCookieName = "finjaan_session"

// RequireAuth validates the session cookie and populates AuthContext
// with the employee's identity and role. The console is a JSON client,
// so failures get a 401 body rather than a redirect.
func RequireAuth(sessionStore *store.SessionStore, employeeStore *store.EmployeeStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			emp, err := employeeStore.GetByID(sess.EmployeeID)
			if err != nil || emp == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				EmployeeID: emp.ID,
				Role:       emp.Role,
				BranchID:   emp.BranchID,
				SessionID:  sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated employee has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}

// SessionCookie builds the cookie set on login and cleared on logout.
func SessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}
