package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finjaanapp/finjaan/internal/auth"
	"github.com/finjaanapp/finjaan/internal/database"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.EmployeeStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewEmployeeStore(db)
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	sessions, employees := setupAuthTest(t)
	h := RequireAuth(sessions, employees)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}

func TestRequireAuthRejectsUnknownToken(t *testing.T) {
	sessions, employees := setupAuthTest(t)
	h := RequireAuth(sessions, employees)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run with a bogus token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(SessionCookie("deadbeef", 3600))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	sessions, employees := setupAuthTest(t)

	emp, err := employees.Create("sara@finjaan.local", "Sara", model.RoleCashier, "x", nil)
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	sess, err := sessions.Create(emp.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got auth.AuthContext
	var ok bool
	h := RequireAuth(sessions, employees)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(SessionCookie(sess.Token, 3600))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !ok {
		t.Fatal("auth context missing")
	}
	if got.EmployeeID != emp.ID || got.Role != model.RoleCashier || got.SessionID != sess.ID {
		t.Errorf("auth context = %+v", got)
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/menu", nil)
	cashierCtx := auth.WithAuth(req.Context(), auth.AuthContext{EmployeeID: 1, Role: model.RoleCashier})
	rec := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, req.WithContext(cashierCtx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("cashier status = %d, want 403", rec.Code)
	}

	adminCtx := auth.WithAuth(req.Context(), auth.AuthContext{EmployeeID: 2, Role: model.RoleAdmin})
	rec = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, req.WithContext(adminCtx))
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}
