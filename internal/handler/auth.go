package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/finjaanapp/finjaan/internal/auth"
	"github.com/finjaanapp/finjaan/internal/middleware"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

const sessionMaxAge = int(12 * time.Hour / time.Second)

type AuthHandler struct {
	employees *store.EmployeeStore
	sessions  *store.SessionStore
	logger    *slog.Logger
}

func NewAuthHandler(es *store.EmployeeStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{employees: es, sessions: ss, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and opens a session. Failures are uniform
// so the response never reveals whether the email exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	emp, err := h.employees.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if emp == nil || bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(emp.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, middleware.SessionCookie(sess.Token, sessionMaxAge))
	writeJSON(w, http.StatusOK, emp)
}

// Logout deletes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	http.SetCookie(w, middleware.SessionCookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated employee.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	emp, err := h.employees.GetByID(ac.EmployeeID)
	if err != nil || emp == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

type employeeRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID *int64 `json:"branch_id"`
	Password string `json:"password"`
}

// CreateEmployee is admin-only: provisions a cashier or admin account.
func (h *AuthHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "email, name, and a password of at least 8 characters are required")
		return
	}
	if req.Role != model.RoleCashier && req.Role != model.RoleAdmin {
		writeError(w, http.StatusBadRequest, "role must be cashier or admin")
		return
	}

	existing, err := h.employees.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("employee lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an employee with this email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	emp, err := h.employees.Create(req.Email, req.Name, req.Role, string(hash), req.BranchID)
	if err != nil {
		h.logger.Error("create employee", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create employee")
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (h *AuthHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *AuthHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if ac, ok := auth.FromContext(r.Context()); ok && ac.EmployeeID == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	existing, err := h.employees.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "employee not found")
		return
	}

	if err := h.employees.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
