package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

type BranchHandler struct {
	branches *store.BranchStore
	logger   *slog.Logger
}

func NewBranchHandler(branches *store.BranchStore, logger *slog.Logger) *BranchHandler {
	return &BranchHandler{branches: branches, logger: logger}
}

func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.branches.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list branches")
		return
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	writeJSON(w, http.StatusOK, branches)
}

type branchRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	OpenHours string `json:"open_hours"`
}

func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "branch name is required")
		return
	}

	branch, err := h.branches.Create(req.Name, req.Address, req.Phone, req.OpenHours)
	if err != nil {
		h.logger.Error("create branch", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create branch")
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.branches.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "branch not found")
		return
	}

	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "branch name is required")
		return
	}

	branch, err := h.branches.Update(id, req.Name, req.Address, req.Phone, req.OpenHours)
	if err != nil {
		h.logger.Error("update branch", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update branch")
		return
	}
	writeJSON(w, http.StatusOK, branch)
}

func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.branches.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "branch not found")
		return
	}

	if err := h.branches.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete branch")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
