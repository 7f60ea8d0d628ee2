package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

type InventoryHandler struct {
	inventory *store.InventoryStore
	logger    *slog.Logger
}

func NewInventoryHandler(inventory *store.InventoryStore, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: logger}
}

// ListByBranch lists a branch's ingredient stock. Routed as
// /branches/{id}/inventory, so the id param is the branch.
func (h *InventoryHandler) ListByBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid branch id")
		return
	}

	items, err := h.inventory.ListByBranch(branchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list inventory")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListLow surfaces items at or below their restock threshold.
func (h *InventoryHandler) ListLow(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ListLow()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list low stock")
		return
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type inventoryItemRequest struct {
	BranchID     int64  `json:"branch_id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Quantity     int64  `json:"quantity"`
	LowThreshold int64  `json:"low_threshold"`
}

func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Unit == "" {
		writeError(w, http.StatusBadRequest, "name and unit are required")
		return
	}
	if req.Quantity < 0 || req.LowThreshold < 0 {
		writeError(w, http.StatusBadRequest, "quantity and low_threshold must not be negative")
		return
	}

	item, err := h.inventory.Create(req.BranchID, req.Name, req.Unit, req.Quantity, req.LowThreshold)
	if err != nil {
		h.logger.Error("create inventory item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create inventory item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type adjustRequest struct {
	Delta int64 `json:"delta"`
}

// Adjust moves stock up or down; the store refuses to go negative.
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.inventory.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}

	item, err := h.inventory.Adjust(id, req.Delta)
	if err != nil {
		writeError(w, http.StatusConflict, "stock cannot go below zero")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.inventory.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}

	if err := h.inventory.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete inventory item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
