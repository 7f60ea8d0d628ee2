package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
	"github.com/finjaanapp/finjaan/internal/store"
)

type MenuHandler struct {
	menu   *store.MenuStore
	logger *slog.Logger
}

func NewMenuHandler(menu *store.MenuStore, logger *slog.Logger) *MenuHandler {
	return &MenuHandler{menu: menu, logger: logger}
}

// PublicList is the storefront menu: available items only.
func (h *MenuHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListAvailable()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list menu")
		return
	}
	if items == nil {
		items = []model.CoffeeItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// List is the admin view: every item including unavailable ones.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list menu")
		return
	}
	if items == nil {
		items = []model.CoffeeItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type menuItemRequest struct {
	Name      string `json:"name"`
	NameAr    string `json:"name_ar"`
	Category  string `json:"category"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

// parse validates the request and converts the decimal price string into
// halalas.
func (req *menuItemRequest) parse() (money.Amount, string) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if req.Name == "" || req.Category == "" {
		return 0, "name and category are required"
	}
	price, err := money.Parse(req.Price)
	if err != nil || price < 0 {
		return 0, "price must be a decimal amount like 12.50"
	}
	return price, ""
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	price, errMsg := req.parse()
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	item, err := h.menu.Create(req.Name, req.NameAr, req.Category, price, req.Available)
	if err != nil {
		h.logger.Error("create menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create menu item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.menu.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	price, errMsg := req.parse()
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	item, err := h.menu.Update(id, req.Name, req.NameAr, req.Category, price, req.Available)
	if err != nil {
		h.logger.Error("update menu item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update menu item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.menu.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "menu item not found")
		return
	}

	if err := h.menu.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete menu item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
