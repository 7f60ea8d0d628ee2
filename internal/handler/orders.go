package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/finjaanapp/finjaan/internal/invoice"
	"github.com/finjaanapp/finjaan/internal/loyalty"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/order"
	"github.com/finjaanapp/finjaan/internal/store"
	"github.com/finjaanapp/finjaan/internal/websocket"
)

type OrderHandler struct {
	orders   *store.OrderStore
	accounts *store.LoyaltyAccountStore
	service  *order.Service
	ledger   *loyalty.Ledger
	seller   invoice.Seller
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewOrderHandler(
	orders *store.OrderStore,
	accounts *store.LoyaltyAccountStore,
	service *order.Service,
	ledger *loyalty.Ledger,
	seller invoice.Seller,
	hub *websocket.Hub,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		accounts: accounts,
		service:  service,
		ledger:   ledger,
		seller:   seller,
		hub:      hub,
		logger:   logger,
	}
}

// Board lists the orders a cashier console shows.
func (h *OrderHandler) Board(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListBoard()
	if err != nil {
		h.logger.Error("list board", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	o, err := h.orders.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// Track is the public order-status endpoint, addressed by the opaque
// public id so order numbers cannot be enumerated.
func (h *OrderHandler) Track(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByPublicID(r.PathValue("publicID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus drives the lifecycle. Illegal moves return 409 with the
// order's current status so the console can resync.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	to, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	o, err := h.service.Transition(id, to)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			current, _ := h.orders.GetByID(id)
			resp := map[string]any{"error": "this status change is not allowed"}
			if current != nil {
				resp["current_status"] = current.Status
			}
			writeJSON(w, http.StatusConflict, resp)
		default:
			h.logger.Error("transition order", "order_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.hub.Broadcast(websocket.OrderUpdated(o))
	writeJSON(w, http.StatusOK, o)
}

// ApplyDiscount puts the 10% loyalty discount on an open order. The
// conditional store update makes it at-most-once even under races.
func (h *OrderHandler) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	o, acct, ok := h.loadOrderWithAccount(w, id)
	if !ok {
		return
	}
	if o.DiscountApplied {
		writeError(w, http.StatusConflict, "a discount was already applied to this order")
		return
	}
	if !loyalty.ComputeEligibility(acct).TenPercentAvailable {
		writeError(w, http.StatusConflict, "the 10% discount is not available for this card")
		return
	}

	// Clamp so a free item applied earlier cannot push the total negative.
	value := loyalty.PercentDiscount(o.Subtotal)
	if value > o.Total {
		value = o.Total
	}

	applied, err := h.orders.ApplyDiscount(id, value)
	if err != nil {
		h.logger.Error("apply discount", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !applied {
		writeError(w, http.StatusConflict, "the discount cannot be applied to this order")
		return
	}

	h.respondWithUpdatedOrder(w, id)
}

// ApplyFreeItem redeems one free cup against an open order, zeroing its
// most expensive drink.
func (h *OrderHandler) ApplyFreeItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	o, acct, ok := h.loadOrderWithAccount(w, id)
	if !ok {
		return
	}
	if o.FreeItemApplied {
		writeError(w, http.StatusConflict, "a free drink was already applied to this order")
		return
	}

	if _, err := h.ledger.ApplyFreeItem(acct.ID); err != nil {
		if errors.Is(err, loyalty.ErrNoFreeCups) {
			writeError(w, http.StatusConflict, "no free cups available")
			return
		}
		h.logger.Error("redeem free cup", "account_id", acct.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Clamp so a discount applied earlier cannot push the total negative.
	value := freeItemValue(o.Items)
	if value > o.Total {
		value = o.Total
	}

	applied, err := h.orders.ApplyFreeItem(id, value)
	if err != nil {
		h.logger.Error("apply free item", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !applied {
		writeError(w, http.StatusConflict, "a free drink cannot be applied to this order")
		return
	}

	h.respondWithUpdatedOrder(w, id)
}

// loadOrderWithAccount fetches an order plus its loyalty account and
// rejects the cases common to both benefit endpoints: unknown order,
// finalized order, no card attached.
func (h *OrderHandler) loadOrderWithAccount(w http.ResponseWriter, id int64) (*model.Order, *model.LoyaltyAccount, bool) {
	o, err := h.orders.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return nil, nil, false
	}
	if order.Status(o.Status).Terminal() {
		writeError(w, http.StatusConflict, "this order is already finalized")
		return nil, nil, false
	}
	if o.LoyaltyAccountID == nil {
		writeError(w, http.StatusBadRequest, "this order has no loyalty card attached")
		return nil, nil, false
	}

	acct, err := h.accounts.GetByID(*o.LoyaltyAccountID)
	if err != nil || acct == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}
	return o, acct, true
}

func (h *OrderHandler) respondWithUpdatedOrder(w http.ResponseWriter, id int64) {
	o, err := h.orders.GetByID(id)
	if err != nil || o == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.hub.Broadcast(websocket.OrderUpdated(o))
	writeJSON(w, http.StatusOK, o)
}

// InvoiceQR returns the ZATCA phase-1 QR payload for a completed order.
func (h *OrderHandler) InvoiceQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	o, err := h.orders.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if o == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if order.Status(o.Status) != order.StatusCompleted {
		writeError(w, http.StatusConflict, "an invoice is only available once the order is completed")
		return
	}

	payload, err := invoice.QRPayload(h.seller, o.UpdatedAt, o.Total)
	if err != nil {
		h.logger.Error("build invoice qr", "order_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"qr": payload})
}

// DailyTotals reports completed-order count and revenue for a day
// (admin dashboard). Defaults to today.
func (h *OrderHandler) DailyTotals(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	count, total, err := h.orders.DailyTotals(day)
	if err != nil {
		h.logger.Error("daily totals", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":            day.Format("2006-01-02"),
		"completed_count": count,
		"total":           total,
		"total_sar":       total.String(),
	})
}
