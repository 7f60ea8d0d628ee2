package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/finjaanapp/finjaan/internal/loyalty"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
	"github.com/finjaanapp/finjaan/internal/payment"
	"github.com/finjaanapp/finjaan/internal/push"
	"github.com/finjaanapp/finjaan/internal/store"
	"github.com/finjaanapp/finjaan/internal/websocket"
)

const maxItemQuantity = 20

type CheckoutHandler struct {
	menu      *store.MenuStore
	orders    *store.OrderStore
	ledger    *loyalty.Ledger
	payments  *payment.Client
	hub       *websocket.Hub
	announcer *push.Announcer
	logger    *slog.Logger
}

func NewCheckoutHandler(
	menu *store.MenuStore,
	orders *store.OrderStore,
	ledger *loyalty.Ledger,
	payments *payment.Client,
	hub *websocket.Hub,
	announcer *push.Announcer,
	logger *slog.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		menu:      menu,
		orders:    orders,
		ledger:    ledger,
		payments:  payments,
		hub:       hub,
		announcer: announcer,
		logger:    logger,
	}
}

type cartItem struct {
	CoffeeItemID int64 `json:"coffee_item_id"`
	Quantity     int64 `json:"quantity"`
}

type checkoutRequest struct {
	BranchID      int64      `json:"branch_id"`
	Type          string     `json:"type"`
	PaymentMethod string     `json:"payment_method"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	LoyaltyToken  string     `json:"loyalty_token,omitempty"`
	ApplyDiscount bool       `json:"apply_discount"`
	ApplyFreeItem bool       `json:"apply_free_item"`
	Items         []cartItem `json:"items"`
}

type checkoutResponse struct {
	Order   *model.Order    `json:"order"`
	Payment *payment.Intent `json:"payment,omitempty"`
}

// Checkout takes a cart, normalizes it against the live menu, applies
// loyalty benefits and creates the order in pending. Totals are fixed
// here; the lifecycle never recomputes them.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	switch req.Type {
	case model.OrderTypePickup, model.OrderTypeDineIn, model.OrderTypeDelivery:
	default:
		writeError(w, http.StatusBadRequest, "type must be pickup, dine_in, or delivery")
		return
	}
	switch req.PaymentMethod {
	case model.PaymentCash:
	case model.PaymentCard:
		if !h.payments.Enabled() {
			writeError(w, http.StatusBadRequest, "card payments are not available")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "payment_method must be cash or card")
		return
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		writeError(w, http.StatusBadRequest, "customer name is required")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	items, subtotal, err := h.normalizeItems(req.Items)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var acct *model.LoyaltyAccount
	if req.LoyaltyToken != "" {
		acct, err = h.ledger.LookupByToken(req.LoyaltyToken)
		if err != nil {
			writeError(w, http.StatusNotFound, "loyalty card not recognized")
			return
		}
	}

	var discount money.Amount
	discountApplied := false
	freeItemApplied := false

	if req.ApplyDiscount {
		if acct == nil {
			writeError(w, http.StatusBadRequest, "a loyalty card is required for the discount")
			return
		}
		if !loyalty.ComputeEligibility(acct).TenPercentAvailable {
			writeError(w, http.StatusConflict, "the 10% discount is not available for this card")
			return
		}
		discount += loyalty.PercentDiscount(subtotal)
		discountApplied = true
	}

	if req.ApplyFreeItem {
		if acct == nil {
			writeError(w, http.StatusBadRequest, "a loyalty card is required for a free drink")
			return
		}
		// Consumes the cup. If order creation fails afterwards the cup is
		// spent; the cashier resolves it manually, which beats handing out
		// two drinks on a retry.
		if _, err := h.ledger.ApplyFreeItem(acct.ID); err != nil {
			if errors.Is(err, loyalty.ErrNoFreeCups) {
				writeError(w, http.StatusConflict, "no free cups available")
				return
			}
			h.logger.Error("apply free item", "account_id", acct.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		discount += freeItemValue(items)
		freeItemApplied = true
	}

	// Stacked benefits can exceed a small cart's value; the total never
	// goes below zero.
	if discount > subtotal {
		discount = subtotal
	}

	o := &model.Order{
		PublicID:        uuid.NewString(),
		BranchID:        req.BranchID,
		Type:            req.Type,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           subtotal - discount,
		PaymentMethod:   req.PaymentMethod,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		DiscountApplied: discountApplied,
		FreeItemApplied: freeItemApplied,
	}
	if acct != nil {
		o.LoyaltyAccountID = &acct.ID
	}

	created, err := h.orders.Create(o)
	if err != nil {
		h.logger.Error("create order", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	resp := checkoutResponse{Order: created}
	if req.PaymentMethod == model.PaymentCard {
		intent, err := h.payments.CreateIntent(created.Total, created.PublicID)
		if err != nil {
			h.logger.Error("create payment intent", "order_id", created.ID, "error", err)
			writeError(w, http.StatusBadGateway, "payment processor unavailable")
			return
		}
		if err := h.orders.SetPaymentRef(created.ID, intent.ID); err != nil {
			h.logger.Error("set payment ref", "order_id", created.ID, "error", err)
		}
		resp.Payment = intent
	}

	h.hub.Broadcast(websocket.OrderCreated(created))
	h.announcer.AnnounceNewOrder(created)
	h.logger.Info("order created",
		"order_id", created.ID, "number", created.Number,
		"type", created.Type, "total", created.Total)

	writeJSON(w, http.StatusCreated, resp)
}

// normalizeItems resolves cart lines against the menu into the canonical
// item shape, pricing each line from the live menu.
func (h *CheckoutHandler) normalizeItems(cart []cartItem) ([]model.OrderItem, money.Amount, error) {
	var items []model.OrderItem
	var subtotal money.Amount

	for _, line := range cart {
		if line.Quantity < 1 || line.Quantity > maxItemQuantity {
			return nil, 0, errors.New("item quantity must be between 1 and 20")
		}

		ci, err := h.menu.GetByID(line.CoffeeItemID)
		if err != nil {
			return nil, 0, errors.New("failed to load menu item")
		}
		if ci == nil || !ci.Available {
			return nil, 0, errors.New("an item in the cart is not available")
		}

		it := model.OrderItem{
			CoffeeItemID: ci.ID,
			Name:         ci.Name,
			NameAr:       ci.NameAr,
			UnitPrice:    ci.Price,
			Quantity:     line.Quantity,
		}
		items = append(items, it)
		subtotal += it.LineTotal()
	}
	return items, subtotal, nil
}

// freeItemValue is the price of the most expensive single drink in the
// order, the one the free cup pays for.
func freeItemValue(items []model.OrderItem) money.Amount {
	var max money.Amount
	for _, it := range items {
		if it.UnitPrice > max {
			max = it.UnitPrice
		}
	}
	return max
}
