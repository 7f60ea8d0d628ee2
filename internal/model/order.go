package model

import (
	"time"

	"github.com/finjaanapp/finjaan/internal/money"
)

// Order fulfillment types.
const (
	OrderTypePickup   = "pickup"
	OrderTypeDineIn   = "dine_in"
	OrderTypeDelivery = "delivery"
)

// Payment methods accepted at checkout.
const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

type Order struct {
	ID               int64        `json:"id"`
	PublicID         string       `json:"public_id"`
	Number           int64        `json:"number"`
	BranchID         int64        `json:"branch_id"`
	Type             string       `json:"type"`
	Status           string       `json:"status"`
	Items            []OrderItem  `json:"items"`
	Subtotal         money.Amount `json:"subtotal"`
	Discount         money.Amount `json:"discount"`
	Total            money.Amount `json:"total"`
	PaymentMethod    string       `json:"payment_method"`
	PaymentRef       *string      `json:"payment_ref,omitempty"`
	CustomerName     string       `json:"customer_name"`
	CustomerPhone    string       `json:"customer_phone"`
	LoyaltyAccountID *int64       `json:"loyalty_account_id,omitempty"`
	DiscountApplied  bool         `json:"discount_applied"`
	FreeItemApplied  bool         `json:"free_item_applied"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// OrderItem is the one canonical line-item shape. Incoming cart payloads
// are normalized into it once, at the checkout boundary.
type OrderItem struct {
	ID           int64        `json:"id"`
	OrderID      int64        `json:"order_id"`
	CoffeeItemID int64        `json:"coffee_item_id"`
	Name         string       `json:"name"`
	NameAr       string       `json:"name_ar,omitempty"`
	UnitPrice    money.Amount `json:"unit_price"`
	Quantity     int64        `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (it OrderItem) LineTotal() money.Amount {
	return it.UnitPrice.Mul(it.Quantity)
}
