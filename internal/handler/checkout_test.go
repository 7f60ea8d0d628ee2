package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finjaanapp/finjaan/internal/cardtoken"
	"github.com/finjaanapp/finjaan/internal/database"
	"github.com/finjaanapp/finjaan/internal/loyalty"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
	"github.com/finjaanapp/finjaan/internal/payment"
	"github.com/finjaanapp/finjaan/internal/push"
	"github.com/finjaanapp/finjaan/internal/store"
	"github.com/finjaanapp/finjaan/internal/websocket"
)

type checkoutFixture struct {
	handler  *CheckoutHandler
	menu     *store.MenuStore
	orders   *store.OrderStore
	accounts *store.LoyaltyAccountStore
	ledger   *loyalty.Ledger
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	menu := store.NewMenuStore(db)
	orders := store.NewOrderStore(db)
	accounts := store.NewLoyaltyAccountStore(db)
	codes := store.NewRedemptionCodeStore(db)
	minter := cardtoken.NewMinter("test-secret", "finjaan")
	ledger := loyalty.NewLedger(accounts, codes, minter, logger)
	payments := payment.NewClient(payment.Config{})
	hub := websocket.NewHub(logger)
	announcer := push.NewAnnouncer(push.NewService("", ""), store.NewPushStore(db), logger)

	return &checkoutFixture{
		handler:  NewCheckoutHandler(menu, orders, ledger, payments, hub, announcer, logger),
		menu:     menu,
		orders:   orders,
		accounts: accounts,
		ledger:   ledger,
	}
}

func (f *checkoutFixture) post(t *testing.T, req checkoutRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rec := httptest.NewRecorder()
	f.handler.Checkout(rec, httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewReader(body)))
	return rec
}

func TestCheckoutCashOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	item, err := f.menu.Create("Flat White", "فلات وايت", "coffee", money.Amount(1800), true)
	if err != nil {
		t.Fatalf("create menu item: %v", err)
	}

	rec := f.post(t, checkoutRequest{
		BranchID:      1,
		Type:          model.OrderTypePickup,
		PaymentMethod: model.PaymentCash,
		CustomerName:  "Ali",
		Items:         []cartItem{{CoffeeItemID: item.ID, Quantity: 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Order.Subtotal != 3600 || resp.Order.Total != 3600 {
		t.Errorf("order = subtotal %d, total %d, want 3600, 3600", resp.Order.Subtotal, resp.Order.Total)
	}
	if resp.Order.Number != 1 {
		t.Errorf("number = %d, want 1", resp.Order.Number)
	}
}

func TestCheckoutStackedBenefitsClampTotal(t *testing.T) {
	f := newCheckoutFixture(t)
	item, err := f.menu.Create("Flat White", "فلات وايت", "coffee", money.Amount(1800), true)
	if err != nil {
		t.Fatalf("create menu item: %v", err)
	}

	acct, err := f.ledger.FindOrCreate("Ali", "0500000000")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	// Eleven lifetime stamps: five into the current cycle, so the 10%
	// discount is offered, with one earned free cup unredeemed.
	for i := 0; i < 11; i++ {
		if _, err := f.accounts.AddStamp(acct.ID); err != nil {
			t.Fatalf("add stamp: %v", err)
		}
	}

	rec := f.post(t, checkoutRequest{
		BranchID:      1,
		Type:          model.OrderTypePickup,
		PaymentMethod: model.PaymentCash,
		CustomerName:  "Ali",
		LoyaltyToken:  acct.QRToken,
		ApplyDiscount: true,
		ApplyFreeItem: true,
		Items:         []cartItem{{CoffeeItemID: item.ID, Quantity: 1}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp checkoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	o := resp.Order
	if o.Total < 0 {
		t.Fatalf("total went negative: %d", o.Total)
	}
	// Free drink plus 10% on a one-drink cart: the discount is capped at
	// the subtotal, never beyond.
	if o.Subtotal != 1800 || o.Discount != 1800 || o.Total != 0 {
		t.Errorf("order = subtotal %d, discount %d, total %d, want 1800, 1800, 0", o.Subtotal, o.Discount, o.Total)
	}
	if !o.DiscountApplied || !o.FreeItemApplied {
		t.Error("both benefit flags should be set")
	}

	persisted, _ := f.orders.GetByID(o.ID)
	if persisted == nil || persisted.Total != 0 {
		t.Error("persisted order should carry the clamped total")
	}

	got, _ := f.accounts.GetByID(acct.ID)
	if got.FreeCupsRedeemed != 1 {
		t.Errorf("free cups redeemed = %d, want 1", got.FreeCupsRedeemed)
	}
}

func TestCheckoutFreeItemWithoutBalance(t *testing.T) {
	f := newCheckoutFixture(t)
	item, _ := f.menu.Create("Espresso", "إسبريسو", "coffee", money.Amount(1200), true)
	acct, err := f.ledger.FindOrCreate("Ali", "0500000000")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	rec := f.post(t, checkoutRequest{
		BranchID:      1,
		Type:          model.OrderTypePickup,
		PaymentMethod: model.PaymentCash,
		CustomerName:  "Ali",
		LoyaltyToken:  acct.QRToken,
		ApplyFreeItem: true,
		Items:         []cartItem{{CoffeeItemID: item.ID, Quantity: 1}},
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 with no free cups", rec.Code)
	}
}
