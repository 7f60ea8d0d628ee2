package store

import (
	"testing"
	"time"

	"github.com/finjaanapp/finjaan/internal/database"
	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
	"github.com/finjaanapp/finjaan/internal/order"
)

func setupOrderTestDB(t *testing.T) *OrderStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrderStore(db)
}

// testOrder builds a two-drink pickup order against the seeded Main branch.
func testOrder(publicID string) *model.Order {
	return &model.Order{
		PublicID:      publicID,
		BranchID:      1,
		Type:          model.OrderTypePickup,
		Subtotal:      money.Amount(3000),
		Total:         money.Amount(3000),
		PaymentMethod: "cash",
		CustomerName:  "Ali",
		Items: []model.OrderItem{
			{CoffeeItemID: 1, Name: "Flat White", NameAr: "فلات وايت", UnitPrice: 1800, Quantity: 1},
			{CoffeeItemID: 2, Name: "Espresso", NameAr: "إسبريسو", UnitPrice: 1200, Quantity: 1},
		},
	}
}

func TestOrderCreateAssignsDailyNumbers(t *testing.T) {
	os := setupOrderTestDB(t)

	first, err := os.Create(testOrder("pub-1"))
	if err != nil {
		t.Fatalf("create first order: %v", err)
	}
	second, err := os.Create(testOrder("pub-2"))
	if err != nil {
		t.Fatalf("create second order: %v", err)
	}

	if first.Number != 1 || second.Number != 2 {
		t.Errorf("numbers = %d, %d, want 1, 2", first.Number, second.Number)
	}
	if first.Status != string(order.StatusPending) {
		t.Errorf("status = %q, want pending", first.Status)
	}
	if len(first.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(first.Items))
	}
	if first.Items[0].Name != "Flat White" || first.Items[0].UnitPrice != 1800 {
		t.Errorf("first item = %+v", first.Items[0])
	}
}

func TestOrderGetByPublicID(t *testing.T) {
	os := setupOrderTestDB(t)
	created, _ := os.Create(testOrder("pub-track"))

	got, err := os.GetByPublicID("pub-track")
	if err != nil {
		t.Fatalf("get by public id: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Error("expected tracking lookup to find the order")
	}

	missing, err := os.GetByPublicID("no-such")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown public id")
	}
}

func TestOrderUpdateStatusIsConditional(t *testing.T) {
	os := setupOrderTestDB(t)
	o, _ := os.Create(testOrder("pub-1"))

	applied, err := os.UpdateStatus(o.ID, order.StatusPending, order.StatusInProgress)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !applied {
		t.Fatal("first writer should win")
	}

	// A second writer still holding the pending snapshot loses.
	applied, err = os.UpdateStatus(o.ID, order.StatusPending, order.StatusCancelled)
	if err != nil {
		t.Fatalf("stale update: %v", err)
	}
	if applied {
		t.Error("stale writer must lose")
	}

	got, _ := os.GetByID(o.ID)
	if got.Status != string(order.StatusInProgress) {
		t.Errorf("status = %q, want in_progress", got.Status)
	}
}

func TestApplyDiscountAtMostOnce(t *testing.T) {
	os := setupOrderTestDB(t)
	o, _ := os.Create(testOrder("pub-1"))

	applied, err := os.ApplyDiscount(o.ID, money.Amount(300))
	if err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if !applied {
		t.Fatal("first discount should apply")
	}

	got, _ := os.GetByID(o.ID)
	if got.Discount != 300 || got.Total != 2700 || !got.DiscountApplied {
		t.Errorf("after discount: discount = %d, total = %d, applied = %v", got.Discount, got.Total, got.DiscountApplied)
	}

	applied, _ = os.ApplyDiscount(o.ID, money.Amount(300))
	if applied {
		t.Error("second discount must be rejected")
	}
}

func TestApplyFreeItemAtMostOnce(t *testing.T) {
	os := setupOrderTestDB(t)
	o, _ := os.Create(testOrder("pub-1"))

	applied, err := os.ApplyFreeItem(o.ID, money.Amount(1800))
	if err != nil {
		t.Fatalf("apply free item: %v", err)
	}
	if !applied {
		t.Fatal("first free item should apply")
	}

	got, _ := os.GetByID(o.ID)
	if got.Total != 1200 || !got.FreeItemApplied {
		t.Errorf("after free item: total = %d, applied = %v", got.Total, got.FreeItemApplied)
	}

	applied, _ = os.ApplyFreeItem(o.ID, money.Amount(1200))
	if applied {
		t.Error("second free item must be rejected")
	}
}

func TestStackedBenefitsNeverOverdrawTotal(t *testing.T) {
	os := setupOrderTestDB(t)

	// Single-drink order: the free item is worth the whole subtotal.
	o := testOrder("pub-1")
	o.Items = o.Items[:1]
	o.Subtotal = 1800
	o.Total = 1800
	created, err := os.Create(o)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	applied, err := os.ApplyDiscount(created.ID, money.Amount(180))
	if err != nil || !applied {
		t.Fatalf("apply discount: applied = %v, err = %v", applied, err)
	}

	// The full drink price no longer fits; the guard rejects it.
	applied, err = os.ApplyFreeItem(created.ID, money.Amount(1800))
	if err != nil {
		t.Fatalf("apply free item: %v", err)
	}
	if applied {
		t.Error("free item exceeding the remaining total must be rejected")
	}

	// Clamped to the remaining balance it lands, leaving exactly zero.
	applied, err = os.ApplyFreeItem(created.ID, money.Amount(1620))
	if err != nil || !applied {
		t.Fatalf("apply clamped free item: applied = %v, err = %v", applied, err)
	}

	got, _ := os.GetByID(created.ID)
	if got.Total != 0 || got.Discount != 1800 {
		t.Errorf("after both benefits: total = %d, discount = %d, want 0, 1800", got.Total, got.Discount)
	}
}

func TestApplyDiscountRejectsFinalizedOrder(t *testing.T) {
	os := setupOrderTestDB(t)
	o, _ := os.Create(testOrder("pub-1"))

	os.UpdateStatus(o.ID, order.StatusPending, order.StatusCancelled)

	applied, err := os.ApplyDiscount(o.ID, money.Amount(300))
	if err != nil {
		t.Fatalf("apply discount: %v", err)
	}
	if applied {
		t.Error("discount on a cancelled order must be rejected")
	}

	got, _ := os.GetByID(o.ID)
	if got.Discount != 0 || got.Total != 3000 {
		t.Errorf("cancelled order mutated: discount = %d, total = %d", got.Discount, got.Total)
	}
}

func TestListBoardShowsOpenOrders(t *testing.T) {
	os := setupOrderTestDB(t)
	open, _ := os.Create(testOrder("pub-open"))
	done, _ := os.Create(testOrder("pub-done"))

	os.UpdateStatus(done.ID, order.StatusPending, order.StatusCancelled)

	board, err := os.ListBoard()
	if err != nil {
		t.Fatalf("list board: %v", err)
	}
	// Both created today, so both appear; the open one first.
	if len(board) != 2 {
		t.Fatalf("board size = %d, want 2", len(board))
	}
	if board[0].ID != open.ID {
		t.Errorf("board[0].ID = %d, want %d", board[0].ID, open.ID)
	}
	if len(board[0].Items) != 2 {
		t.Errorf("board orders should carry items, got %d", len(board[0].Items))
	}
}

func TestDailyTotalsCountsCompletedOnly(t *testing.T) {
	os := setupOrderTestDB(t)

	a, _ := os.Create(testOrder("pub-a"))
	b, _ := os.Create(testOrder("pub-b"))
	os.Create(testOrder("pub-c")) // stays pending

	for _, o := range []*model.Order{a, b} {
		os.UpdateStatus(o.ID, order.StatusPending, order.StatusInProgress)
		os.UpdateStatus(o.ID, order.StatusInProgress, order.StatusReady)
		os.UpdateStatus(o.ID, order.StatusReady, order.StatusCompleted)
	}

	count, total, err := os.DailyTotals(time.Now())
	if err != nil {
		t.Fatalf("daily totals: %v", err)
	}
	if count != 2 || total != 6000 {
		t.Errorf("totals = (%d, %d), want (2, 6000)", count, total)
	}

	count, total, err = os.DailyTotals(time.Now().AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("daily totals yesterday: %v", err)
	}
	if count != 0 || total != 0 {
		t.Errorf("yesterday totals = (%d, %d), want (0, 0)", count, total)
	}
}
