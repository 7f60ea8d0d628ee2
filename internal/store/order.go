package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
	"github.com/finjaanapp/finjaan/internal/order"
)

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func scanOrder(scanner interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var subtotal, discount, total int64
	var paymentRef sql.NullString
	var loyaltyAccountID sql.NullInt64
	var discountApplied, freeItemApplied int

	err := scanner.Scan(
		&o.ID, &o.PublicID, &o.Number, &o.BranchID, &o.Type, &o.Status,
		&subtotal, &discount, &total, &o.PaymentMethod, &paymentRef,
		&o.CustomerName, &o.CustomerPhone, &loyaltyAccountID,
		&discountApplied, &freeItemApplied, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Subtotal = money.Amount(subtotal)
	o.Discount = money.Amount(discount)
	o.Total = money.Amount(total)
	if paymentRef.Valid {
		o.PaymentRef = &paymentRef.String
	}
	if loyaltyAccountID.Valid {
		o.LoyaltyAccountID = &loyaltyAccountID.Int64
	}
	o.DiscountApplied = discountApplied != 0
	o.FreeItemApplied = freeItemApplied != 0
	return &o, nil
}

const orderCols = `id, public_id, number, branch_id, type, status,
	subtotal, discount, total, payment_method, payment_ref,
	customer_name, customer_phone, loyalty_account_id,
	discount_applied, free_item_applied, created_at, updated_at`

// Create inserts an order with its items in one transaction and assigns
// the next display number for the current day.
func (s *OrderStore) Create(o *model.Order) (*model.Order, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback()

	var number int64
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(number), 0) + 1 FROM orders WHERE date(created_at) = date('now')`,
	).Scan(&number)
	if err != nil {
		return nil, fmt.Errorf("next order number: %w", err)
	}

	var paymentRef any
	if o.PaymentRef != nil {
		paymentRef = *o.PaymentRef
	}
	var accountID any
	if o.LoyaltyAccountID != nil {
		accountID = *o.LoyaltyAccountID
	}
	var discountApplied, freeItemApplied int
	if o.DiscountApplied {
		discountApplied = 1
	}
	if o.FreeItemApplied {
		freeItemApplied = 1
	}

	result, err := tx.Exec(
		`INSERT INTO orders (public_id, number, branch_id, type, status,
			subtotal, discount, total, payment_method, payment_ref,
			customer_name, customer_phone, loyalty_account_id,
			discount_applied, free_item_applied)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.PublicID, number, o.BranchID, o.Type, string(order.StatusPending),
		int64(o.Subtotal), int64(o.Discount), int64(o.Total), o.PaymentMethod, paymentRef,
		o.CustomerName, o.CustomerPhone, accountID,
		discountApplied, freeItemApplied,
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(
			`INSERT INTO order_items (order_id, coffee_item_id, name, name_ar, unit_price, quantity)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, it.CoffeeItemID, it.Name, it.NameAr, int64(it.UnitPrice), it.Quantity,
		); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create order: %w", err)
	}
	return s.GetByID(id)
}

func (s *OrderStore) GetByID(id int64) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := s.loadItems(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) GetByPublicID(publicID string) (*model.Order, error) {
	row := s.db.QueryRow(`SELECT `+orderCols+` FROM orders WHERE public_id = ?`, publicID)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order by public id: %w", err)
	}
	if err := s.loadItems(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *OrderStore) loadItems(o *model.Order) error {
	rows, err := s.db.Query(
		`SELECT id, order_id, coffee_item_id, name, name_ar, unit_price, quantity
		 FROM order_items WHERE order_id = ? ORDER BY id ASC`,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		var unitPrice int64
		if err := rows.Scan(&it.ID, &it.OrderID, &it.CoffeeItemID, &it.Name, &it.NameAr, &unitPrice, &it.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		it.UnitPrice = money.Amount(unitPrice)
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

// UpdateStatus applies from -> to only when the order is still in `from`.
// Returns false when another writer moved the order first.
func (s *OrderStore) UpdateStatus(id int64, from, to order.Status) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ApplyDiscount records a percent discount on an open order. Conditional
// on the order being open, undiscounted, and able to absorb the amount,
// so the discount applies at most once and the total stays at or above
// zero even when both benefits race.
func (s *OrderStore) ApplyDiscount(id int64, discount money.Amount) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE orders
		 SET discount = discount + ?, total = total - ?, discount_applied = 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status NOT IN ('completed', 'cancelled')
		   AND discount_applied = 0 AND total >= ?`,
		int64(discount), int64(discount), id, int64(discount),
	)
	if err != nil {
		return false, fmt.Errorf("apply order discount: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ApplyFreeItem zeroes one drink's value on an open order. Conditional
// like ApplyDiscount: at most one free item per order, never overdrawing
// the total.
func (s *OrderStore) ApplyFreeItem(id int64, value money.Amount) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE orders
		 SET discount = discount + ?, total = total - ?, free_item_applied = 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status NOT IN ('completed', 'cancelled')
		   AND free_item_applied = 0 AND total >= ?`,
		int64(value), int64(value), id, int64(value),
	)
	if err != nil {
		return false, fmt.Errorf("apply free item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SetPaymentRef records the payment processor reference for a card order.
func (s *OrderStore) SetPaymentRef(id int64, ref string) error {
	_, err := s.db.Exec(
		`UPDATE orders SET payment_ref = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ref, id,
	)
	if err != nil {
		return fmt.Errorf("set payment ref: %w", err)
	}
	return nil
}

// ListBoard returns the orders a cashier console shows: everything not
// yet finalized plus today's finalized orders, oldest first.
func (s *OrderStore) ListBoard() ([]model.Order, error) {
	rows, err := s.db.Query(
		`SELECT ` + orderCols + ` FROM orders
		 WHERE status NOT IN ('completed', 'cancelled') OR date(created_at) = date('now')
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list order board: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadItems(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListByStatus returns orders in the given status, oldest first.
func (s *OrderStore) ListByStatus(status order.Status) ([]model.Order, error) {
	rows, err := s.db.Query(
		`SELECT `+orderCols+` FROM orders WHERE status = ? ORDER BY created_at ASC`,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// DailyTotals sums completed orders for the accounting dashboard.
func (s *OrderStore) DailyTotals(day time.Time) (count int64, total money.Amount, err error) {
	var sum sql.NullInt64
	err = s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders
		 WHERE status = 'completed' AND date(created_at) = date(?)`,
		day.Format("2006-01-02"),
	).Scan(&count, &sum)
	if err != nil {
		return 0, 0, fmt.Errorf("daily totals: %w", err)
	}
	return count, money.Amount(sum.Int64), nil
}
