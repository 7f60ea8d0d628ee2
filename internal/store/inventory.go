package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
)

type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

func scanInventoryItem(scanner interface{ Scan(...any) error }) (*model.InventoryItem, error) {
	var it model.InventoryItem
	err := scanner.Scan(&it.ID, &it.BranchID, &it.Name, &it.Unit, &it.Quantity, &it.LowThreshold, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

const inventoryCols = `id, branch_id, name, unit, quantity, low_threshold, updated_at`

func (s *InventoryStore) Create(branchID int64, name, unit string, quantity, lowThreshold int64) (*model.InventoryItem, error) {
	result, err := s.db.Exec(
		`INSERT INTO inventory_items (branch_id, name, unit, quantity, low_threshold) VALUES (?, ?, ?, ?, ?)`,
		branchID, name, unit, quantity, lowThreshold,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *InventoryStore) GetByID(id int64) (*model.InventoryItem, error) {
	row := s.db.QueryRow(`SELECT `+inventoryCols+` FROM inventory_items WHERE id = ?`, id)
	it, err := scanInventoryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory item: %w", err)
	}
	return it, nil
}

func (s *InventoryStore) ListByBranch(branchID int64) ([]model.InventoryItem, error) {
	rows, err := s.db.Query(
		`SELECT `+inventoryCols+` FROM inventory_items WHERE branch_id = ? ORDER BY name ASC`,
		branchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListLow returns items at or below their restock threshold across all branches.
func (s *InventoryStore) ListLow() ([]model.InventoryItem, error) {
	rows, err := s.db.Query(
		`SELECT ` + inventoryCols + ` FROM inventory_items WHERE quantity <= low_threshold ORDER BY branch_id ASC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list low inventory: %w", err)
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		it, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// Adjust changes the quantity by delta and refuses to go negative.
func (s *InventoryStore) Adjust(id int64, delta int64) (*model.InventoryItem, error) {
	result, err := s.db.Exec(
		`UPDATE inventory_items
		 SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity + ? >= 0`,
		delta, id, delta,
	)
	if err != nil {
		return nil, fmt.Errorf("adjust inventory: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("adjust inventory: would go negative")
	}
	return s.GetByID(id)
}

func (s *InventoryStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete inventory item: %w", err)
	}
	return nil
}
