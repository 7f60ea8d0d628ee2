package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
)

type MenuStore struct {
	db *sql.DB
}

func NewMenuStore(db *sql.DB) *MenuStore {
	return &MenuStore{db: db}
}

func scanCoffeeItem(scanner interface{ Scan(...any) error }) (*model.CoffeeItem, error) {
	var it model.CoffeeItem
	var price int64
	var available int

	err := scanner.Scan(&it.ID, &it.Name, &it.NameAr, &it.Category, &price, &available, &it.CreatedAt)
	if err != nil {
		return nil, err
	}

	it.Price = money.Amount(price)
	it.Available = available != 0
	return &it, nil
}

const coffeeItemCols = `id, name, name_ar, category, price, available, created_at`

func (s *MenuStore) Create(name, nameAr, category string, price money.Amount, available bool) (*model.CoffeeItem, error) {
	var a int
	if available {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO coffee_items (name, name_ar, category, price, available) VALUES (?, ?, ?, ?, ?)`,
		name, nameAr, category, int64(price), a,
	)
	if err != nil {
		return nil, fmt.Errorf("insert coffee item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MenuStore) GetByID(id int64) (*model.CoffeeItem, error) {
	row := s.db.QueryRow(`SELECT `+coffeeItemCols+` FROM coffee_items WHERE id = ?`, id)
	it, err := scanCoffeeItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coffee item: %w", err)
	}
	return it, nil
}

// List returns the whole menu, available items first, then by category and name.
func (s *MenuStore) List() ([]model.CoffeeItem, error) {
	rows, err := s.db.Query(`SELECT ` + coffeeItemCols + ` FROM coffee_items ORDER BY available DESC, category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list coffee items: %w", err)
	}
	defer rows.Close()

	var items []model.CoffeeItem
	for rows.Next() {
		it, err := scanCoffeeItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coffee item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListAvailable returns only items customers can order right now.
func (s *MenuStore) ListAvailable() ([]model.CoffeeItem, error) {
	rows, err := s.db.Query(`SELECT ` + coffeeItemCols + ` FROM coffee_items WHERE available = 1 ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list available coffee items: %w", err)
	}
	defer rows.Close()

	var items []model.CoffeeItem
	for rows.Next() {
		it, err := scanCoffeeItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coffee item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *MenuStore) Update(id int64, name, nameAr, category string, price money.Amount, available bool) (*model.CoffeeItem, error) {
	var a int
	if available {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE coffee_items SET name = ?, name_ar = ?, category = ?, price = ?, available = ? WHERE id = ?`,
		name, nameAr, category, int64(price), a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update coffee item: %w", err)
	}
	return s.GetByID(id)
}

func (s *MenuStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM coffee_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete coffee item: %w", err)
	}
	return nil
}
