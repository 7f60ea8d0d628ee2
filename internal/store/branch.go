package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
)

type BranchStore struct {
	db *sql.DB
}

func NewBranchStore(db *sql.DB) *BranchStore {
	return &BranchStore{db: db}
}

func scanBranch(scanner interface{ Scan(...any) error }) (*model.Branch, error) {
	var b model.Branch
	err := scanner.Scan(&b.ID, &b.Name, &b.Address, &b.Phone, &b.OpenHours, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const branchCols = `id, name, address, phone, open_hours, created_at`

func (s *BranchStore) Create(name, address, phone, openHours string) (*model.Branch, error) {
	result, err := s.db.Exec(
		`INSERT INTO branches (name, address, phone, open_hours) VALUES (?, ?, ?, ?)`,
		name, address, phone, openHours,
	)
	if err != nil {
		return nil, fmt.Errorf("insert branch: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BranchStore) GetByID(id int64) (*model.Branch, error) {
	row := s.db.QueryRow(`SELECT `+branchCols+` FROM branches WHERE id = ?`, id)
	b, err := scanBranch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return b, nil
}

func (s *BranchStore) List() ([]model.Branch, error) {
	rows, err := s.db.Query(`SELECT ` + branchCols + ` FROM branches ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var branches []model.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, *b)
	}
	return branches, rows.Err()
}

func (s *BranchStore) Update(id int64, name, address, phone, openHours string) (*model.Branch, error) {
	_, err := s.db.Exec(
		`UPDATE branches SET name = ?, address = ?, phone = ?, open_hours = ? WHERE id = ?`,
		name, address, phone, openHours, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update branch: %w", err)
	}
	return s.GetByID(id)
}

func (s *BranchStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM branches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}
