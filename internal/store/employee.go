package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
)

type EmployeeStore struct {
	db *sql.DB
}

func NewEmployeeStore(db *sql.DB) *EmployeeStore {
	return &EmployeeStore{db: db}
}

func scanEmployee(scanner interface{ Scan(...any) error }) (*model.Employee, error) {
	var e model.Employee
	var branchID sql.NullInt64

	err := scanner.Scan(&e.ID, &e.Email, &e.Name, &e.Role, &branchID, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		return nil, err
	}

	if branchID.Valid {
		e.BranchID = &branchID.Int64
	}
	return &e, nil
}

const employeeCols = `id, email, name, role, branch_id, password_hash, created_at`

func (s *EmployeeStore) Create(email, name, role, passwordHash string, branchID *int64) (*model.Employee, error) {
	var bID sql.NullInt64
	if branchID != nil {
		bID = sql.NullInt64{Int64: *branchID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO employees (email, name, role, branch_id, password_hash) VALUES (?, ?, ?, ?, ?)`,
		email, name, role, bID, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EmployeeStore) GetByID(id int64) (*model.Employee, error) {
	row := s.db.QueryRow(`SELECT `+employeeCols+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

func (s *EmployeeStore) GetByEmail(email string) (*model.Employee, error) {
	row := s.db.QueryRow(`SELECT `+employeeCols+` FROM employees WHERE email = ?`, email)
	e, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by email: %w", err)
	}
	return e, nil
}

func (s *EmployeeStore) List() ([]model.Employee, error) {
	rows, err := s.db.Query(`SELECT ` + employeeCols + ` FROM employees ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (s *EmployeeStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	return nil
}
