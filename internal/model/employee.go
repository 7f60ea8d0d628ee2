package model

import "time"

// Employee roles.
const (
	RoleCashier = "cashier"
	RoleAdmin   = "admin"
)

type Employee struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	BranchID     *int64    `json:"branch_id,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Session struct {
	ID         int64     `json:"id"`
	EmployeeID int64     `json:"employee_id"`
	Token      string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
