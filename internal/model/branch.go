package model

import "time"

type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	OpenHours string    `json:"open_hours"`
	CreatedAt time.Time `json:"created_at"`
}

type InventoryItem struct {
	ID           int64     `json:"id"`
	BranchID     int64     `json:"branch_id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	Quantity     int64     `json:"quantity"`
	LowThreshold int64     `json:"low_threshold"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Low reports whether the item is at or below its restock threshold.
func (it InventoryItem) Low() bool {
	return it.Quantity <= it.LowThreshold
}
