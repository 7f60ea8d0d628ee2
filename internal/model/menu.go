package model

import (
	"time"

	"github.com/finjaanapp/finjaan/internal/money"
)

type CoffeeItem struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	NameAr    string       `json:"name_ar,omitempty"`
	Category  string       `json:"category"`
	Price     money.Amount `json:"price"`
	Available bool         `json:"available"`
	CreatedAt time.Time    `json:"created_at"`
}
