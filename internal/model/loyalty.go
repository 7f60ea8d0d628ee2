package model

import (
	"time"

	"github.com/finjaanapp/finjaan/internal/money"
)

// StampsPerCycle is the number of stamps that fills a loyalty card and
// earns one free cup.
const StampsPerCycle = 6

type LoyaltyAccount struct {
	ID               int64        `json:"id"`
	CustomerName     string       `json:"customer_name"`
	PhoneNumber      string       `json:"phone_number"`
	LifetimeStamps   int          `json:"lifetime_stamps"`
	Tier             string       `json:"tier"`
	FreeCupsEarned   int          `json:"free_cups_earned"`
	FreeCupsRedeemed int          `json:"free_cups_redeemed"`
	DiscountCount    int          `json:"discount_count"`
	TotalSpent       money.Amount `json:"total_spent"`
	QRToken          string       `json:"qr_token"`
	CardNumber       string       `json:"card_number"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Stamps is the current-cycle progress shown on the card (0..5).
func (a *LoyaltyAccount) Stamps() int {
	return a.LifetimeStamps % StampsPerCycle
}

// FreeCupsAvailable is the number of free cups earned but not yet redeemed.
func (a *LoyaltyAccount) FreeCupsAvailable() int {
	return a.FreeCupsEarned - a.FreeCupsRedeemed
}

type RedemptionCode struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	MintedBy  *int64     `json:"minted_by,omitempty"`
	UsedBy    *int64     `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
