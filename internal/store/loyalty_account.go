package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
)

type LoyaltyAccountStore struct {
	db *sql.DB
}

func NewLoyaltyAccountStore(db *sql.DB) *LoyaltyAccountStore {
	return &LoyaltyAccountStore{db: db}
}

func scanLoyaltyAccount(scanner interface{ Scan(...any) error }) (*model.LoyaltyAccount, error) {
	var a model.LoyaltyAccount
	var totalSpent int64

	err := scanner.Scan(
		&a.ID, &a.CustomerName, &a.PhoneNumber, &a.LifetimeStamps, &a.Tier,
		&a.FreeCupsEarned, &a.FreeCupsRedeemed, &a.DiscountCount, &totalSpent,
		&a.QRToken, &a.CardNumber, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.TotalSpent = money.Amount(totalSpent)
	return &a, nil
}

const loyaltyAccountCols = `id, customer_name, phone_number, lifetime_stamps, tier,
	free_cups_earned, free_cups_redeemed, discount_count, total_spent,
	qr_token, card_number, created_at, updated_at`

func (s *LoyaltyAccountStore) Create(name, phone, qrToken, cardNumber string) (*model.LoyaltyAccount, error) {
	result, err := s.db.Exec(
		`INSERT INTO loyalty_accounts (customer_name, phone_number, qr_token, card_number) VALUES (?, ?, ?, ?)`,
		name, phone, qrToken, cardNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("insert loyalty account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LoyaltyAccountStore) GetByID(id int64) (*model.LoyaltyAccount, error) {
	row := s.db.QueryRow(`SELECT `+loyaltyAccountCols+` FROM loyalty_accounts WHERE id = ?`, id)
	a, err := scanLoyaltyAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loyalty account: %w", err)
	}
	return a, nil
}

func (s *LoyaltyAccountStore) GetByPhone(phone string) (*model.LoyaltyAccount, error) {
	row := s.db.QueryRow(`SELECT `+loyaltyAccountCols+` FROM loyalty_accounts WHERE phone_number = ?`, phone)
	a, err := scanLoyaltyAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loyalty account by phone: %w", err)
	}
	return a, nil
}

func (s *LoyaltyAccountStore) GetByToken(token string) (*model.LoyaltyAccount, error) {
	row := s.db.QueryRow(`SELECT `+loyaltyAccountCols+` FROM loyalty_accounts WHERE qr_token = ?`, token)
	a, err := scanLoyaltyAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get loyalty account by token: %w", err)
	}
	return a, nil
}

// AddStamp credits one lifetime stamp and rolls the free-cup counter in
// the same statement, keeping free_cups_earned == lifetime_stamps / 6.
func (s *LoyaltyAccountStore) AddStamp(id int64) (*model.LoyaltyAccount, error) {
	_, err := s.db.Exec(
		`UPDATE loyalty_accounts
		 SET lifetime_stamps = lifetime_stamps + 1,
		     free_cups_earned = (lifetime_stamps + 1) / 6,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("add stamp: %w", err)
	}
	return s.GetByID(id)
}

// RedeemFreeCup marks one earned cup as consumed. Returns false when the
// account has no available balance; the check and the increment are one
// conditional update so concurrent redemptions cannot overdraw.
func (s *LoyaltyAccountStore) RedeemFreeCup(id int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE loyalty_accounts
		 SET free_cups_redeemed = free_cups_redeemed + 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND free_cups_earned - free_cups_redeemed > 0`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("redeem free cup: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RecordPurchase applies the completed-order credit: one stamp, the spent
// amount, and the discount counter when a discount was used.
func (s *LoyaltyAccountStore) RecordPurchase(id int64, amount money.Amount, discountApplied bool) (*model.LoyaltyAccount, error) {
	var d int
	if discountApplied {
		d = 1
	}

	_, err := s.db.Exec(
		`UPDATE loyalty_accounts
		 SET lifetime_stamps = lifetime_stamps + 1,
		     free_cups_earned = (lifetime_stamps + 1) / 6,
		     total_spent = total_spent + ?,
		     discount_count = discount_count + ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		int64(amount), d, id,
	)
	if err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}
	return s.GetByID(id)
}

func (s *LoyaltyAccountStore) SetTier(id int64, tier string) (*model.LoyaltyAccount, error) {
	_, err := s.db.Exec(
		`UPDATE loyalty_accounts SET tier = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		tier, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set tier: %w", err)
	}
	return s.GetByID(id)
}

// List returns all accounts, most recently updated first.
func (s *LoyaltyAccountStore) List() ([]model.LoyaltyAccount, error) {
	rows, err := s.db.Query(`SELECT ` + loyaltyAccountCols + ` FROM loyalty_accounts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list loyalty accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.LoyaltyAccount
	for rows.Next() {
		a, err := scanLoyaltyAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loyalty account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}
