package store

import (
	"database/sql"
	"fmt"

	"github.com/finjaanapp/finjaan/internal/model"
)

type RedemptionCodeStore struct {
	db *sql.DB
}

func NewRedemptionCodeStore(db *sql.DB) *RedemptionCodeStore {
	return &RedemptionCodeStore{db: db}
}

func scanRedemptionCode(scanner interface{ Scan(...any) error }) (*model.RedemptionCode, error) {
	var c model.RedemptionCode
	var mintedBy, usedBy sql.NullInt64
	var usedAt sql.NullTime

	err := scanner.Scan(&c.ID, &c.Code, &mintedBy, &usedBy, &usedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if mintedBy.Valid {
		c.MintedBy = &mintedBy.Int64
	}
	if usedBy.Valid {
		c.UsedBy = &usedBy.Int64
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return &c, nil
}

const redemptionCodeCols = `id, code, minted_by, used_by, used_at, created_at`

// Mint inserts a batch of fresh codes in one transaction.
func (s *RedemptionCodeStore) Mint(codes []string, mintedBy *int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin mint: %w", err)
	}
	defer tx.Rollback()

	var mBy sql.NullInt64
	if mintedBy != nil {
		mBy = sql.NullInt64{Int64: *mintedBy, Valid: true}
	}

	for _, code := range codes {
		if _, err := tx.Exec(
			`INSERT INTO redemption_codes (code, minted_by) VALUES (?, ?)`,
			code, mBy,
		); err != nil {
			return fmt.Errorf("insert code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mint: %w", err)
	}
	return nil
}

func (s *RedemptionCodeStore) GetByCode(code string) (*model.RedemptionCode, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCodeCols+` FROM redemption_codes WHERE code = ?`, code)
	c, err := scanRedemptionCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption code: %w", err)
	}
	return c, nil
}

// Consume marks a code used by the given account. Returns false when the
// code was already consumed: the used_at guard makes exactly one caller
// win per code.
func (s *RedemptionCodeStore) Consume(code string, accountID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE redemption_codes
		 SET used_by = ?, used_at = CURRENT_TIMESTAMP
		 WHERE code = ? AND used_at IS NULL`,
		accountID, code,
	)
	if err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListUnused returns codes that have not been consumed yet, oldest first.
func (s *RedemptionCodeStore) ListUnused(limit int) ([]model.RedemptionCode, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCodeCols+` FROM redemption_codes WHERE used_at IS NULL ORDER BY created_at ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unused codes: %w", err)
	}
	defer rows.Close()

	var codes []model.RedemptionCode
	for rows.Next() {
		c, err := scanRedemptionCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, *c)
	}
	return codes, rows.Err()
}
