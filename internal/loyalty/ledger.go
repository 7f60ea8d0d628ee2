package loyalty

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
)

// AccountRepo is the persistence seam for loyalty accounts. Counter
// mutations are atomic in the repository so two concurrent credits to the
// same account never interleave.
type AccountRepo interface {
	GetByID(id int64) (*model.LoyaltyAccount, error)
	GetByPhone(phone string) (*model.LoyaltyAccount, error)
	GetByToken(token string) (*model.LoyaltyAccount, error)
	Create(name, phone, qrToken, cardNumber string) (*model.LoyaltyAccount, error)
	AddStamp(id int64) (*model.LoyaltyAccount, error)
	RedeemFreeCup(id int64) (bool, error)
	RecordPurchase(id int64, amount money.Amount, discountApplied bool) (*model.LoyaltyAccount, error)
	SetTier(id int64, tier string) (*model.LoyaltyAccount, error)
}

// CodeRepo is the persistence seam for single-use redemption codes.
// Consume must be atomic: exactly one caller wins for a given code.
type CodeRepo interface {
	GetByCode(code string) (*model.RedemptionCode, error)
	Consume(code string, accountID int64) (bool, error)
	Mint(codes []string, mintedBy *int64) error
}

// CardMinter supplies the opaque identifiers printed on a new card.
type CardMinter interface {
	MintCard() (cardNumber, qrToken string, err error)
}

// Eligibility answers the two checkout questions for an account.
type Eligibility struct {
	TenPercentAvailable bool `json:"ten_percent_available"`
	FreeDrinkAvailable  bool `json:"free_drink_available"`
}

// Ledger maintains per-customer stamp, tier and free-cup state.
type Ledger struct {
	accounts AccountRepo
	codes    CodeRepo
	minter   CardMinter
	logger   *slog.Logger
}

func NewLedger(accounts AccountRepo, codes CodeRepo, minter CardMinter, logger *slog.Logger) *Ledger {
	return &Ledger{accounts: accounts, codes: codes, minter: minter, logger: logger}
}

// phoneRe accepts local Saudi numbers (05xxxxxxxx) and the international
// form with an optional leading +.
var phoneRe = regexp.MustCompile(`^\+?[0-9]{9,13}$`)

// NormalizePhone strips separators and validates the result.
func NormalizePhone(phone string) (string, error) {
	phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)
	if !phoneRe.MatchString(phone) {
		return "", fmt.Errorf("%w: phone number", ErrValidation)
	}
	return phone, nil
}

// FindOrCreate looks an account up by phone number, creating it on first
// contact. Phone is the natural key: one account per number.
func (l *Ledger) FindOrCreate(name, phone string) (*model.LoyaltyAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: customer name", ErrValidation)
	}
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	acct, err := l.accounts.GetByPhone(phone)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if acct != nil {
		return acct, nil
	}

	cardNumber, qrToken, err := l.minter.MintCard()
	if err != nil {
		return nil, fmt.Errorf("mint card: %w", err)
	}

	acct, err = l.accounts.Create(name, phone, qrToken, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	l.logger.Info("loyalty account created", "account_id", acct.ID, "card_number", acct.CardNumber)
	return acct, nil
}

// LookupByToken resolves a scanned card QR token to its account.
func (l *Ledger) LookupByToken(token string) (*model.LoyaltyAccount, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token", ErrValidation)
	}
	acct, err := l.accounts.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("lookup by token: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	return acct, nil
}

// codeRe matches minted codes: FJ- prefix and two groups of four from a
// confusion-free alphabet.
var codeRe = regexp.MustCompile(`^FJ-[A-HJ-NP-Z2-9]{4}-[A-HJ-NP-Z2-9]{4}$`)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RedeemCode consumes a single-use code and credits one stamp. A code
// that was already consumed is rejected, never re-applied.
func (l *Ledger) RedeemCode(accountID int64, code string) (*model.LoyaltyAccount, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !codeRe.MatchString(code) {
		return nil, ErrInvalidCode
	}

	acct, err := l.accounts.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}

	rc, err := l.codes.GetByCode(code)
	if err != nil {
		return nil, fmt.Errorf("get code: %w", err)
	}
	if rc == nil {
		return nil, ErrNotFound
	}
	if rc.UsedAt != nil {
		return nil, ErrAlreadyUsed
	}

	// Conditional update: a concurrent redeem of the same code loses here.
	consumed, err := l.codes.Consume(code, accountID)
	if err != nil {
		return nil, fmt.Errorf("consume code: %w", err)
	}
	if !consumed {
		return nil, ErrAlreadyUsed
	}

	acct, err = l.accounts.AddStamp(accountID)
	if err != nil {
		return nil, fmt.Errorf("add stamp: %w", err)
	}
	if acct.Stamps() == 0 {
		l.logger.Info("free cup earned", "account_id", acct.ID, "free_cups_earned", acct.FreeCupsEarned)
	}
	return acct, nil
}

// ComputeEligibility is pure: a 10% discount is offered on the purchase
// that completes a cycle, and a free drink whenever an earned cup is
// unredeemed.
func ComputeEligibility(acct *model.LoyaltyAccount) Eligibility {
	return Eligibility{
		TenPercentAvailable: acct.Stamps() == model.StampsPerCycle-1,
		FreeDrinkAvailable:  acct.FreeCupsAvailable() > 0,
	}
}

// ApplyFreeItem consumes one earned free cup. The at-most-once-per-order
// contract belongs to the caller; the ledger only guards the balance.
func (l *Ledger) ApplyFreeItem(accountID int64) (*model.LoyaltyAccount, error) {
	acct, err := l.accounts.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}

	applied, err := l.accounts.RedeemFreeCup(accountID)
	if err != nil {
		return nil, fmt.Errorf("redeem free cup: %w", err)
	}
	if !applied {
		return nil, ErrNoFreeCups
	}
	return l.accounts.GetByID(accountID)
}

// PercentDiscount is the pure 10% checkout discount. It mutates nothing;
// discount bookkeeping happens when the order completes.
func PercentDiscount(subtotal money.Amount) money.Amount {
	return subtotal.Percent(10)
}

// RecordCompletedPurchase credits an account for a completed order: one
// stamp, the spent amount, and the discount counter when one was applied.
func (l *Ledger) RecordCompletedPurchase(accountID int64, amount money.Amount, discountApplied bool) (*model.LoyaltyAccount, error) {
	acct, err := l.accounts.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}

	acct, err = l.accounts.RecordPurchase(accountID, amount, discountApplied)
	if err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}
	return acct, nil
}

// SetTier updates the tier field. Promotion thresholds are owned by an
// external policy; the ledger only stores the result.
func (l *Ledger) SetTier(accountID int64, tier string) (*model.LoyaltyAccount, error) {
	switch tier {
	case "bronze", "silver", "gold", "platinum":
	default:
		return nil, fmt.Errorf("%w: tier", ErrValidation)
	}
	acct, err := l.accounts.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	return l.accounts.SetTier(accountID, tier)
}

// MintCodes creates n fresh single-use redemption codes.
func (l *Ledger) MintCodes(n int, mintedBy *int64) ([]string, error) {
	if n < 1 || n > 500 {
		return nil, fmt.Errorf("%w: count", ErrValidation)
	}

	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		codes = append(codes, c)
	}

	if err := l.codes.Mint(codes, mintedBy); err != nil {
		return nil, fmt.Errorf("mint codes: %w", err)
	}
	return codes, nil
}

func randomCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("FJ-%s-%s", buf[:4], buf[4:]), nil
}
