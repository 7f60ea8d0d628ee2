package order

import (
	"fmt"
	"log/slog"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/money"
)

// Repo is the persistence seam for orders. UpdateStatus is conditional on
// the current status so concurrent transitions to the same order are
// serialized: the second writer sees applied=false.
type Repo interface {
	GetByID(id int64) (*model.Order, error)
	UpdateStatus(id int64, from, to Status) (bool, error)
}

// LoyaltyCredit is the slice of the loyalty ledger the lifecycle needs.
type LoyaltyCredit interface {
	RecordCompletedPurchase(accountID int64, amount money.Amount, discountApplied bool) (*model.LoyaltyAccount, error)
}

// Notifier delivers customer notifications. Implementations are
// fire-and-forget: errors are their own to log, never propagated here.
type Notifier interface {
	Notify(o *model.Order, event string)
}

// Service drives orders through the lifecycle and runs the side effects
// each transition owes.
type Service struct {
	orders   Repo
	ledger   LoyaltyCredit
	notifier Notifier
	logger   *slog.Logger
}

func NewService(orders Repo, ledger LoyaltyCredit, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{orders: orders, ledger: ledger, notifier: notifier, logger: logger}
}

// Transition moves an order to the given status. The status write commits
// first and is the source of truth; loyalty credit and notification are
// best-effort afterwards and never roll it back.
func (s *Service) Transition(orderID int64, to Status) (*model.Order, error) {
	o, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o == nil {
		return nil, ErrNotFound
	}

	from := Status(o.Status)
	if !CanTransition(from, to, o.Type) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	applied, err := s.orders.UpdateStatus(orderID, from, to)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if !applied {
		// Lost a race with another cashier; the order is no longer in `from`.
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	o, err = s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("reload order: %w", err)
	}

	switch to {
	case StatusCompleted:
		s.creditLoyalty(o)
		s.notifier.Notify(o, "completed")
	case StatusReady:
		s.notifier.Notify(o, "ready")
	}

	return o, nil
}

// creditLoyalty credits the order's account, if any. An order without a
// card simply skips the step; a credit failure is logged and left for
// re-drive, because the committed status is authoritative.
func (s *Service) creditLoyalty(o *model.Order) {
	if o.LoyaltyAccountID == nil {
		return
	}
	_, err := s.ledger.RecordCompletedPurchase(*o.LoyaltyAccountID, o.Total, o.DiscountApplied)
	if err != nil {
		s.logger.Error("loyalty credit failed",
			"order_id", o.ID,
			"account_id", *o.LoyaltyAccountID,
			"error", err,
		)
		return
	}
	s.logger.Info("loyalty credited", "order_id", o.ID, "account_id", *o.LoyaltyAccountID)
}
