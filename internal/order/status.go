package order

import (
	"errors"

	"github.com/finjaanapp/finjaan/internal/model"
)

// Status is an order's position in its lifecycle.
type Status string

const (
	StatusPending        Status = "pending"
	StatusInProgress     Status = "in_progress"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

var (
	// ErrNotFound reports an unknown order.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition reports a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus reports a status string outside the lifecycle.
	ErrUnknownStatus = errors.New("unknown order status")
)

// Statuses lists every lifecycle state, in rough flow order.
var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusReady,
	StatusOutForDelivery,
	StatusCompleted,
	StatusCancelled,
}

// ParseStatus normalizes a status string, accepting the legacy
// "confirmed" and "payment_confirmed" aliases for in_progress.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusReady, StatusOutForDelivery, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	switch s {
	case "confirmed", "payment_confirmed":
		return StatusInProgress, nil
	}
	return "", ErrUnknownStatus
}

// Terminal reports whether the status is a lifecycle sink.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from -> to is a legal move for an order
// of the given fulfillment type. ready is reserved for pickup and dine-in
// orders, out_for_delivery for delivery orders.
func CanTransition(from, to Status, orderType string) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		switch to {
		case StatusReady:
			return orderType != model.OrderTypeDelivery
		case StatusOutForDelivery:
			return orderType == model.OrderTypeDelivery
		case StatusCancelled:
			return true
		}
		return false
	case StatusReady, StatusOutForDelivery:
		return to == StatusCompleted
	}
	// completed and cancelled are sinks
	return false
}
