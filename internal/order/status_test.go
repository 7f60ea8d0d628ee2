package order

import (
	"testing"

	"github.com/finjaanapp/finjaan/internal/model"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"in_progress", StatusInProgress, false},
		{"ready", StatusReady, false},
		{"out_for_delivery", StatusOutForDelivery, false},
		{"completed", StatusCompleted, false},
		{"cancelled", StatusCancelled, false},
		{"confirmed", StatusInProgress, false},
		{"payment_confirmed", StatusInProgress, false},
		{"shipped", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStatus(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

// TestTransitionMatrix checks every (from, to) pair for each fulfillment
// type against the full lifecycle table.
func TestTransitionMatrix(t *testing.T) {
	type key struct {
		from, to Status
	}
	// Legal moves for pickup and dine-in orders.
	counterLegal := map[key]bool{
		{StatusPending, StatusInProgress}:    true,
		{StatusPending, StatusCancelled}:     true,
		{StatusInProgress, StatusReady}:      true,
		{StatusInProgress, StatusCancelled}:  true,
		{StatusReady, StatusCompleted}:       true,
	}
	// Legal moves for delivery orders.
	deliveryLegal := map[key]bool{
		{StatusPending, StatusInProgress}:        true,
		{StatusPending, StatusCancelled}:         true,
		{StatusInProgress, StatusOutForDelivery}: true,
		{StatusInProgress, StatusCancelled}:      true,
		{StatusOutForDelivery, StatusCompleted}:  true,
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			k := key{from, to}
			for _, typ := range []string{model.OrderTypePickup, model.OrderTypeDineIn} {
				if got := CanTransition(from, to, typ); got != counterLegal[k] {
					t.Errorf("CanTransition(%s, %s, %s) = %v, want %v", from, to, typ, got, counterLegal[k])
				}
			}
			if got := CanTransition(from, to, model.OrderTypeDelivery); got != deliveryLegal[k] {
				t.Errorf("CanTransition(%s, %s, delivery) = %v, want %v", from, to, got, deliveryLegal[k])
			}
		}
	}
}

// TestTerminalStatesAreSinks asserts no transition leaves completed or
// cancelled, for any fulfillment type.
func TestTerminalStatesAreSinks(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		if !from.Terminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range Statuses {
			for _, typ := range []string{model.OrderTypePickup, model.OrderTypeDineIn, model.OrderTypeDelivery} {
				if CanTransition(from, to, typ) {
					t.Errorf("terminal %s allows transition to %s for %s", from, to, typ)
				}
			}
		}
	}
}
