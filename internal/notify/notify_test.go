package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/finjaanapp/finjaan/internal/model"
)

func testClient(gatewayURL string) *Client {
	return NewClient(gatewayURL, "test-key", slog.New(slog.DiscardHandler))
}

func TestDeliverSendsMessage(t *testing.T) {
	var gotAuth string
	var gotMsg message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotMsg)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	msg := message{To: "0500000000", Sender: "Finjaan", Body: "Order #3 is ready"}
	if err := c.deliver(context.Background(), msg); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotMsg != msg {
		t.Errorf("delivered = %+v, want %+v", gotMsg, msg)
	}
}

func TestDeliverRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if err := c.deliver(context.Background(), message{To: "0500000000"}); err != nil {
		t.Fatalf("deliver should recover from a transient 502: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("gateway called %d times, want 2", n)
	}
}

func TestDeliverDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if err := c.deliver(context.Background(), message{To: "0500000000"}); err == nil {
		t.Fatal("expected a permanent error for 422")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("gateway called %d times, want 1", n)
	}
}

func TestNotifyDisabledWithoutGateway(t *testing.T) {
	// No gateway configured: Notify returns without spawning delivery.
	c := testClient("")
	c.Notify(&model.Order{ID: 1, Number: 3, CustomerPhone: "0500000000"}, "ready")

	// No phone on the order: same short-circuit.
	c2 := testClient("http://gateway.invalid")
	c2.Notify(&model.Order{ID: 2, Number: 4}, "ready")
}

func TestBodyFor(t *testing.T) {
	o := &model.Order{Number: 12, Total: 2500}

	if got := bodyFor(o, "ready"); got != "Order #12 is ready for pickup. Thank you for choosing Finjaan!" {
		t.Errorf("ready body = %q", got)
	}
	if got := bodyFor(o, "completed"); got != "Order #12 is complete. Total 25.00 SAR. See you soon!" {
		t.Errorf("completed body = %q", got)
	}
	if got := bodyFor(o, "cancelled"); got != "Order #12 update: cancelled" {
		t.Errorf("fallback body = %q", got)
	}
}
