package invoice

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/finjaanapp/finjaan/internal/money"
)

var testSeller = Seller{Name: "Finjaan Coffee", VATNumber: "300012345600003"}

// decodeTLV unpacks the payload into tag -> value for assertions.
func decodeTLV(t *testing.T, payload string) map[byte]string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}

	fields := map[byte]string{}
	for i := 0; i < len(raw); {
		if i+2 > len(raw) {
			t.Fatalf("truncated TLV header at offset %d", i)
		}
		tag, length := raw[i], int(raw[i+1])
		if i+2+length > len(raw) {
			t.Fatalf("truncated TLV value for tag %d", tag)
		}
		fields[tag] = string(raw[i+2 : i+2+length])
		i += 2 + length
	}
	return fields
}

func TestQRPayloadFields(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	payload, err := QRPayload(testSeller, issued, money.Amount(11500))
	if err != nil {
		t.Fatalf("QRPayload: %v", err)
	}

	fields := decodeTLV(t, payload)
	want := map[byte]string{
		1: "Finjaan Coffee",
		2: "300012345600003",
		3: "2026-03-14T09:30:00Z",
		4: "115.00",
		5: "15.00",
	}
	for tag, v := range want {
		if fields[tag] != v {
			t.Errorf("tag %d = %q, want %q", tag, fields[tag], v)
		}
	}
	if len(fields) != len(want) {
		t.Errorf("payload has %d fields, want %d", len(fields), len(want))
	}
}

func TestQRPayloadTimestampIsUTC(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	issued := time.Date(2026, 3, 14, 12, 30, 0, 0, riyadh)

	payload, err := QRPayload(testSeller, issued, money.Amount(1000))
	if err != nil {
		t.Fatalf("QRPayload: %v", err)
	}
	if got := decodeTLV(t, payload)[3]; got != "2026-03-14T09:30:00Z" {
		t.Errorf("timestamp = %q, want UTC rendering", got)
	}
}

func TestQRPayloadRequiresSeller(t *testing.T) {
	if _, err := QRPayload(Seller{Name: "Finjaan Coffee"}, time.Now(), 1000); err == nil {
		t.Error("expected error with no VAT number")
	}
	if _, err := QRPayload(Seller{VATNumber: "300012345600003"}, time.Now(), 1000); err == nil {
		t.Error("expected error with no seller name")
	}
}
