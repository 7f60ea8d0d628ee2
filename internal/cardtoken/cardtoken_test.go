package cardtoken

import (
	"errors"
	"strings"
	"testing"
)

func TestMintAndVerify(t *testing.T) {
	m := NewMinter("test-secret", "finjaan")

	cardNumber, qrToken, err := m.MintCard()
	if err != nil {
		t.Fatalf("MintCard: %v", err)
	}
	if !strings.HasPrefix(cardNumber, "FJC-") || len(cardNumber) != len("FJC-")+10 {
		t.Errorf("card number = %q, want FJC- plus ten digits", cardNumber)
	}

	got, err := m.Verify(qrToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != cardNumber {
		t.Errorf("verified card = %q, want %q", got, cardNumber)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := NewMinter("test-secret", "finjaan")
	_, qrToken, err := m.MintCard()
	if err != nil {
		t.Fatalf("MintCard: %v", err)
	}

	tampered := qrToken[:len(qrToken)-2] + "xx"
	if _, err := m.Verify(tampered); !errors.Is(err, ErrBadToken) {
		t.Errorf("err = %v, want ErrBadToken", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	_, qrToken, err := NewMinter("secret-a", "finjaan").MintCard()
	if err != nil {
		t.Fatalf("MintCard: %v", err)
	}

	other := NewMinter("secret-b", "finjaan")
	if _, err := other.Verify(qrToken); !errors.Is(err, ErrBadToken) {
		t.Errorf("err = %v, want ErrBadToken for a foreign secret", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	_, qrToken, err := NewMinter("test-secret", "someone-else").MintCard()
	if err != nil {
		t.Fatalf("MintCard: %v", err)
	}

	m := NewMinter("test-secret", "finjaan")
	if _, err := m.Verify(qrToken); !errors.Is(err, ErrBadToken) {
		t.Errorf("err = %v, want ErrBadToken for a wrong issuer", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewMinter("test-secret", "finjaan")
	for _, in := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(in); !errors.Is(err, ErrBadToken) {
			t.Errorf("Verify(%q) err = %v, want ErrBadToken", in, err)
		}
	}
}
