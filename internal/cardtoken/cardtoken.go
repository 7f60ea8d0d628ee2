// Package cardtoken mints and verifies the opaque identifiers carried by
// a loyalty card: a human-enterable card number and a signed QR token.
// The ledger treats both as opaque strings; only this package knows the
// token is a compact JWS.
package cardtoken

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrBadToken = errors.New("card token invalid")

type Minter struct {
	secret []byte
	issuer string
}

func NewMinter(secret, issuer string) *Minter {
	return &Minter{secret: []byte(secret), issuer: issuer}
}

// MintCard returns a fresh card number and the signed QR token encoding it.
func (m *Minter) MintCard() (cardNumber, qrToken string, err error) {
	cardNumber, err = randomCardNumber()
	if err != nil {
		return "", "", fmt.Errorf("card number: %w", err)
	}

	claims := jwt.MapClaims{
		"iss":  m.issuer,
		"sub":  uuid.NewString(),
		"card": cardNumber,
		"iat":  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	qrToken, err = token.SignedString(m.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return cardNumber, qrToken, nil
}

// Verify checks the signature on a scanned QR token and returns the card
// number it encodes. A tampered or foreign token fails with ErrBadToken.
func (m *Minter) Verify(qrToken string) (string, error) {
	token, err := jwt.Parse(qrToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil || !token.Valid {
		return "", ErrBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrBadToken
	}
	card, _ := claims["card"].(string)
	if card == "" {
		return "", ErrBadToken
	}
	return card, nil
}

// randomCardNumber produces a printable card number: FJC- plus ten digits.
func randomCardNumber() (string, error) {
	max := big.NewInt(10_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FJC-%010d", n), nil
}
