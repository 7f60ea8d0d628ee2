// Package invoice builds the ZATCA phase-1 simplified tax invoice QR
// payload: base64 over TLV-encoded seller name, VAT registration number,
// invoice timestamp, VAT-inclusive total, and VAT amount. Rendering the
// payload as a QR image is the client's job.
package invoice

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/finjaanapp/finjaan/internal/money"
)

// ZATCA phase-1 TLV tags.
const (
	tagSellerName = 1
	tagVATNumber  = 2
	tagTimestamp  = 3
	tagTotal      = 4
	tagVATAmount  = 5
)

// VATRate is the Saudi standard VAT rate in percent.
const VATRate = 15

type Seller struct {
	Name      string
	VATNumber string
}

// QRPayload returns the base64 TLV payload for a completed order.
// total is VAT-inclusive; the VAT portion is derived at the standard rate.
func QRPayload(seller Seller, issuedAt time.Time, total money.Amount) (string, error) {
	if seller.Name == "" || seller.VATNumber == "" {
		return "", fmt.Errorf("seller name and VAT number are required")
	}

	vat := total.VATPortion(VATRate)

	var buf []byte
	for _, f := range []struct {
		tag   byte
		value string
	}{
		{tagSellerName, seller.Name},
		{tagVATNumber, seller.VATNumber},
		{tagTimestamp, issuedAt.UTC().Format(time.RFC3339)},
		{tagTotal, total.String()},
		{tagVATAmount, vat.String()},
	} {
		v := []byte(f.value)
		if len(v) > 255 {
			return "", fmt.Errorf("tlv field %d too long", f.tag)
		}
		buf = append(buf, f.tag, byte(len(v)))
		buf = append(buf, v...)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}
