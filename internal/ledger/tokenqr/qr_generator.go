package tokenqr

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

// Generate renders the cash-token code as a base64 PNG so the payer can
// show it and the operator can scan it at the desk.
func Generate(token string) (string, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
