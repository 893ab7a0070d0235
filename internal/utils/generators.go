package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Cash-token codes use an unambiguous alphabet (no 0/O, 1/I) since they
// are read out loud and typed at the front desk.
const tokenAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const tokenLength = 8

func GenerateTokenCode() string {
	code := make([]byte, tokenLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			// Fall back to a time-derived index if the RNG fails
			n = big.NewInt(time.Now().UnixNano() % int64(len(tokenAlphabet)))
		}
		code[i] = tokenAlphabet[n.Int64()]
	}
	return string(code)
}

func GenerateTransactionID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("txn_%d_%09d", timestamp, randomNum.Int64())
}
