package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ws-booking/internal/utils"
)

func TestGenerateTokenCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := utils.GenerateTokenCode()
		assert.Len(t, code, 8)
		for _, c := range code {
			assert.NotContains(t, "01OIoil", string(c))
		}
		seen[code] = true
	}
	// 100 draws from a 32^8 space should never collide.
	assert.Len(t, seen, 100)
}

func TestGenerateTransactionID(t *testing.T) {
	id := utils.GenerateTransactionID()
	assert.True(t, strings.HasPrefix(id, "txn_"))
	assert.NotEqual(t, id, utils.GenerateTransactionID())
}
