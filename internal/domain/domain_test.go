package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_Selector(t *testing.T) {
	tx := Transaction{InputData: []byte{0x38, 0xed, 0x17, 0x39, 0xaa, 0xbb}}
	sel, ok := tx.Selector()
	assert.True(t, ok)
	assert.Equal(t, [4]byte{0x38, 0xed, 0x17, 0x39}, sel)
}

func TestTransaction_Selector_TooShort(t *testing.T) {
	tx := Transaction{InputData: []byte{0x01, 0x02}}
	_, ok := tx.Selector()
	assert.False(t, ok)
}

func TestAlertFromFinding_FormatsProfitToFourDecimals(t *testing.T) {
	f := Finding{EstimatedProfitNative: big.NewInt(0).Mul(big.NewInt(10), big.NewInt(1e18))}
	a := AlertFromFinding(f)
	assert.Equal(t, "10.0000", a.ProfitETH)
}

func TestAlertFromFinding_NilProfitIsZero(t *testing.T) {
	f := Finding{EstimatedProfitNative: nil}
	a := AlertFromFinding(f)
	assert.Equal(t, "0.0000", a.ProfitETH)
}
