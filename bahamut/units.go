package bahamut

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals of both FTN and LBR.
const Decimals = 18

// DefaultMultiplier converts game units to on-chain amounts: 100 units = 0.01 token.
var DefaultMultiplier = decimal.RequireFromString("0.0001")

// ToWei converts a token amount to its 18 decimal integer representation,
// truncating anything below one wei.
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(Decimals).Truncate(0).BigInt()
}

func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -Decimals)
}

// ToStake converts game units to the token amount sent to the contract.
func ToStake(units, multiplier decimal.Decimal) decimal.Decimal {
	return units.Mul(multiplier)
}

// FromStake converts a token amount reported by the contract back to game units.
func FromStake(amount, multiplier decimal.Decimal) decimal.Decimal {
	if multiplier.IsZero() {
		return amount
	}
	return amount.Div(multiplier)
}
