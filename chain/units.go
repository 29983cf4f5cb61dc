package chain

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/derek2403/token2049/core"
)

// ToBaseUnits converts a decimal token amount into its integer base units.
// Amounts with more fractional digits than decimals are rejected rather
// than silently truncated.
func ToBaseUnits(amount string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Wrapf(core.ErrValidation, "invalid amount %q", amount)
	}
	if !d.IsPositive() {
		return nil, errors.Wrapf(core.ErrValidation, "amount %q must be positive", amount)
	}
	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, errors.Wrapf(core.ErrValidation, "amount %q has more than %d decimal places", amount, decimals)
	}
	return shifted.BigInt(), nil
}

// FromBaseUnits renders base units as a decimal token amount.
func FromBaseUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}
