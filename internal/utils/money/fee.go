package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateFee computes the platform fee on a gross amount at the given
// percentage rate, rounded to the ledger's minor-currency-unit precision.
// Example: CalculateFee(1000000, 3, 2) returns 30000.00.
func CalculateFee(amount decimal.Decimal, ratePercent decimal.Decimal, minorUnits int) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("fee base amount must not be negative, got %s", amount.String())
	}
	if ratePercent.IsNegative() || ratePercent.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("fee rate must be between 0 and 100 percent, got %s", ratePercent.String())
	}
	fee := amount.Mul(ratePercent).Div(hundred).Round(int32(minorUnits))
	return fee, nil
}

// SplitGross divides a gross amount into the net payable and the platform
// fee so that net + fee always reconstructs gross exactly: the fee is
// rounded, the net is the remainder.
func SplitGross(gross decimal.Decimal, ratePercent decimal.Decimal, minorUnits int) (net, fee decimal.Decimal, err error) {
	fee, err = CalculateFee(gross, ratePercent, minorUnits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	net = gross.Sub(fee)
	if net.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("fee %s exceeds gross amount %s", fee.String(), gross.String())
	}
	return net, fee, nil
}
