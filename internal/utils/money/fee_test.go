package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFee(t *testing.T) {
	testCases := []struct {
		name        string
		amount      string
		ratePercent string
		minorUnits  int
		expectedFee string
	}{
		{
			name:        "three percent of a million",
			amount:      "1000000",
			ratePercent: "3",
			minorUnits:  2,
			expectedFee: "30000",
		},
		{
			name:        "rounds half up at minor unit precision",
			amount:      "100.25",
			ratePercent: "3",
			minorUnits:  2,
			expectedFee: "3.01", // 3.0075 rounds to 3.01
		},
		{
			name:        "zero rate yields zero fee",
			amount:      "500",
			ratePercent: "0",
			minorUnits:  2,
			expectedFee: "0",
		},
		{
			name:        "zero amount yields zero fee",
			amount:      "0",
			ratePercent: "3",
			minorUnits:  2,
			expectedFee: "0",
		},
		{
			name:        "zero minor units currency",
			amount:      "999",
			ratePercent: "3",
			minorUnits:  0,
			expectedFee: "30", // 29.97 rounds to 30
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			rate := decimal.RequireFromString(tc.ratePercent)

			fee, err := CalculateFee(amount, rate, tc.minorUnits)
			require.NoError(t, err)
			assert.True(t, fee.Equal(decimal.RequireFromString(tc.expectedFee)),
				"expected fee %s, got %s", tc.expectedFee, fee.String())
		})
	}
}

func TestCalculateFeeRejectsInvalidInputs(t *testing.T) {
	_, err := CalculateFee(decimal.NewFromInt(-1), decimal.NewFromInt(3), 2)
	assert.Error(t, err, "negative amount should be rejected")

	_, err = CalculateFee(decimal.NewFromInt(100), decimal.NewFromInt(-3), 2)
	assert.Error(t, err, "negative rate should be rejected")

	_, err = CalculateFee(decimal.NewFromInt(100), decimal.NewFromInt(101), 2)
	assert.Error(t, err, "rate above 100 percent should be rejected")
}

func TestSplitGross(t *testing.T) {
	gross := decimal.NewFromInt(1000000)
	net, fee, err := SplitGross(gross, decimal.NewFromInt(3), 2)
	require.NoError(t, err)

	assert.True(t, fee.Equal(decimal.NewFromInt(30000)), "expected fee 30000, got %s", fee.String())
	assert.True(t, net.Equal(decimal.NewFromInt(970000)), "expected net 970000, got %s", net.String())

	// net + fee must reconstruct gross exactly, whatever the rounding did
	assert.True(t, net.Add(fee).Equal(gross), "net + fee should equal gross")
}

func TestSplitGrossReconstructsGrossAfterRounding(t *testing.T) {
	// 3% of 33.33 is 0.9999, which rounds to 1.00; net picks up the remainder.
	gross := decimal.RequireFromString("33.33")
	net, fee, err := SplitGross(gross, decimal.NewFromInt(3), 2)
	require.NoError(t, err)

	assert.True(t, fee.Equal(decimal.RequireFromString("1.00")), "expected fee 1.00, got %s", fee.String())
	assert.True(t, net.Add(fee).Equal(gross), "net + fee should equal gross")
}
