// Package money formats on-chain smallest-unit amounts. The gateway never
// does arithmetic on floats for price data; shopspring/decimal keeps the
// representation exact from the static catalogue all the way to the wire.
package money

import "github.com/shopspring/decimal"

// SmallestUnits renders a non-negative integer amount of smallest token
// units as the decimal string the x402 wire format expects for
// maxAmountRequired.
func SmallestUnits(amount int64) string {
	return decimal.NewFromInt(amount).String()
}

// Dollars renders a smallest-unit amount as a human "$0.01"-style string,
// given the token's decimal places, for display-only fields such as the
// REST payment-requirements' informal "price".
func Dollars(amount int64, decimals int32) string {
	d := decimal.NewFromInt(amount).Shift(-decimals)
	return "$" + d.StringFixed(2)
}
