// Package money converts decimal amounts to the payment gateway's
// minor-unit convention (paise for INR, cents for USD, ...).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// exponents holds the number of minor-unit digits per currency. Anything
// not listed uses two.
var exponents = map[string]int32{
	"INR": 2,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"JPY": 0,
	"KWD": 3,
	"BHD": 3,
}

func Exponent(currency string) int32 {
	if e, ok := exponents[currency]; ok {
		return e
	}
	return 2
}

// MinorUnits converts amount to an integer count of the currency's minor
// unit. Amounts with sub-minor precision (e.g. INR 10.005) are rejected
// rather than rounded: a checkout total that cannot be charged exactly is a
// data error.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	shifted := amount.Shift(Exponent(currency))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-minor precision for %s", amount.String(), currency)
	}
	return shifted.IntPart(), nil
}

// FromMinor is the inverse of MinorUnits.
func FromMinor(minor int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-Exponent(currency))
}
