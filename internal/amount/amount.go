// Package amount converts between human-entered decimal strings and the
// integer smallest-unit values carried on chain.
package amount

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/near-transfer/internal/constants"
)

var (
	ErrEmpty     = errors.New("amount is empty")
	ErrNegative  = errors.New("amount must not be negative")
	ErrPrecision = errors.New("amount has more precision than the smallest unit")
	ErrTooLarge  = errors.New("amount does not fit in u128")
)

// u128Digits is the digit count of 2^128-1; anything longer is rejected
// before it is expanded into a big.Int.
const u128Digits = 39

// ToSmallestUnit scales a decimal amount by 10^decimals and returns the exact
// integer result. Values that would need a fraction of the smallest unit are rejected.
func ToSmallestUnit(raw string, decimals int32) (*big.Int, error) {
	d, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	if err := checkDigits(d, decimals, raw); err != nil {
		return nil, err
	}

	scaled := d.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, errors.Wrapf(ErrPrecision, "%q with %d decimals", raw, decimals)
	}
	return fitU128(scaled.BigInt(), raw)
}

// NearToYocto converts whole NEAR into yoctoNEAR (×10^24).
func NearToYocto(raw string) (*big.Int, error) {
	return ToSmallestUnit(raw, constants.NativeDecimals)
}

// YoctoToNear renders a yoctoNEAR value as a trimmed NEAR decimal string.
func YoctoToNear(yocto *big.Int) string {
	if yocto == nil {
		return "0"
	}
	return decimal.NewFromBigInt(yocto, -constants.NativeDecimals).String()
}

// CanonicalInteger validates a raw integer amount (token units) and returns
// its canonical base-10 form without sign, leading zeros or exponent.
func CanonicalInteger(raw string) (string, error) {
	d, err := parse(raw)
	if err != nil {
		return "", err
	}
	if d.IsZero() {
		return "0", nil
	}
	if err := checkDigits(d, 0, raw); err != nil {
		return "", err
	}
	if !d.IsInteger() {
		return "", errors.Wrapf(ErrPrecision, "%q is not a whole number of units", raw)
	}
	v, err := fitU128(d.BigInt(), raw)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ParseInteger parses a non-negative base-10 integer such as an RPC balance.
func ParseInteger(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrEmpty
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Newf("invalid integer %q", raw)
	}
	if v.Sign() < 0 {
		return nil, errors.Wrapf(ErrNegative, "%q", raw)
	}
	return fitU128(v, raw)
}

// checkDigits bounds the integer digits of d scaled by 10^shift, so an input
// such as "1e1000000000" is refused without materialising it.
func checkDigits(d decimal.Decimal, shift int32, raw string) error {
	if int64(d.NumDigits())+int64(d.Exponent())+int64(shift) > u128Digits {
		return errors.Wrapf(ErrTooLarge, "%q", raw)
	}
	return nil
}

func fitU128(v *big.Int, raw string) (*big.Int, error) {
	if v.BitLen() > 128 {
		return nil, errors.Wrapf(ErrTooLarge, "%q", raw)
	}
	return v, nil
}

func parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "invalid amount %q", raw)
	}
	if d.Sign() < 0 {
		return decimal.Decimal{}, errors.Wrapf(ErrNegative, "%q", raw)
	}
	return d, nil
}
