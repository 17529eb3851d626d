// Package units converts between human-readable decimal amounts and the
// atomic integer amounts used on-chain.
//
// All scaling goes through arbitrary-precision decimals: 24-decimal assets
// such as wrapped NEAR exceed the range in which float64 represents integers
// exactly, and the same code path keeps 6 and 8 decimal assets consistent.
// Rounding to the atomic unit is half away from zero.
package units

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	xerrors "intents-agent/internal/errors"
)

const (
	CodeInvalidAmount      xerrors.Code = "INVALID_AMOUNT"
	CodeInternalConversion xerrors.Code = "INTERNAL_CONVERSION_ERROR"
)

// MaxDecimals bounds the precision accepted by the converter.
const MaxDecimals = 36

func init() {
	xerrors.Register(CodeInvalidAmount, xerrors.Attributes{
		Message:    "amount must be a valid number",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusBadRequest,
	})
	xerrors.Register(CodeInternalConversion, xerrors.Attributes{
		Message:    "unit conversion failed",
		Severity:   xerrors.SeverityCritical,
		Alert:      true,
		HTTPStatus: http.StatusInternalServerError,
	})
}

// ParseHuman validates a human amount and returns it as a decimal. The input
// must be a plain decimal literal within float64 range. Hex floats and other
// spellings only strconv understands are rejected.
func ParseHuman(amount string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return decimal.Zero, xerrors.New(CodeInvalidAmount, "Missing required field: amount is required")
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, xerrors.New(CodeInvalidAmount, "amount must be a valid number",
			xerrors.WithMetadata("amount", trimmed))
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, xerrors.New(CodeInvalidAmount, "amount must be a valid number",
			xerrors.WithMetadata("amount", trimmed))
	}
	return d, nil
}

// ParsePositive is ParseHuman restricted to amounts greater than zero.
func ParsePositive(amount string) (decimal.Decimal, error) {
	d, err := ParseHuman(amount)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, xerrors.New(CodeInvalidAmount, "amount must be greater than zero",
			xerrors.WithMetadata("amount", strings.TrimSpace(amount)))
	}
	return d, nil
}

// ToAtomic scales a human amount by 10^decimals and rounds it to an integer.
func ToAtomic(amount string, decimals int32) (string, error) {
	if err := checkDecimals(decimals); err != nil {
		return "", err
	}
	d, err := ParseHuman(amount)
	if err != nil {
		return "", err
	}
	return FromDecimal(d, decimals), nil
}

// FromDecimal scales an already validated decimal to atomic units.
func FromDecimal(d decimal.Decimal, decimals int32) string {
	return d.Shift(decimals).StringFixed(0)
}

// ToHuman divides an atomic integer amount by 10^decimals and returns the
// shortest exact decimal representation.
func ToHuman(atomic string, decimals int32) (string, error) {
	if err := checkDecimals(decimals); err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(atomic)
	if trimmed == "" {
		return "", xerrors.New(CodeInternalConversion, "atomic amount is empty")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return "", xerrors.Wrap(CodeInternalConversion, err, "atomic amount is not a number",
			xerrors.WithMetadata("atomic", trimmed))
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return "", xerrors.New(CodeInternalConversion, "atomic amount must be a non-negative integer",
			xerrors.WithMetadata("atomic", trimmed))
	}
	return d.Shift(-decimals).String(), nil
}

func checkDecimals(decimals int32) error {
	if decimals < 0 || decimals > MaxDecimals {
		return xerrors.New(CodeInternalConversion, "unsupported decimal precision "+strconv.Itoa(int(decimals)))
	}
	return nil
}
