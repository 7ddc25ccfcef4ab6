// Package billing computes the invoiced amount (CA) of one rental episode.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// LongDurationThreshold is the business-day count from which the discount applies.
const LongDurationThreshold = 21

// CurrencyPlaces is the precision of every stored CA amount.
const CurrencyPlaces = 2

var (
	ErrInvalidInput = errors.New("invalid billing input")

	// LongDurationDiscount is the rate taken off long rentals (20%).
	LongDurationDiscount = decimal.RequireFromString("0.20")

	longDurationFactor = decimal.NewFromInt(1).Sub(LongDurationDiscount)
)

// Result is stored verbatim with the inputs that produced it.
type Result struct {
	CA                          decimal.Decimal `json:"ca"`
	LongDurationDiscountApplied bool            `json:"long_duration_discount_applied"`
	MinimumInvoiceApplied       bool            `json:"minimum_invoice_applied"`
	MinimumInvoiceAmountUsed    decimal.Decimal `json:"minimum_invoice_amount_used"`
}

// Equal compares results field by field, amounts by value.
func (r Result) Equal(other Result) bool {
	return r.CA.Equal(other.CA) &&
		r.LongDurationDiscountApplied == other.LongDurationDiscountApplied &&
		r.MinimumInvoiceApplied == other.MinimumInvoiceApplied &&
		r.MinimumInvoiceAmountUsed.Equal(other.MinimumInvoiceAmountUsed)
}

// ComputeCA applies the daily rate, then the long-duration discount, then the
// minimum-invoice floor, in that order, and rounds half away from zero.
func ComputeCA(businessDays int, dailyRate, minimumInvoice decimal.NullDecimal, minimumInvoiceEnabled bool) (Result, error) {
	if businessDays < 0 {
		return Result{}, fmt.Errorf("business days must not be negative, got %d: %w", businessDays, ErrInvalidInput)
	}
	if !dailyRate.Valid && businessDays > 0 {
		return Result{}, fmt.Errorf("daily rate is required for %d business days: %w", businessDays, ErrInvalidInput)
	}
	if dailyRate.Valid && dailyRate.Decimal.IsNegative() {
		return Result{}, fmt.Errorf("daily rate must not be negative, got %s: %w", dailyRate.Decimal, ErrInvalidInput)
	}
	if minimumInvoice.Valid && minimumInvoice.Decimal.IsNegative() {
		return Result{}, fmt.Errorf("minimum invoice must not be negative, got %s: %w", minimumInvoice.Decimal, ErrInvalidInput)
	}

	rate := decimal.Zero
	if dailyRate.Valid {
		rate = dailyRate.Decimal
	}

	base := rate.Mul(decimal.NewFromInt(int64(businessDays)))

	var res Result
	discounted := base
	if businessDays >= LongDurationThreshold {
		discounted = base.Mul(longDurationFactor)
		res.LongDurationDiscountApplied = true
	}

	res.CA = discounted
	res.MinimumInvoiceAmountUsed = decimal.Zero
	if minimumInvoiceEnabled && minimumInvoice.Valid && !discounted.GreaterThan(minimumInvoice.Decimal) {
		res.CA = minimumInvoice.Decimal
		res.MinimumInvoiceApplied = true
		res.MinimumInvoiceAmountUsed = RoundCurrency(minimumInvoice.Decimal)
	}

	res.CA = RoundCurrency(res.CA)
	return res, nil
}

// RoundCurrency rounds to cents, half away from zero.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}
