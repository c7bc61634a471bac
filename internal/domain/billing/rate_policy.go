package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RatePolicyName identifies a tax-rate resolution policy
type RatePolicyName string

const (
	RatePolicyFirstLine RatePolicyName = "first_line"
	RatePolicyPerLine   RatePolicyName = "per_line"
)

// IsValid checks if the policy name is valid
func (n RatePolicyName) IsValid() bool {
	return n == RatePolicyFirstLine || n == RatePolicyPerLine
}

// RateResolutionPolicy decides how an invoice's tax is derived from its lines.
//
// The legacy behavior billed the whole invoice at the first line item's rate
// even when lines carried machines with different GST types. Whether that is
// intended is unsettled, so the resolution is isolated behind this interface:
// FirstLineRatePolicy preserves the legacy behavior exactly, PerLineRatePolicy
// taxes each line at its own rate and sums. The aggregation algorithm in
// ComputeInvoiceTotals is identical under either policy.
type RateResolutionPolicy interface {
	Name() RatePolicyName
	// ResolveTax returns the invoice tax rate (percent) and tax amount for the
	// given subtotal and lines. Under per-line taxation the returned rate is the
	// effective blended rate implied by the amount.
	ResolveTax(subtotal decimal.Decimal, lines []LineUsage) (rate, amount decimal.Decimal)
}

// FirstLineRatePolicy taxes the whole subtotal at the first line's GST rate
type FirstLineRatePolicy struct{}

// Name returns the policy name
func (FirstLineRatePolicy) Name() RatePolicyName {
	return RatePolicyFirstLine
}

// ResolveTax applies the first line's total GST percentage to the subtotal
func (FirstLineRatePolicy) ResolveTax(subtotal decimal.Decimal, lines []LineUsage) (decimal.Decimal, decimal.Decimal) {
	if len(lines) == 0 {
		return decimal.Zero, decimal.Zero
	}
	rate := lines[0].GSTType.TotalPercent()
	amount := subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	return rate, amount
}

// PerLineRatePolicy taxes every line at its own GST rate and sums the amounts
type PerLineRatePolicy struct{}

// Name returns the policy name
func (PerLineRatePolicy) Name() RatePolicyName {
	return RatePolicyPerLine
}

// ResolveTax sums per-line tax and reports the effective blended rate
func (PerLineRatePolicy) ResolveTax(subtotal decimal.Decimal, lines []LineUsage) (decimal.Decimal, decimal.Decimal) {
	amount := decimal.Zero
	for _, line := range lines {
		lineRate := line.GSTType.TotalPercent()
		amount = amount.Add(line.ProductTotal.Mul(lineRate).Div(decimal.NewFromInt(100)))
	}
	amount = amount.Round(2)

	rate := decimal.Zero
	if subtotal.IsPositive() {
		rate = amount.Mul(decimal.NewFromInt(100)).Div(subtotal).Round(4)
	}
	return rate, amount
}

// NewRatePolicy returns the policy registered under the given name
func NewRatePolicy(name RatePolicyName) (RateResolutionPolicy, error) {
	switch name {
	case RatePolicyFirstLine, "":
		return FirstLineRatePolicy{}, nil
	case RatePolicyPerLine:
		return PerLineRatePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown rate resolution policy %q", name)
	}
}
