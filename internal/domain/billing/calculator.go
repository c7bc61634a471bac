package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Warning codes attached to usage results. None of these abort a computation;
// the affected channel charges zero and the operator confirms before finalizing.
const (
	WarningReversedReading   = "REVERSED_READING"   // new count below baseline without a reset flag
	WarningNegativeCount     = "NEGATIVE_COUNT"     // negative baseline or reported count
	WarningNegativeRate      = "NEGATIVE_RATE"      // negative per-copy rate or free allowance
	WarningNegativeBasePrice = "NEGATIVE_BASE_PRICE"
)

// MeterWarning flags an inconsistency found while computing usage
type MeterWarning struct {
	Size     PaperSize `json:"size,omitempty"`
	Channel  Channel   `json:"channel,omitempty"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	OldCount int64     `json:"old_count,omitempty"`
	NewCount int64     `json:"new_count,omitempty"`
}

// ChannelCharge is the billing outcome of one size and channel combination
type ChannelCharge struct {
	Size           PaperSize       `json:"size"`
	Channel        Channel         `json:"channel"`
	OldCount       int64           `json:"old_count"`
	NewCount       int64           `json:"new_count"`
	CopiesUsed     int64           `json:"copies_used"`
	FreeCopies     int64           `json:"free_copies"`
	BillableCopies int64           `json:"billable_copies"`
	RatePerCopy    decimal.Decimal `json:"rate_per_copy"`
	Charge         decimal.Decimal `json:"charge"`
	Unlimited      bool            `json:"unlimited"`
}

// ProductUsage is the billing outcome of one machine for one billing event
type ProductUsage struct {
	BasePrice    decimal.Decimal `json:"base_price"`
	UsageCharge  decimal.Decimal `json:"usage_charge"`
	ProductTotal decimal.Decimal `json:"product_total"`
	Breakdown    []ChannelCharge `json:"breakdown"`
	Warnings     []MeterWarning  `json:"warnings,omitempty"`
}

// HasWarnings returns true if any inconsistency was flagged
func (u *ProductUsage) HasWarnings() bool {
	return len(u.Warnings) > 0
}

// ComputeProductUsage computes the billable amount of one machine from its meter
// configuration and a newly reported reading.
//
// Per channel: copiesUsed = newCount - oldCount; a non-positive delta charges
// zero (meter reset, reversed reading, or no usage - never a negative bill),
// billableCopies = max(0, copiesUsed - freeCopies) and the charge is
// billableCopies * ratePerCopy. An unlimited channel charges zero
// unconditionally and its allowance and rate are not read. Sizes absent from
// the configuration contribute nothing, whether or not a reading was reported
// for them. The function is pure: identical inputs yield identical outputs.
func ComputeProductUsage(basePrice decimal.Decimal, config MeterConfig, reading MeterReading) ProductUsage {
	usage := ProductUsage{
		BasePrice:   basePrice,
		UsageCharge: decimal.Zero,
		Breakdown:   make([]ChannelCharge, 0, len(config.Sizes)*len(AllChannels())),
	}

	if basePrice.IsNegative() {
		usage.BasePrice = decimal.Zero
		usage.Warnings = append(usage.Warnings, MeterWarning{
			Code:    WarningNegativeBasePrice,
			Message: fmt.Sprintf("base price %s is negative, billed as zero", basePrice.StringFixed(2)),
		})
	}

	for _, size := range config.ActiveSizes() {
		sizeCfg := config.Sizes[size]
		sizeReading, reported := reading.Size(size)
		if !reported {
			// No counters submitted for an active size: nothing to bill this cycle.
			continue
		}

		for _, ch := range AllChannels() {
			charge := computeChannelCharge(size, ch, sizeCfg.Channel(ch), sizeReading.NewCount(ch), &usage.Warnings)
			usage.Breakdown = append(usage.Breakdown, charge)
			usage.UsageCharge = usage.UsageCharge.Add(charge.Charge)
		}
	}

	usage.UsageCharge = usage.UsageCharge.Round(2)
	usage.ProductTotal = usage.BasePrice.Add(usage.UsageCharge).Round(2)
	return usage
}

// computeChannelCharge evaluates a single size and channel combination
func computeChannelCharge(size PaperSize, ch Channel, cfg ChannelConfig, newCount int64, warnings *[]MeterWarning) ChannelCharge {
	charge := ChannelCharge{
		Size:      size,
		Channel:   ch,
		OldCount:  cfg.OldCount,
		NewCount:  newCount,
		Unlimited: cfg.Unlimited,
		Charge:    decimal.Zero,
	}

	// Unlimited channels contribute zero regardless of counts; the allowance
	// and rate fields are not read (the UI disables them, the calculator must
	// enforce the invariant independently).
	if cfg.Unlimited {
		charge.RatePerCopy = decimal.Zero
		return charge
	}

	charge.FreeCopies = cfg.FreeCopies
	charge.RatePerCopy = cfg.RatePerCopy

	if cfg.OldCount < 0 || newCount < 0 {
		*warnings = append(*warnings, MeterWarning{
			Size: size, Channel: ch, Code: WarningNegativeCount,
			Message:  fmt.Sprintf("%s/%s: negative meter count (old %d, new %d)", size, ch, cfg.OldCount, newCount),
			OldCount: cfg.OldCount, NewCount: newCount,
		})
		return charge
	}

	copiesUsed := newCount - cfg.OldCount
	charge.CopiesUsed = copiesUsed
	if copiesUsed < 0 {
		// Counter moved backwards: meter reset or mistyped reading. Charge
		// nothing and let the operator confirm before the invoice is finalized.
		*warnings = append(*warnings, MeterWarning{
			Size: size, Channel: ch, Code: WarningReversedReading,
			Message:  fmt.Sprintf("%s/%s: new count %d is below baseline %d", size, ch, newCount, cfg.OldCount),
			OldCount: cfg.OldCount, NewCount: newCount,
		})
		return charge
	}
	if copiesUsed == 0 {
		return charge
	}

	freeCopies := cfg.FreeCopies
	if freeCopies < 0 || cfg.RatePerCopy.IsNegative() {
		*warnings = append(*warnings, MeterWarning{
			Size: size, Channel: ch, Code: WarningNegativeRate,
			Message: fmt.Sprintf("%s/%s: negative rate or free allowance, charged zero", size, ch),
		})
		return charge
	}

	billable := copiesUsed - freeCopies
	if billable < 0 {
		billable = 0
	}
	charge.BillableCopies = billable
	charge.Charge = cfg.RatePerCopy.Mul(decimal.NewFromInt(billable)).Round(2)
	return charge
}

// LineUsage is the per-line input to invoice aggregation: one billed machine
// with its computed product total and the rates attached to it.
type LineUsage struct {
	ProductTotal   decimal.Decimal
	GSTType        TaxRateEntries
	CommissionRate decimal.Decimal
}

// InvoiceTotals is the aggregated outcome of one invoice
type InvoiceTotals struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
}

// ComputeInvoiceTotals aggregates line usages into invoice totals.
//
// subtotal is the sum of product totals. How the invoice tax rate is resolved
// when lines carry different machines is delegated to the policy (see
// RateResolutionPolicy). The commission rate is the first line's product
// commission, or fallbackCommission (the assigned salesperson's rate) when the
// product carries none; commissionAmount = grandTotal * commissionRate / 100.
func ComputeInvoiceTotals(lines []LineUsage, policy RateResolutionPolicy, fallbackCommission decimal.Decimal) (InvoiceTotals, error) {
	if len(lines) == 0 {
		return InvoiceTotals{}, fmt.Errorf("cannot compute invoice totals without line items")
	}
	if policy == nil {
		policy = FirstLineRatePolicy{}
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.ProductTotal)
	}
	subtotal = subtotal.Round(2)

	taxRate, taxAmount := policy.ResolveTax(subtotal, lines)
	grandTotal := subtotal.Add(taxAmount).Round(2)

	commissionRate := lines[0].CommissionRate
	if commissionRate.IsZero() {
		commissionRate = fallbackCommission
	}
	commissionAmount := grandTotal.Mul(commissionRate).Div(decimal.NewFromInt(100)).Round(2)

	return InvoiceTotals{
		Subtotal:         subtotal,
		TaxRate:          taxRate,
		TaxAmount:        taxAmount.Round(2),
		GrandTotal:       grandTotal,
		CommissionRate:   commissionRate,
		CommissionAmount: commissionAmount,
	}, nil
}
