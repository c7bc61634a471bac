package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of a rental invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Line items still being assembled
	InvoiceStatusQuotation InvoiceStatus = "QUOTATION" // Finalized as a quotation, not yet billable
	InvoiceStatusUnpaid    InvoiceStatus = "UNPAID"    // Finalized invoice awaiting payment
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Fully settled
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusQuotation, InvoiceStatusUnpaid, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid
}

// CanApplyPayment returns true if payments can be applied in this status
func (s InvoiceStatus) CanApplyPayment() bool {
	return s == InvoiceStatusUnpaid
}

// AmountType explains the numeric gap of a payment event. Pending and TDS are
// alternative explanations for the same shortfall and are mutually exclusive
// per event.
type AmountType string

const (
	AmountTypeFull    AmountType = "FULL"    // Settles the outstanding amount
	AmountTypeTDS     AmountType = "TDS"     // Shortfall withheld as tax deducted at source
	AmountTypePending AmountType = "PENDING" // Shortfall the customer still owes
	AmountTypeUnset   AmountType = ""        // Not stated; valid only for full settlements
)

// IsValid checks if the amount type is valid
func (t AmountType) IsValid() bool {
	switch t {
	case AmountTypeFull, AmountTypeTDS, AmountTypePending, AmountTypeUnset:
		return true
	}
	return false
}

// InvoiceLineItem is one rental product billed within one invoice. It snapshots
// the meter reading and the computed charges; line items never change once the
// invoice is finalized.
type InvoiceLineItem struct {
	ID             uuid.UUID               `json:"id"`
	ProductID      uuid.UUID               `json:"product_id"`
	ProductName    string                  `json:"product_name"`
	Reading        billing.MeterReading    `json:"reading"`
	BasePrice      decimal.Decimal         `json:"base_price"`
	UsageCharge    decimal.Decimal         `json:"usage_charge"`
	ProductTotal   decimal.Decimal         `json:"product_total"`
	Breakdown      []billing.ChannelCharge `json:"breakdown"`
	GSTType        billing.TaxRateEntries  `json:"gst_type"`
	CommissionRate decimal.Decimal         `json:"commission_rate"`
}

// ToLineUsage converts the line item into the calculator's aggregation input
func (li InvoiceLineItem) ToLineUsage() billing.LineUsage {
	return billing.LineUsage{
		ProductTotal:   li.ProductTotal,
		GSTType:        li.GSTType,
		CommissionRate: li.CommissionRate,
	}
}

// InvoiceLineItems is a slice of line items stored as JSONB
type InvoiceLineItems []InvoiceLineItem

// Value implements driver.Valuer for GORM to store as JSONB
func (l InvoiceLineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (l *InvoiceLineItems) Scan(value interface{}) error {
	if value == nil {
		*l = InvoiceLineItems{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InvoiceLineItems: unsupported type")
	}
	if len(bytes) == 0 {
		*l = InvoiceLineItems{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// PaymentRecord is one payment applied to the invoice, kept for audit
type PaymentRecord struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	AmountType AmountType      `json:"amount_type"`
	Mode       string          `json:"mode,omitempty"`
	Reference  string          `json:"reference,omitempty"`
	AppliedAt  time.Time       `json:"applied_at"`
}

// PaymentRecords is a slice of PaymentRecord stored as JSONB
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer for GORM to store as JSONB
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}
	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// MeterWarnings is a slice of calculator warnings stored as JSONB on the
// invoice so the operator confirmation trail survives the draft stage
type MeterWarnings []billing.MeterWarning

// Value implements driver.Valuer for GORM to store as JSONB
func (w MeterWarnings) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (w *MeterWarnings) Scan(value interface{}) error {
	if value == nil {
		*w = MeterWarnings{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan MeterWarnings: unsupported type")
	}
	if len(bytes) == 0 {
		*w = MeterWarnings{}
		return nil
	}
	return json.Unmarshal(bytes, w)
}

// RentalInvoice aggregates the line items billed to one company in one billing
// event. Once finalized its line items and totals are immutable; only the
// payment side (status, applied/pending/TDS amounts, payment metadata) moves,
// and exclusively through the reconciliation engine.
type RentalInvoice struct {
	shared.CompanyAggregateRoot
	InvoiceNumber    string           `json:"invoice_number"`
	CompanyName      string           `json:"company_name"`
	Status           InvoiceStatus    `json:"status"`
	LineItems        InvoiceLineItems `json:"line_items"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	TaxRate          decimal.Decimal  `json:"tax_rate"`
	TaxAmount        decimal.Decimal  `json:"tax_amount"`
	GrandTotal       decimal.Decimal  `json:"grand_total"`
	CommissionRate   decimal.Decimal  `json:"commission_rate"`
	CommissionAmount decimal.Decimal  `json:"commission_amount"`
	AppliedAmount    decimal.Decimal  `json:"applied_amount"`
	PendingAmount    decimal.Decimal  `json:"pending_amount"`
	TDSAmount        decimal.Decimal  `json:"tds_amount"`
	PaymentRecords   PaymentRecords   `json:"payment_records"`
	PaymentMode      string           `json:"payment_mode"`
	PaymentReference string           `json:"payment_reference"`
	Warnings         MeterWarnings    `json:"warnings,omitempty"`
	FinalizedAt      *time.Time       `json:"finalized_at"`
	PaidAt           *time.Time       `json:"paid_at"`
}

// NewRentalInvoice creates a new draft invoice from computed line items and totals
func NewRentalInvoice(
	companyID uuid.UUID,
	invoiceNumber string,
	companyName string,
	lineItems InvoiceLineItems,
	totals billing.InvoiceTotals,
	warnings MeterWarnings,
) (*RentalInvoice, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if len(lineItems) == 0 {
		return nil, shared.NewDomainError("INVALID_LINE_ITEMS", "Invoice requires at least one line item")
	}
	if totals.GrandTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TOTALS", "Grand total cannot be negative")
	}

	inv := &RentalInvoice{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		InvoiceNumber:        invoiceNumber,
		CompanyName:          companyName,
		Status:               InvoiceStatusDraft,
		LineItems:            lineItems,
		Subtotal:             totals.Subtotal,
		TaxRate:              totals.TaxRate,
		TaxAmount:            totals.TaxAmount,
		GrandTotal:           totals.GrandTotal,
		CommissionRate:       totals.CommissionRate,
		CommissionAmount:     totals.CommissionAmount,
		AppliedAmount:        decimal.Zero,
		PendingAmount:        decimal.Zero,
		TDSAmount:            decimal.Zero,
		PaymentRecords:       PaymentRecords{},
		Warnings:             warnings,
	}

	inv.AddDomainEvent(NewRentalInvoiceCreatedEvent(inv))

	return inv, nil
}

// FinalizeAsQuotation freezes the draft as a quotation
func (inv *RentalInvoice) FinalizeAsQuotation() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finalize invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusQuotation
	inv.FinalizedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewRentalInvoiceFinalizedEvent(inv))
	return nil
}

// FinalizeAsInvoice freezes the draft and opens it for payment
func (inv *RentalInvoice) FinalizeAsInvoice() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot finalize invoice in %s status", inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusUnpaid
	inv.FinalizedAt = &now
	inv.UpdatedAt = now
	inv.IncrementVersion()
	inv.AddDomainEvent(NewRentalInvoiceFinalizedEvent(inv))
	return nil
}

// ConvertToInvoice turns an accepted quotation into a billable invoice
func (inv *RentalInvoice) ConvertToInvoice() error {
	if inv.Status != InvoiceStatusQuotation {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot convert invoice in %s status", inv.Status))
	}
	inv.Status = InvoiceStatusUnpaid
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewRentalInvoiceFinalizedEvent(inv))
	return nil
}

// OutstandingAmount returns the portion of the grand total not yet applied
func (inv *RentalInvoice) OutstandingAmount() decimal.Decimal {
	return inv.GrandTotal.Sub(inv.AppliedAmount)
}

// applyPaymentAmount applies a payment slice to this invoice. The amount must
// not exceed the outstanding amount; capping and overflow routing are the
// reconciliation engine's job. amountType explains a remaining gap (Pending vs
// TDS) and is ignored once the invoice settles.
func (inv *RentalInvoice) applyPaymentAmount(amount decimal.Decimal, amountType AmountType, mode, reference string) error {
	if !inv.Status.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(inv.OutstandingAmount()) {
		return shared.NewDomainError("EXCEEDS_OUTSTANDING", fmt.Sprintf("Payment amount %s exceeds outstanding amount %s", amount.StringFixed(2), inv.OutstandingAmount().StringFixed(2)))
	}

	now := time.Now()
	inv.AppliedAmount = inv.AppliedAmount.Add(amount)
	inv.PaymentRecords = append(inv.PaymentRecords, PaymentRecord{
		ID:         uuid.New(),
		Amount:     amount,
		AmountType: amountType,
		Mode:       mode,
		Reference:  reference,
		AppliedAt:  now,
	})
	if mode != "" {
		inv.PaymentMode = mode
	}
	if reference != "" {
		inv.PaymentReference = reference
	}

	gap := inv.GrandTotal.Sub(inv.AppliedAmount)
	if gap.IsZero() {
		inv.Status = InvoiceStatusPaid
		inv.PendingAmount = decimal.Zero
		inv.TDSAmount = decimal.Zero
		inv.PaidAt = &now
		inv.AddDomainEvent(NewRentalInvoicePaidEvent(inv))
	} else {
		// The gap is explained either as still-owed (Pending) or as statutory
		// withholding (TDS) - one per payment event, never both.
		switch amountType {
		case AmountTypeTDS:
			inv.TDSAmount = gap
			inv.PendingAmount = decimal.Zero
		default:
			inv.PendingAmount = gap
			inv.TDSAmount = decimal.Zero
		}
		inv.AddDomainEvent(NewRentalInvoicePartiallyPaidEvent(inv, amount))
	}

	inv.UpdatedAt = now
	inv.IncrementVersion()
	return nil
}

// GetGrandTotalMoney returns the grand total as Money
func (inv *RentalInvoice) GetGrandTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.GrandTotal)
}

// GetOutstandingAmountMoney returns the outstanding amount as Money
func (inv *RentalInvoice) GetOutstandingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.OutstandingAmount())
}

// IsPaid returns true if the invoice is fully settled
func (inv *RentalInvoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsOutstanding returns true if the invoice still accepts payments
func (inv *RentalInvoice) IsOutstanding() bool {
	return inv.Status.CanApplyPayment()
}

// HasWarnings returns true if the usage computation flagged inconsistencies
func (inv *RentalInvoice) HasWarnings() bool {
	return len(inv.Warnings) > 0
}

// PaymentCount returns the number of payments applied
func (inv *RentalInvoice) PaymentCount() int {
	return len(inv.PaymentRecords)
}
