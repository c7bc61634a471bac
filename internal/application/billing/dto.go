package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// IssueMode selects what document CreateInvoice produces
type IssueMode string

const (
	IssueModeInvoice   IssueMode = "INVOICE"
	IssueModeQuotation IssueMode = "QUOTATION"
)

// IsValid checks if the issue mode is valid
func (m IssueMode) IsValid() bool {
	return m == IssueModeInvoice || m == IssueModeQuotation
}

// UsageLineRequest is one machine plus its freshly reported meter reading
type UsageLineRequest struct {
	ProductID uuid.UUID            `json:"product_id" binding:"required"`
	Reading   billing.MeterReading `json:"reading" binding:"required"`
}

// PreviewUsageRequest computes charges without creating any document
type PreviewUsageRequest struct {
	CompanyID              uuid.UUID          `json:"company_id" binding:"required"`
	Lines                  []UsageLineRequest `json:"lines" binding:"required,min=1"`
	FallbackCommissionRate decimal.Decimal    `json:"fallback_commission_rate"`
}

// CreateInvoiceRequest creates a quotation or an invoice from meter readings
type CreateInvoiceRequest struct {
	CompanyID              uuid.UUID          `json:"company_id" binding:"required"`
	CompanyName            string             `json:"company_name" binding:"required,min=1,max=200"`
	IssueAs                IssueMode          `json:"issue_as" binding:"required"`
	Lines                  []UsageLineRequest `json:"lines" binding:"required,min=1"`
	FallbackCommissionRate decimal.Decimal    `json:"fallback_commission_rate"`
}

// UsageLineResponse is the computed outcome of one machine
type UsageLineResponse struct {
	ProductID    uuid.UUID               `json:"product_id"`
	ProductName  string                  `json:"product_name"`
	BasePrice    decimal.Decimal         `json:"base_price"`
	UsageCharge  decimal.Decimal         `json:"usage_charge"`
	ProductTotal decimal.Decimal         `json:"product_total"`
	Breakdown    []billing.ChannelCharge `json:"breakdown"`
	Warnings     []billing.MeterWarning  `json:"warnings,omitempty"`
}

// UsagePreviewResponse is the computed outcome of a whole billing run
type UsagePreviewResponse struct {
	Lines            []UsageLineResponse `json:"lines"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	TaxRate          decimal.Decimal     `json:"tax_rate"`
	TaxAmount        decimal.Decimal     `json:"tax_amount"`
	GrandTotal       decimal.Decimal     `json:"grand_total"`
	CommissionRate   decimal.Decimal     `json:"commission_rate"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID                `json:"id"`
	InvoiceNumber     string                   `json:"invoice_number"`
	CompanyID         uuid.UUID                `json:"company_id"`
	CompanyName       string                   `json:"company_name"`
	Status            string                   `json:"status"`
	LineItems         finance.InvoiceLineItems `json:"line_items"`
	Subtotal          decimal.Decimal          `json:"subtotal"`
	TaxRate           decimal.Decimal          `json:"tax_rate"`
	TaxAmount         decimal.Decimal          `json:"tax_amount"`
	GrandTotal        decimal.Decimal          `json:"grand_total"`
	CommissionRate    decimal.Decimal          `json:"commission_rate"`
	CommissionAmount  decimal.Decimal          `json:"commission_amount"`
	AppliedAmount     decimal.Decimal          `json:"applied_amount"`
	PendingAmount     decimal.Decimal          `json:"pending_amount"`
	TDSAmount         decimal.Decimal          `json:"tds_amount"`
	OutstandingAmount decimal.Decimal          `json:"outstanding_amount"`
	PaymentMode       string                   `json:"payment_mode,omitempty"`
	PaymentReference  string                   `json:"payment_reference,omitempty"`
	Warnings          finance.MeterWarnings    `json:"warnings,omitempty"`
	FinalizedAt       *time.Time               `json:"finalized_at"`
	PaidAt            *time.Time               `json:"paid_at"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
	Version           int                      `json:"version"`
}

// ToInvoiceResponse maps an invoice aggregate to its API shape
func ToInvoiceResponse(inv *finance.RentalInvoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:                inv.ID,
		InvoiceNumber:     inv.InvoiceNumber,
		CompanyID:         inv.CompanyID,
		CompanyName:       inv.CompanyName,
		Status:            inv.Status.String(),
		LineItems:         inv.LineItems,
		Subtotal:          inv.Subtotal,
		TaxRate:           inv.TaxRate,
		TaxAmount:         inv.TaxAmount,
		GrandTotal:        inv.GrandTotal,
		CommissionRate:    inv.CommissionRate,
		CommissionAmount:  inv.CommissionAmount,
		AppliedAmount:     inv.AppliedAmount,
		PendingAmount:     inv.PendingAmount,
		TDSAmount:         inv.TDSAmount,
		OutstandingAmount: inv.OutstandingAmount(),
		PaymentMode:       inv.PaymentMode,
		PaymentReference:  inv.PaymentReference,
		Warnings:          inv.Warnings,
		FinalizedAt:       inv.FinalizedAt,
		PaidAt:            inv.PaidAt,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
}
