package finance

import (
	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RentalInvoiceCreatedEvent is raised when a new draft invoice is assembled
type RentalInvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CompanyID     uuid.UUID       `json:"company_id"`
	CompanyName   string          `json:"company_name"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	LineItemCount int             `json:"line_item_count"`
	HasWarnings   bool            `json:"has_warnings"`
}

// EventType returns the event type name
func (e *RentalInvoiceCreatedEvent) EventType() string {
	return "RentalInvoiceCreated"
}

// NewRentalInvoiceCreatedEvent creates a new RentalInvoiceCreatedEvent
func NewRentalInvoiceCreatedEvent(inv *RentalInvoice) *RentalInvoiceCreatedEvent {
	return &RentalInvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RentalInvoiceCreated", "RentalInvoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CompanyID:       inv.CompanyID,
		CompanyName:     inv.CompanyName,
		GrandTotal:      inv.GrandTotal,
		LineItemCount:   len(inv.LineItems),
		HasWarnings:     inv.HasWarnings(),
	}
}

// RentalInvoiceFinalizedEvent is raised when a draft becomes a quotation or a
// billable invoice, and when a quotation converts
type RentalInvoiceFinalizedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID     `json:"invoice_id"`
	InvoiceNumber string        `json:"invoice_number"`
	CompanyID     uuid.UUID     `json:"company_id"`
	Status        InvoiceStatus `json:"status"`
}

// EventType returns the event type name
func (e *RentalInvoiceFinalizedEvent) EventType() string {
	return "RentalInvoiceFinalized"
}

// NewRentalInvoiceFinalizedEvent creates a new RentalInvoiceFinalizedEvent
func NewRentalInvoiceFinalizedEvent(inv *RentalInvoice) *RentalInvoiceFinalizedEvent {
	return &RentalInvoiceFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RentalInvoiceFinalized", "RentalInvoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CompanyID:       inv.CompanyID,
		Status:          inv.Status,
	}
}

// RentalInvoicePaidEvent is raised when an invoice is fully settled
type RentalInvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CompanyID     uuid.UUID       `json:"company_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// EventType returns the event type name
func (e *RentalInvoicePaidEvent) EventType() string {
	return "RentalInvoicePaid"
}

// NewRentalInvoicePaidEvent creates a new RentalInvoicePaidEvent
func NewRentalInvoicePaidEvent(inv *RentalInvoice) *RentalInvoicePaidEvent {
	return &RentalInvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RentalInvoicePaid", "RentalInvoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CompanyID:       inv.CompanyID,
		GrandTotal:      inv.GrandTotal,
	}
}

// RentalInvoicePartiallyPaidEvent is raised when a payment leaves a gap
type RentalInvoicePartiallyPaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CompanyID     uuid.UUID       `json:"company_id"`
	Applied       decimal.Decimal `json:"applied"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	TDSAmount     decimal.Decimal `json:"tds_amount"`
}

// EventType returns the event type name
func (e *RentalInvoicePartiallyPaidEvent) EventType() string {
	return "RentalInvoicePartiallyPaid"
}

// NewRentalInvoicePartiallyPaidEvent creates a new RentalInvoicePartiallyPaidEvent
func NewRentalInvoicePartiallyPaidEvent(inv *RentalInvoice, applied decimal.Decimal) *RentalInvoicePartiallyPaidEvent {
	return &RentalInvoicePartiallyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RentalInvoicePartiallyPaid", "RentalInvoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CompanyID:       inv.CompanyID,
		Applied:         applied,
		PendingAmount:   inv.PendingAmount,
		TDSAmount:       inv.TDSAmount,
	}
}
