package models

import (
	"time"

	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RentalInvoiceModel is the persistence model for the RentalInvoice aggregate.
// Line items, payment records and meter warnings are stored as JSONB columns;
// they are immutable snapshots, never queried relationally.
type RentalInvoiceModel struct {
	CompanyAggregateModel
	InvoiceNumber    string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	CompanyName      string                   `gorm:"type:varchar(200);not null"`
	Status           finance.InvoiceStatus    `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	LineItems        finance.InvoiceLineItems `gorm:"type:jsonb"`
	Subtotal         decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate          decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount        decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal       decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionRate   decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	AppliedAmount    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	PendingAmount    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TDSAmount        decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0;column:tds_amount"`
	PaymentRecords   finance.PaymentRecords   `gorm:"type:jsonb"`
	PaymentMode      string                   `gorm:"type:varchar(50)"`
	PaymentReference string                   `gorm:"type:varchar(100)"`
	Warnings         finance.MeterWarnings    `gorm:"type:jsonb"`
	FinalizedAt      *time.Time               `gorm:"index"`
	PaidAt           *time.Time               `gorm:""`
}

// TableName returns the table name for GORM
func (RentalInvoiceModel) TableName() string {
	return "rental_invoices"
}

// ToDomain converts the persistence model to a domain RentalInvoice aggregate.
func (m *RentalInvoiceModel) ToDomain() *finance.RentalInvoice {
	return &finance.RentalInvoice{
		CompanyAggregateRoot: shared.CompanyAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			CompanyID: m.CompanyID,
		},
		InvoiceNumber:    m.InvoiceNumber,
		CompanyName:      m.CompanyName,
		Status:           m.Status,
		LineItems:        m.LineItems,
		Subtotal:         m.Subtotal,
		TaxRate:          m.TaxRate,
		TaxAmount:        m.TaxAmount,
		GrandTotal:       m.GrandTotal,
		CommissionRate:   m.CommissionRate,
		CommissionAmount: m.CommissionAmount,
		AppliedAmount:    m.AppliedAmount,
		PendingAmount:    m.PendingAmount,
		TDSAmount:        m.TDSAmount,
		PaymentRecords:   m.PaymentRecords,
		PaymentMode:      m.PaymentMode,
		PaymentReference: m.PaymentReference,
		Warnings:         m.Warnings,
		FinalizedAt:      m.FinalizedAt,
		PaidAt:           m.PaidAt,
	}
}

// FromDomain populates the persistence model from a domain RentalInvoice aggregate.
func (m *RentalInvoiceModel) FromDomain(inv *finance.RentalInvoice) {
	m.FromDomainCompanyAggregateRoot(inv.CompanyAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CompanyName = inv.CompanyName
	m.Status = inv.Status
	m.LineItems = inv.LineItems
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.GrandTotal = inv.GrandTotal
	m.CommissionRate = inv.CommissionRate
	m.CommissionAmount = inv.CommissionAmount
	m.AppliedAmount = inv.AppliedAmount
	m.PendingAmount = inv.PendingAmount
	m.TDSAmount = inv.TDSAmount
	m.PaymentRecords = inv.PaymentRecords
	m.PaymentMode = inv.PaymentMode
	m.PaymentReference = inv.PaymentReference
	m.Warnings = inv.Warnings
	m.FinalizedAt = inv.FinalizedAt
	m.PaidAt = inv.PaidAt
}

// RentalInvoiceModelFromDomain creates a new persistence model from a domain RentalInvoice aggregate.
func RentalInvoiceModelFromDomain(inv *finance.RentalInvoice) *RentalInvoiceModel {
	m := &RentalInvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceSequenceModel backs the per-prefix invoice numbering counters.
type InvoiceSequenceModel struct {
	Prefix string `gorm:"type:varchar(20);primary_key"`
	Value  int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
