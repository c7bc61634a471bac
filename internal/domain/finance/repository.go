package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/shared"
)

// RentalInvoiceFilter defines filtering options for invoice queries
type RentalInvoiceFilter struct {
	shared.Filter
	CompanyID *uuid.UUID
	Status    *InvoiceStatus
}

// RentalInvoiceRepository defines the interface for rental invoice persistence
type RentalInvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RentalInvoice, error)

	// FindByNumber finds an invoice by its invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*RentalInvoice, error)

	// FindAll finds invoices with filtering
	FindAll(ctx context.Context, filter RentalInvoiceFilter) ([]RentalInvoice, error)

	// FindByCompany finds invoices for a company
	FindByCompany(ctx context.Context, companyID uuid.UUID, filter RentalInvoiceFilter) ([]RentalInvoice, error)

	// FindOutstandingByCompany finds invoices of a company that still accept
	// payments (status UNPAID)
	FindOutstandingByCompany(ctx context.Context, companyID uuid.UUID) ([]RentalInvoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *RentalInvoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *RentalInvoice) error

	// SaveAll persists multiple invoices in one transaction; used when an
	// overflow cascade mutates more than one invoice
	SaveAll(ctx context.Context, invoices []*RentalInvoice) error

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter RentalInvoiceFilter) (int64, error)

	// NextSequence returns the next invoice sequence number for a prefix
	NextSequence(ctx context.Context, prefix string) (int64, error)
}
