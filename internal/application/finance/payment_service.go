package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/rentalworks/backend/internal/application/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
)

// CompanyLocker serializes reconciliation runs per company. An overflow
// cascade can touch several invoices of the same company, so two concurrent
// payments for one company must not interleave.
type CompanyLocker interface {
	// AcquireCompanyLock acquires an exclusive lock for the company and
	// returns a release function. Returns shared.ErrLockNotAcquired when
	// another reconciliation holds the lock.
	AcquireCompanyLock(ctx context.Context, companyID uuid.UUID) (release func(), err error)
}

// PaymentService applies submitted payments to invoices through the
// reconciliation engine, under a per-company lock, and persists every invoice
// a run mutates in one transaction.
type PaymentService struct {
	invoiceRepo finance.RentalInvoiceRepository
	recon       *finance.ReconciliationService
	locker      CompanyLocker
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	invoiceRepo finance.RentalInvoiceRepository,
	recon *finance.ReconciliationService,
	locker CompanyLocker,
) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		recon:       recon,
		locker:      locker,
	}
}

// ApplyPayment reconciles one submitted payment against an invoice
func (s *PaymentService) ApplyPayment(ctx context.Context, invoiceID uuid.UUID, req ApplyPaymentRequest) (*ReconciliationResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.AcquireCompanyLock(ctx, invoice.CompanyID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; the invoice may have been reconciled while we
	// were waiting.
	invoice, err = s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	outstanding, err := s.outstandingExcept(ctx, invoice.CompanyID, invoice.ID)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	event := finance.PaymentEvent{
		Amount:                  req.Amount,
		AmountType:              finance.AmountType(req.AmountType),
		Mode:                    req.Mode,
		Reference:               req.Reference,
		PaidAt:                  paidAt,
		TargetOverflowInvoiceID: req.TargetOverflowInvoiceID,
	}

	result, err := s.recon.ApplyPayment(invoice, event, outstanding)
	if err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveAll(ctx, result.MutatedInvoices); err != nil {
		return nil, err
	}

	return toReconciliationResponse(result, invoice), nil
}

// ListOutstanding returns the invoices of a company that still accept payments,
// for overflow target selection.
func (s *PaymentService) ListOutstanding(ctx context.Context, companyID uuid.UUID) ([]appbilling.InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.FindOutstandingByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	items := make([]appbilling.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *appbilling.ToInvoiceResponse(&invoices[i]))
	}
	return items, nil
}

// outstandingExcept loads outstanding invoices of the company minus the one being paid
func (s *PaymentService) outstandingExcept(ctx context.Context, companyID, exceptID uuid.UUID) ([]*finance.RentalInvoice, error) {
	invoices, err := s.invoiceRepo.FindOutstandingByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	result := make([]*finance.RentalInvoice, 0, len(invoices))
	for i := range invoices {
		if invoices[i].ID == exceptID {
			continue
		}
		result = append(result, &invoices[i])
	}
	return result, nil
}
