package finance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReconciliationStatus is the outcome discriminant of a reconciliation run
type ReconciliationStatus string

const (
	// ReconciliationStatusSettled means the full payment amount was absorbed
	// by the primary invoice and, when targeted, the overflow invoice.
	ReconciliationStatusSettled ReconciliationStatus = "SETTLED"
	// ReconciliationStatusShortfallRecorded means the payment fell short and
	// the gap was recorded as pending or TDS on the invoice.
	ReconciliationStatusShortfallRecorded ReconciliationStatus = "SHORTFALL_RECORDED"
	// ReconciliationStatusPendingTargetSelection means a residue of the
	// payment could not be placed because no (further) overflow target was
	// supplied; the caller must prompt for a target and re-invoke with the
	// unresolved credit. Funds are never silently dropped.
	ReconciliationStatusPendingTargetSelection ReconciliationStatus = "PENDING_TARGET_SELECTION"
)

// PaymentApplication is one slice of the payment landing on one invoice
type PaymentApplication struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Applied       decimal.Decimal `json:"applied"`
	NewStatus     InvoiceStatus   `json:"new_status"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	TDSAmount     decimal.Decimal `json:"tds_amount"`
}

// ReconciliationResult is the complete outcome of applying one payment event.
// Money is conserved: TotalApplied + UnresolvedCredit always equals the event
// amount.
type ReconciliationResult struct {
	Status           ReconciliationStatus `json:"status"`
	Applications     []PaymentApplication `json:"applications"`
	TotalApplied     decimal.Decimal      `json:"total_applied"`
	UnresolvedCredit decimal.Decimal      `json:"unresolved_credit"`

	// MutatedInvoices lists every invoice the run changed, primary first,
	// for the caller to persist in one transaction.
	MutatedInvoices []*RentalInvoice `json:"-"`
}

// ReconciliationService decides how a submitted payment amount is split across
// the target invoice and other outstanding invoices of the same company, and
// drives the resulting status transitions. It is a pure domain service: no
// persistence, no locking. The caller must serialize runs per invoice (and per
// company when overflow cascades) and persist the mutated invoices afterwards.
type ReconciliationService struct{}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService() *ReconciliationService {
	return &ReconciliationService{}
}

// ApplyPayment applies a payment event to an invoice.
//
// amount <= 0 is rejected before any computation. An amount below the
// outstanding balance must be explained as PENDING or TDS and leaves the
// invoice UNPAID with the gap recorded. An amount at or above the outstanding
// balance settles the invoice (applied is capped at the outstanding balance)
// and the excess flows to the event's overflow target drawn from
// outstandingInvoices, iterating across the chain until the money is placed or
// no further target exists, in which case the residue is reported as an
// unresolved credit. Validation failures leave every invoice untouched.
func (s *ReconciliationService) ApplyPayment(
	invoice *RentalInvoice,
	event PaymentEvent,
	outstandingInvoices []*RentalInvoice,
) (*ReconciliationResult, error) {
	if invoice == nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice cannot be nil")
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if !invoice.Status.CanApplyPayment() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reconcile invoice in %s status", invoice.Status))
	}

	outstanding := invoice.OutstandingAmount()

	// Shortfall path: the whole amount lands on this invoice and the gap needs
	// an explanation before anything is mutated.
	if event.Amount.LessThan(outstanding) {
		if event.AmountType != AmountTypePending && event.AmountType != AmountTypeTDS {
			return nil, shared.NewDomainError("AMOUNT_TYPE_REQUIRED", "Partial payments must be recorded as PENDING or TDS")
		}
		if err := invoice.applyPaymentAmount(event.Amount, event.AmountType, event.Mode, event.Reference); err != nil {
			return nil, err
		}
		return &ReconciliationResult{
			Status:           ReconciliationStatusShortfallRecorded,
			Applications:     []PaymentApplication{applicationOf(invoice, event.Amount)},
			TotalApplied:     event.Amount,
			UnresolvedCredit: decimal.Zero,
			MutatedInvoices:  []*RentalInvoice{invoice},
		}, nil
	}

	// Settlement path. Resolve the whole overflow chain before mutating so a
	// bad target cannot leave the primary invoice half-reconciled.
	chain, err := s.resolveOverflowChain(invoice, event, outstandingInvoices)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		Status:           ReconciliationStatusSettled,
		Applications:     make([]PaymentApplication, 0, len(chain)),
		TotalApplied:     decimal.Zero,
		UnresolvedCredit: decimal.Zero,
		MutatedInvoices:  make([]*RentalInvoice, 0, len(chain)),
	}

	balance := event.Amount
	for _, target := range chain {
		if balance.IsZero() {
			break
		}
		slice := decimal.Min(balance, target.OutstandingAmount())
		if err := target.applyPaymentAmount(slice, AmountTypeFull, event.Mode, event.Reference); err != nil {
			return nil, err
		}
		result.Applications = append(result.Applications, applicationOf(target, slice))
		result.MutatedInvoices = append(result.MutatedInvoices, target)
		result.TotalApplied = result.TotalApplied.Add(slice)
		balance = balance.Sub(slice)
	}

	if balance.IsPositive() {
		result.Status = ReconciliationStatusPendingTargetSelection
		result.UnresolvedCredit = balance
	}

	return result, nil
}

// resolveOverflowChain validates and orders the invoices an overpayment will
// flow through: the primary invoice first, then the selected overflow target.
func (s *ReconciliationService) resolveOverflowChain(
	invoice *RentalInvoice,
	event PaymentEvent,
	outstandingInvoices []*RentalInvoice,
) ([]*RentalInvoice, error) {
	chain := []*RentalInvoice{invoice}
	visited := map[uuid.UUID]bool{invoice.ID: true}

	if event.TargetOverflowInvoiceID == nil {
		return chain, nil
	}

	targetID := *event.TargetOverflowInvoiceID
	if visited[targetID] {
		return nil, shared.NewDomainError("INVALID_TARGET", "Overflow target cannot be the invoice being paid")
	}

	target := findOutstanding(outstandingInvoices, targetID)
	if target == nil {
		return nil, shared.NewDomainError("INVALID_TARGET", "Overflow target is not an outstanding invoice of this company")
	}
	if target.CompanyID != invoice.CompanyID {
		return nil, shared.NewDomainError("INVALID_TARGET", "Overflow target belongs to a different company")
	}

	chain = append(chain, target)
	return chain, nil
}

// findOutstanding returns the invoice with the given ID if it can accept payments
func findOutstanding(invoices []*RentalInvoice, id uuid.UUID) *RentalInvoice {
	for _, inv := range invoices {
		if inv != nil && inv.ID == id && inv.Status.CanApplyPayment() {
			return inv
		}
	}
	return nil
}

// applicationOf snapshots the post-application state of an invoice
func applicationOf(inv *RentalInvoice, applied decimal.Decimal) PaymentApplication {
	return PaymentApplication{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Applied:       applied,
		NewStatus:     inv.Status,
		PendingAmount: inv.PendingAmount,
		TDSAmount:     inv.TDSAmount,
	}
}
