package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentEvent is the input to a reconciliation run: one submitted payment
// against one invoice. It is not persisted as its own entity; it is applied
// transactionally to one or two RentalInvoice records.
type PaymentEvent struct {
	Amount     decimal.Decimal
	AmountType AmountType
	Mode       string
	Reference  string
	PaidAt     time.Time

	// TargetOverflowInvoiceID selects the outstanding invoice of the same
	// company that receives the excess when Amount exceeds the invoice's
	// outstanding amount. Optional; without it an excess is reported as an
	// unresolved credit instead of being dropped.
	TargetOverflowInvoiceID *uuid.UUID
}

// Validate rejects structurally invalid payment events before any computation
func (e PaymentEvent) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !e.AmountType.IsValid() {
		return shared.NewDomainError("INVALID_AMOUNT_TYPE", "Amount type must be FULL, TDS or PENDING")
	}
	return nil
}
