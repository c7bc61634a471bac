package finance

import (
	"time"

	"github.com/google/uuid"
	appbilling "github.com/rentalworks/backend/internal/application/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest records one submitted payment against an invoice
type ApplyPaymentRequest struct {
	Amount     decimal.Decimal `json:"amount" binding:"required,positive_amount"`
	AmountType string          `json:"amount_type" binding:"omitempty,oneof=FULL TDS PENDING"`
	Mode       string          `json:"mode" binding:"max=50"`
	Reference  string          `json:"reference" binding:"max=100"`
	PaidAt     *time.Time      `json:"paid_at"`

	// TargetOverflowInvoiceID selects the outstanding invoice that receives
	// the excess of an overpayment. Optional.
	TargetOverflowInvoiceID *uuid.UUID `json:"target_overflow_invoice_id"`
}

// PaymentApplicationResponse is one slice of the payment landing on one invoice
type PaymentApplicationResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Applied       decimal.Decimal `json:"applied"`
	NewStatus     string          `json:"new_status"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	TDSAmount     decimal.Decimal `json:"tds_amount"`
}

// ReconciliationResponse is the outcome of one payment reconciliation run
type ReconciliationResponse struct {
	Status           string                       `json:"status"`
	Applications     []PaymentApplicationResponse `json:"applications"`
	TotalApplied     decimal.Decimal              `json:"total_applied"`
	UnresolvedCredit decimal.Decimal              `json:"unresolved_credit"`
	Invoice          *appbilling.InvoiceResponse  `json:"invoice"`
}

func toReconciliationResponse(result *finance.ReconciliationResult, primary *finance.RentalInvoice) *ReconciliationResponse {
	applications := make([]PaymentApplicationResponse, 0, len(result.Applications))
	for _, app := range result.Applications {
		applications = append(applications, PaymentApplicationResponse{
			InvoiceID:     app.InvoiceID,
			InvoiceNumber: app.InvoiceNumber,
			Applied:       app.Applied,
			NewStatus:     app.NewStatus.String(),
			PendingAmount: app.PendingAmount,
			TDSAmount:     app.TDSAmount,
		})
	}
	return &ReconciliationResponse{
		Status:           string(result.Status),
		Applications:     applications,
		TotalApplied:     result.TotalApplied,
		UnresolvedCredit: result.UnresolvedCredit,
		Invoice:          appbilling.ToInvoiceResponse(primary),
	}
}
