package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/domain/shared"
)

// InvoiceService drives the billing cycle: computing metered charges from
// reported counter readings, issuing quotations and invoices, and advancing
// each machine's counter baselines once it has been billed.
type InvoiceService struct {
	productRepo catalog.RentalProductRepository
	invoiceRepo finance.RentalInvoiceRepository
	ratePolicy  billing.RateResolutionPolicy
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	productRepo catalog.RentalProductRepository,
	invoiceRepo finance.RentalInvoiceRepository,
	ratePolicy billing.RateResolutionPolicy,
) *InvoiceService {
	return &InvoiceService{
		productRepo: productRepo,
		invoiceRepo: invoiceRepo,
		ratePolicy:  ratePolicy,
	}
}

// computedLine pairs a loaded product with its computed usage for one request line
type computedLine struct {
	product *catalog.RentalProduct
	reading billing.MeterReading
	usage   billing.ProductUsage
}

// PreviewUsage computes the charges a billing run would produce without
// creating any document or moving any baseline.
func (s *InvoiceService) PreviewUsage(ctx context.Context, req PreviewUsageRequest) (*UsagePreviewResponse, error) {
	lines, err := s.computeLines(ctx, req.CompanyID, req.Lines)
	if err != nil {
		return nil, err
	}

	usages := make([]billing.LineUsage, 0, len(lines))
	responses := make([]UsageLineResponse, 0, len(lines))
	for _, line := range lines {
		usages = append(usages, billing.LineUsage{
			ProductTotal:   line.usage.ProductTotal,
			GSTType:        line.product.GSTType,
			CommissionRate: line.product.CommissionRate,
		})
		responses = append(responses, UsageLineResponse{
			ProductID:    line.product.ID,
			ProductName:  line.product.Name,
			BasePrice:    line.usage.BasePrice,
			UsageCharge:  line.usage.UsageCharge,
			ProductTotal: line.usage.ProductTotal,
			Breakdown:    line.usage.Breakdown,
			Warnings:     line.usage.Warnings,
		})
	}

	totals, err := billing.ComputeInvoiceTotals(usages, s.ratePolicy, req.FallbackCommissionRate)
	if err != nil {
		return nil, err
	}

	return &UsagePreviewResponse{
		Lines:            responses,
		Subtotal:         totals.Subtotal,
		TaxRate:          totals.TaxRate,
		TaxAmount:        totals.TaxAmount,
		GrandTotal:       totals.GrandTotal,
		CommissionRate:   totals.CommissionRate,
		CommissionAmount: totals.CommissionAmount,
	}, nil
}

// CreateInvoice computes charges for the requested readings and issues either
// a quotation or an invoice. Issuing an invoice advances each billed machine's
// counter baselines; a quotation leaves them untouched until conversion.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	if !req.IssueAs.IsValid() {
		return nil, shared.NewDomainError("INVALID_ISSUE_MODE", "Issue mode must be INVOICE or QUOTATION")
	}

	lines, err := s.computeLines(ctx, req.CompanyID, req.Lines)
	if err != nil {
		return nil, err
	}

	lineItems := make(finance.InvoiceLineItems, 0, len(lines))
	usages := make([]billing.LineUsage, 0, len(lines))
	var warnings finance.MeterWarnings
	for _, line := range lines {
		lineItems = append(lineItems, finance.InvoiceLineItem{
			ID:             uuid.New(),
			ProductID:      line.product.ID,
			ProductName:    line.product.Name,
			Reading:        line.reading,
			BasePrice:      line.usage.BasePrice,
			UsageCharge:    line.usage.UsageCharge,
			ProductTotal:   line.usage.ProductTotal,
			Breakdown:      line.usage.Breakdown,
			GSTType:        line.product.GSTType,
			CommissionRate: line.product.CommissionRate,
		})
		usages = append(usages, billing.LineUsage{
			ProductTotal:   line.usage.ProductTotal,
			GSTType:        line.product.GSTType,
			CommissionRate: line.product.CommissionRate,
		})
		warnings = append(warnings, line.usage.Warnings...)
	}

	totals, err := billing.ComputeInvoiceTotals(usages, s.ratePolicy, req.FallbackCommissionRate)
	if err != nil {
		return nil, err
	}

	number, err := s.nextInvoiceNumber(ctx, req.IssueAs)
	if err != nil {
		return nil, err
	}

	invoice, err := finance.NewRentalInvoice(req.CompanyID, number, req.CompanyName, lineItems, totals, warnings)
	if err != nil {
		return nil, err
	}

	switch req.IssueAs {
	case IssueModeQuotation:
		if err := invoice.FinalizeAsQuotation(); err != nil {
			return nil, err
		}
	default:
		if err := invoice.FinalizeAsInvoice(); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	// Baselines move only once the document is billable. A quotation keeps
	// the counters where they were so the same reading can be re-billed if
	// the quotation is rejected.
	if req.IssueAs == IssueModeInvoice {
		if err := s.advanceBaselines(ctx, lines); err != nil {
			return nil, err
		}
	}

	return ToInvoiceResponse(invoice), nil
}

// ConvertQuotation turns an accepted quotation into a billable invoice and
// advances the baselines of the machines it bills.
func (s *InvoiceService) ConvertQuotation(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := invoice.ConvertToInvoice(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	lines := make([]computedLine, 0, len(invoice.LineItems))
	for _, item := range invoice.LineItems {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, computedLine{product: product, reading: item.Reading})
	}
	if err := s.advanceBaselines(ctx, lines); err != nil {
		return nil, err
	}

	return ToInvoiceResponse(invoice), nil
}

// Get returns an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// GetByNumber returns an invoice by its invoice number
func (s *InvoiceService) GetByNumber(ctx context.Context, number string) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// List returns invoices matching the filter
func (s *InvoiceService) List(ctx context.Context, filter finance.RentalInvoiceFilter) (*shared.Paginated[InvoiceResponse], error) {
	invoices, err := s.invoiceRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *ToInvoiceResponse(&invoices[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// computeLines loads and validates the billed machines and evaluates each reading
func (s *InvoiceService) computeLines(ctx context.Context, companyID uuid.UUID, reqLines []UsageLineRequest) ([]computedLine, error) {
	if len(reqLines) == 0 {
		return nil, shared.NewDomainError("INVALID_LINE_ITEMS", "At least one meter reading is required")
	}

	lines := make([]computedLine, 0, len(reqLines))
	seen := make(map[uuid.UUID]bool, len(reqLines))
	for _, reqLine := range reqLines {
		if seen[reqLine.ProductID] {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Each machine may appear only once per billing run")
		}
		seen[reqLine.ProductID] = true

		product, err := s.productRepo.FindByID(ctx, reqLine.ProductID)
		if err != nil {
			return nil, err
		}
		if product.CompanyID != companyID {
			return nil, shared.NewDomainError("COMPANY_MISMATCH", "Machine is not installed at this company")
		}
		if !product.IsActive() {
			return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Machine %s is retired and cannot be billed", product.Name))
		}

		lines = append(lines, computedLine{
			product: product,
			reading: reqLine.Reading,
			usage:   product.ComputeUsage(reqLine.Reading),
		})
	}
	return lines, nil
}

// advanceBaselines moves each billed machine's counters forward and persists it
func (s *InvoiceService) advanceBaselines(ctx context.Context, lines []computedLine) error {
	for _, line := range lines {
		if err := line.product.AdvanceMeterBaselines(line.reading); err != nil {
			return err
		}
		if err := s.productRepo.SaveWithLock(ctx, line.product); err != nil {
			return err
		}
	}
	return nil
}

// nextInvoiceNumber issues the next document number for the current month
func (s *InvoiceService) nextInvoiceNumber(ctx context.Context, mode IssueMode) (string, error) {
	prefix := "INV"
	if mode == IssueModeQuotation {
		prefix = "QUO"
	}
	prefix = fmt.Sprintf("%s-%s", prefix, time.Now().Format("200601"))

	seq, err := s.invoiceRepo.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, seq), nil
}
