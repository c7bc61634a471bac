package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rentalworks/backend/internal/application/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles rental invoice and usage-billing API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	billing.POST("/usage/preview", h.PreviewUsage)
	billing.POST("/invoices", h.CreateInvoice)
	billing.GET("/invoices", h.List)
	billing.GET("/invoices/:id", h.GetByID)
	billing.GET("/invoices/number/:number", h.GetByNumber)
	billing.POST("/invoices/:id/convert", h.ConvertQuotation)
}

// PreviewUsage computes meter charges without creating any document
func (h *InvoiceHandler) PreviewUsage(c *gin.Context) {
	var req billingapp.PreviewUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	preview, err := h.invoiceService.PreviewUsage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, preview)
}

// CreateInvoice issues a quotation or an invoice from meter readings
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID retrieves an invoice by ID
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// GetByNumber retrieves an invoice by its invoice number
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return
	}

	invoice, err := h.invoiceService.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List lists invoices with pagination and filtering
func (h *InvoiceHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := finance.RentalInvoiceFilter{
		Filter: shared.Filter{
			Page:     listReq.Page,
			PageSize: listReq.PageSize,
			OrderBy:  listReq.OrderBy,
			OrderDir: listReq.OrderDir,
			Search:   listReq.Search,
		},
	}

	if companyIDStr := c.Query("company_id"); companyIDStr != "" {
		companyID, err := uuid.Parse(companyIDStr)
		if err != nil {
			h.BadRequest(c, "Invalid company ID format")
			return
		}
		filter.CompanyID = &companyID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := finance.InvoiceStatus(statusStr)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid invoice status")
			return
		}
		filter.Status = &status
	}

	result, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ConvertQuotation turns an accepted quotation into a billable invoice
func (h *InvoiceHandler) ConvertQuotation(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	invoice, err := h.invoiceService.ConvertQuotation(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}
