package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/rentalworks/backend/internal/application/finance"
)

// PaymentHandler handles payment reconciliation API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *financeapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *financeapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	finance := rg.Group("/finance")
	finance.POST("/invoices/:id/payments", h.ApplyPayment)
	finance.GET("/companies/:company_id/outstanding", h.ListOutstanding)
}

// ApplyPayment records a submitted payment against an invoice and runs the
// reconciliation engine
func (h *PaymentHandler) ApplyPayment(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	var req financeapp.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.ApplyPayment(c.Request.Context(), invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListOutstanding lists a company's invoices that still accept payments
func (h *PaymentHandler) ListOutstanding(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		h.BadRequest(c, "Invalid company ID format")
		return
	}

	invoices, err := h.paymentService.ListOutstanding(c.Request.Context(), companyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}
