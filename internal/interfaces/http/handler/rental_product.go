package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/rentalworks/backend/internal/application/catalog"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/interfaces/http/dto"
)

// RentalProductHandler handles rental product API endpoints
type RentalProductHandler struct {
	BaseHandler
	productService *catalogapp.RentalProductService
}

// NewRentalProductHandler creates a new RentalProductHandler
func NewRentalProductHandler(productService *catalogapp.RentalProductService) *RentalProductHandler {
	return &RentalProductHandler{
		productService: productService,
	}
}

// RegisterRoutes registers rental product routes
func (h *RentalProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/catalog/rental-products")
	products.POST("", h.Create)
	products.GET("", h.List)
	products.GET("/:id", h.GetByID)
	products.PUT("/:id/meters", h.UpdateMeterConfig)
	products.PUT("/:id/pricing", h.UpdatePricing)
	products.POST("/:id/retire", h.Retire)

	rg.GET("/companies/:company_id/rental-products", h.ListByCompany)
}

// Create registers a new machine installed at a customer company
func (h *RentalProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateRentalProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, product)
}

// GetByID retrieves a rental product by ID
func (h *RentalProductHandler) GetByID(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.Get(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// List lists rental products with pagination and filtering
func (h *RentalProductHandler) List(c *gin.Context) {
	filter, ok := h.bindProductFilter(c)
	if !ok {
		return
	}

	result, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListByCompany lists all machines installed at one company
func (h *RentalProductHandler) ListByCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("company_id"))
	if err != nil {
		h.BadRequest(c, "Invalid company ID format")
		return
	}

	filter, ok := h.bindProductFilter(c)
	if !ok {
		return
	}

	products, err := h.productService.ListByCompany(c.Request.Context(), companyID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}

// UpdateMeterConfig replaces a product's meter configuration
func (h *RentalProductHandler) UpdateMeterConfig(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req catalogapp.UpdateMeterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.UpdateMeterConfig(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// UpdatePricing updates a product's base price, commission and GST
func (h *RentalProductHandler) UpdatePricing(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req catalogapp.UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.UpdatePricing(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Retire marks a machine as returned or decommissioned
func (h *RentalProductHandler) Retire(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.productService.Retire(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// bindProductFilter builds a product filter from list query parameters
func (h *RentalProductHandler) bindProductFilter(c *gin.Context) (catalog.RentalProductFilter, bool) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return catalog.RentalProductFilter{}, false
	}

	filter := catalog.RentalProductFilter{
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
			return catalog.RentalProductFilter{}, false
		}
		filter.CompanyID = &companyID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := catalog.ProductStatus(statusStr)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid product status")
			return catalog.RentalProductFilter{}, false
		}
		filter.Status = &status
	}

	return filter, true
}
