package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateRentalProductRequest represents a request to register a machine at a company
type CreateRentalProductRequest struct {
	CompanyID      uuid.UUID              `json:"company_id" binding:"required"`
	Name           string                 `json:"name" binding:"required,min=1,max=200"`
	SerialNumber   string                 `json:"serial_number" binding:"max=100"`
	BasePrice      decimal.Decimal        `json:"base_price"`
	CommissionRate decimal.Decimal        `json:"commission_rate"`
	GSTType        billing.TaxRateEntries `json:"gst_type"`
	Meters         billing.MeterConfig    `json:"meters"`
}

// UpdateMeterConfigRequest replaces a product's meter configuration
type UpdateMeterConfigRequest struct {
	Meters billing.MeterConfig `json:"meters" binding:"required"`
}

// UpdatePricingRequest updates base price, commission and GST configuration
type UpdatePricingRequest struct {
	BasePrice      decimal.Decimal        `json:"base_price"`
	CommissionRate decimal.Decimal        `json:"commission_rate"`
	GSTType        billing.TaxRateEntries `json:"gst_type"`
}

// RentalProductResponse represents a rental product in API responses
type RentalProductResponse struct {
	ID             uuid.UUID              `json:"id"`
	CompanyID      uuid.UUID              `json:"company_id"`
	Name           string                 `json:"name"`
	SerialNumber   string                 `json:"serial_number"`
	BasePrice      decimal.Decimal        `json:"base_price"`
	CommissionRate decimal.Decimal        `json:"commission_rate"`
	GSTType        billing.TaxRateEntries `json:"gst_type"`
	TotalGSTRate   decimal.Decimal        `json:"total_gst_rate"`
	Meters         billing.MeterConfig    `json:"meters"`
	Status         string                 `json:"status"`
	LastBilledAt   *time.Time             `json:"last_billed_at"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int                    `json:"version"`
}

func toRentalProductResponse(p *catalog.RentalProduct) *RentalProductResponse {
	return &RentalProductResponse{
		ID:             p.ID,
		CompanyID:      p.CompanyID,
		Name:           p.Name,
		SerialNumber:   p.SerialNumber,
		BasePrice:      p.BasePrice,
		CommissionRate: p.CommissionRate,
		GSTType:        p.GSTType,
		TotalGSTRate:   p.TotalGSTRate(),
		Meters:         p.Meters,
		Status:         p.Status.String(),
		LastBilledAt:   p.LastBilledAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Version:        p.Version,
	}
}
