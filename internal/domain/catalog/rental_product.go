package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a rental product
type ProductStatus string

const (
	ProductStatusActive  ProductStatus = "ACTIVE"  // Installed at the customer, billable
	ProductStatusRetired ProductStatus = "RETIRED" // Returned or decommissioned
)

// IsValid checks if the status is a valid ProductStatus
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusRetired
}

// String returns the string representation of ProductStatus
func (s ProductStatus) String() string {
	return string(s)
}

// RentalProduct is a billable machine installed at a customer company: a
// photocopier or printer rented out with a flat recurring base price plus
// metered per-copy charges. Its meter configuration snapshots the counter
// baselines of the previous billing cycle; AdvanceMeterBaselines is the only
// operation that moves them forward.
type RentalProduct struct {
	shared.CompanyAggregateRoot
	Name           string                 `json:"name"`
	SerialNumber   string                 `json:"serial_number"`
	BasePrice      decimal.Decimal        `json:"base_price"`
	CommissionRate decimal.Decimal        `json:"commission_rate"`
	GSTType        billing.TaxRateEntries `json:"gst_type"`
	Meters         billing.MeterConfig    `json:"meters"`
	Status         ProductStatus          `json:"status"`
	LastBilledAt   *time.Time             `json:"last_billed_at"`
}

// NewRentalProduct creates a new rental product
func NewRentalProduct(
	companyID uuid.UUID,
	name string,
	serialNumber string,
	basePrice valueobject.Money,
	commissionRate decimal.Decimal,
	gstType billing.TaxRateEntries,
	meters billing.MeterConfig,
) (*RentalProduct, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	if basePrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BASE_PRICE", "Base price cannot be negative")
	}
	if commissionRate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COMMISSION", "Commission rate cannot be negative")
	}
	for _, entry := range gstType {
		if entry.Percent.IsNegative() {
			return nil, shared.NewDomainError("INVALID_GST", "GST rate entries cannot be negative")
		}
	}

	p := &RentalProduct{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		SerialNumber:         serialNumber,
		BasePrice:            basePrice.Amount(),
		CommissionRate:       commissionRate,
		GSTType:              gstType,
		Meters:               meters,
		Status:               ProductStatusActive,
	}

	p.AddDomainEvent(NewRentalProductCreatedEvent(p))

	return p, nil
}

// TotalGSTRate returns the product's total tax rate as a percentage
func (p *RentalProduct) TotalGSTRate() decimal.Decimal {
	return p.GSTType.TotalPercent()
}

// GetBasePriceMoney returns the base price as Money
func (p *RentalProduct) GetBasePriceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.BasePrice)
}

// ComputeUsage evaluates a meter reading against this product's configuration
func (p *RentalProduct) ComputeUsage(reading billing.MeterReading) billing.ProductUsage {
	return billing.ComputeProductUsage(p.BasePrice, p.Meters, reading)
}

// AdvanceMeterBaselines moves the counter baselines forward to the counts just
// billed. Called on invoice finalization only; baselines never move anywhere
// else, and sizes without a reported reading keep their old baseline.
func (p *RentalProduct) AdvanceMeterBaselines(reading billing.MeterReading) error {
	if p.Status != ProductStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot advance meter baselines on a retired product")
	}

	for size, sizeReading := range reading.Sizes {
		cfg, active := p.Meters.Size(size)
		if !active {
			continue
		}
		cfg.BW.OldCount = sizeReading.BWNewCount
		cfg.Color.OldCount = sizeReading.ColorNewCount
		cfg.ColorScanning.OldCount = sizeReading.ColorScanningNewCount
		p.Meters.SetSize(size, cfg)
	}

	now := time.Now()
	p.LastBilledAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewMeterBaselinesAdvancedEvent(p, reading))

	return nil
}

// UpdateMeterConfig replaces the meter configuration of the product.
// Baselines set here take effect from the next billing cycle.
func (p *RentalProduct) UpdateMeterConfig(meters billing.MeterConfig) error {
	if p.Status != ProductStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot reconfigure a retired product")
	}
	p.Meters = meters
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// UpdatePricing updates base price, commission and GST configuration
func (p *RentalProduct) UpdatePricing(basePrice valueobject.Money, commissionRate decimal.Decimal, gstType billing.TaxRateEntries) error {
	if p.Status != ProductStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot reprice a retired product")
	}
	if basePrice.IsNegative() {
		return shared.NewDomainError("INVALID_BASE_PRICE", "Base price cannot be negative")
	}
	if commissionRate.IsNegative() {
		return shared.NewDomainError("INVALID_COMMISSION", "Commission rate cannot be negative")
	}

	p.BasePrice = basePrice.Amount()
	p.CommissionRate = commissionRate
	p.GSTType = gstType
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Retire marks the product as returned or decommissioned
func (p *RentalProduct) Retire() error {
	if p.Status == ProductStatusRetired {
		return shared.NewDomainError("INVALID_STATE", "Product is already retired")
	}
	p.Status = ProductStatusRetired
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// IsActive returns true if the product is billable
func (p *RentalProduct) IsActive() bool {
	return p.Status == ProductStatusActive
}
