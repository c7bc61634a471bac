package models

import (
	"time"

	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RentalProductModel is the persistence model for the RentalProduct aggregate.
type RentalProductModel struct {
	CompanyAggregateModel
	Name           string                 `gorm:"type:varchar(200);not null"`
	SerialNumber   string                 `gorm:"type:varchar(100);index"`
	BasePrice      decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionRate decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	GSTType        billing.TaxRateEntries `gorm:"type:jsonb"`
	Meters         billing.MeterConfig    `gorm:"type:jsonb"`
	Status         catalog.ProductStatus  `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	LastBilledAt   *time.Time             `gorm:""`
}

// TableName returns the table name for GORM
func (RentalProductModel) TableName() string {
	return "rental_products"
}

// ToDomain converts the persistence model to a domain RentalProduct aggregate.
func (m *RentalProductModel) ToDomain() *catalog.RentalProduct {
	return &catalog.RentalProduct{
		CompanyAggregateRoot: shared.CompanyAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			CompanyID: m.CompanyID,
		},
		Name:           m.Name,
		SerialNumber:   m.SerialNumber,
		BasePrice:      m.BasePrice,
		CommissionRate: m.CommissionRate,
		GSTType:        m.GSTType,
		Meters:         m.Meters,
		Status:         m.Status,
		LastBilledAt:   m.LastBilledAt,
	}
}

// FromDomain populates the persistence model from a domain RentalProduct aggregate.
func (m *RentalProductModel) FromDomain(p *catalog.RentalProduct) {
	m.FromDomainCompanyAggregateRoot(p.CompanyAggregateRoot)
	m.Name = p.Name
	m.SerialNumber = p.SerialNumber
	m.BasePrice = p.BasePrice
	m.CommissionRate = p.CommissionRate
	m.GSTType = p.GSTType
	m.Meters = p.Meters
	m.Status = p.Status
	m.LastBilledAt = p.LastBilledAt
}

// RentalProductModelFromDomain creates a new persistence model from a domain RentalProduct aggregate.
func RentalProductModelFromDomain(p *catalog.RentalProduct) *RentalProductModel {
	m := &RentalProductModel{}
	m.FromDomain(p)
	return m
}
