package catalog

import (
	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RentalProductCreatedEvent is raised when a new rental product is registered
type RentalProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	CompanyID    uuid.UUID       `json:"company_id"`
	Name         string          `json:"name"`
	SerialNumber string          `json:"serial_number"`
	BasePrice    decimal.Decimal `json:"base_price"`
}

// EventType returns the event type name
func (e *RentalProductCreatedEvent) EventType() string {
	return "RentalProductCreated"
}

// NewRentalProductCreatedEvent creates a new RentalProductCreatedEvent
func NewRentalProductCreatedEvent(p *RentalProduct) *RentalProductCreatedEvent {
	return &RentalProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("RentalProductCreated", "RentalProduct", p.ID),
		ProductID:       p.ID,
		CompanyID:       p.CompanyID,
		Name:            p.Name,
		SerialNumber:    p.SerialNumber,
		BasePrice:       p.BasePrice,
	}
}

// MeterBaselinesAdvancedEvent is raised when a billing event moves the
// product's counter baselines forward
type MeterBaselinesAdvancedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID            `json:"product_id"`
	CompanyID uuid.UUID            `json:"company_id"`
	Reading   billing.MeterReading `json:"reading"`
}

// EventType returns the event type name
func (e *MeterBaselinesAdvancedEvent) EventType() string {
	return "MeterBaselinesAdvanced"
}

// NewMeterBaselinesAdvancedEvent creates a new MeterBaselinesAdvancedEvent
func NewMeterBaselinesAdvancedEvent(p *RentalProduct, reading billing.MeterReading) *MeterBaselinesAdvancedEvent {
	return &MeterBaselinesAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("MeterBaselinesAdvanced", "RentalProduct", p.ID),
		ProductID:       p.ID,
		CompanyID:       p.CompanyID,
		Reading:         reading,
	}
}
