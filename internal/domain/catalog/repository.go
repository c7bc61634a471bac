package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/shared"
)

// RentalProductFilter defines filtering options for product queries
type RentalProductFilter struct {
	shared.Filter
	CompanyID *uuid.UUID
	Status    *ProductStatus
}

// RentalProductRepository defines the interface for rental product persistence
type RentalProductRepository interface {
	// FindByID finds a rental product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*RentalProduct, error)

	// FindByIDs finds rental products by IDs, preserving only those found
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]RentalProduct, error)

	// FindByCompany finds all rental products installed at a company
	FindByCompany(ctx context.Context, companyID uuid.UUID, filter RentalProductFilter) ([]RentalProduct, error)

	// FindAll finds rental products with filtering
	FindAll(ctx context.Context, filter RentalProductFilter) ([]RentalProduct, error)

	// Save creates or updates a rental product
	Save(ctx context.Context, product *RentalProduct) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, product *RentalProduct) error

	// Count counts rental products matching the filter
	Count(ctx context.Context, filter RentalProductFilter) (int64, error)

	// Delete removes a rental product
	Delete(ctx context.Context, id uuid.UUID) error
}
