package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/domain/shared/valueobject"
)

// RentalProductService handles rental product management operations
type RentalProductService struct {
	productRepo catalog.RentalProductRepository
}

// NewRentalProductService creates a new RentalProductService
func NewRentalProductService(productRepo catalog.RentalProductRepository) *RentalProductService {
	return &RentalProductService{productRepo: productRepo}
}

// Create registers a new machine at a company
func (s *RentalProductService) Create(ctx context.Context, req CreateRentalProductRequest) (*RentalProductResponse, error) {
	product, err := catalog.NewRentalProduct(
		req.CompanyID,
		req.Name,
		req.SerialNumber,
		valueobject.NewMoneyINR(req.BasePrice),
		req.CommissionRate,
		req.GSTType,
		req.Meters,
	)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	return toRentalProductResponse(product), nil
}

// Get returns a rental product by ID
func (s *RentalProductService) Get(ctx context.Context, id uuid.UUID) (*RentalProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRentalProductResponse(product), nil
}

// List returns rental products matching the filter
func (s *RentalProductService) List(ctx context.Context, filter catalog.RentalProductFilter) (*shared.Paginated[RentalProductResponse], error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]RentalProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *toRentalProductResponse(&products[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// ListByCompany returns the machines installed at one company
func (s *RentalProductService) ListByCompany(ctx context.Context, companyID uuid.UUID, filter catalog.RentalProductFilter) ([]RentalProductResponse, error) {
	products, err := s.productRepo.FindByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]RentalProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *toRentalProductResponse(&products[i]))
	}
	return items, nil
}

// UpdateMeterConfig replaces a product's meter configuration. New baselines
// take effect from the next billing cycle.
func (s *RentalProductService) UpdateMeterConfig(ctx context.Context, id uuid.UUID, req UpdateMeterConfigRequest) (*RentalProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.UpdateMeterConfig(req.Meters); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	return toRentalProductResponse(product), nil
}

// UpdatePricing updates base price, commission and GST configuration
func (s *RentalProductService) UpdatePricing(ctx context.Context, id uuid.UUID, req UpdatePricingRequest) (*RentalProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.UpdatePricing(valueobject.NewMoneyINR(req.BasePrice), req.CommissionRate, req.GSTType); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	return toRentalProductResponse(product), nil
}

// Retire marks the product as returned or decommissioned
func (s *RentalProductService) Retire(ctx context.Context, id uuid.UUID) (*RentalProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Retire(); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	return toRentalProductResponse(product), nil
}
