package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRentalProductRepository implements RentalProductRepository using GORM
type GormRentalProductRepository struct {
	db *gorm.DB
}

// NewGormRentalProductRepository creates a new GormRentalProductRepository
func NewGormRentalProductRepository(db *gorm.DB) *GormRentalProductRepository {
	return &GormRentalProductRepository{db: db}
}

// FindByID finds a rental product by its ID
func (r *GormRentalProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.RentalProduct, error) {
	var model models.RentalProductModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple rental products by their IDs
func (r *GormRentalProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.RentalProduct, error) {
	if len(ids) == 0 {
		return []catalog.RentalProduct{}, nil
	}

	var productModels []models.RentalProductModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.RentalProduct, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// FindByCompany finds all rental products installed at a company
func (r *GormRentalProductRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter catalog.RentalProductFilter) ([]catalog.RentalProduct, error) {
	var productModels []models.RentalProductModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.RentalProductModel{}).
			Where("company_id = ?", companyID),
		filter,
	)

	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.RentalProduct, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// FindAll finds rental products matching the filter
func (r *GormRentalProductRepository) FindAll(ctx context.Context, filter catalog.RentalProductFilter) ([]catalog.RentalProduct, error) {
	var productModels []models.RentalProductModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RentalProductModel{}), filter)

	if err := query.Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.RentalProduct, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// Save creates or updates a rental product
func (r *GormRentalProductRepository) Save(ctx context.Context, product *catalog.RentalProduct) error {
	model := models.RentalProductModelFromDomain(product)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormRentalProductRepository) SaveWithLock(ctx context.Context, product *catalog.RentalProduct) error {
	model := models.RentalProductModelFromDomain(product)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// Count counts rental products matching the filter
func (r *GormRentalProductRepository) Count(ctx context.Context, filter catalog.RentalProductFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.RentalProductModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a rental product
func (r *GormRentalProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RentalProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormRentalProductRepository) applyFilter(query *gorm.DB, filter catalog.RentalProductFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RentalProductSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRentalProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter catalog.RentalProductFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR serial_number ILIKE ?", searchPattern, searchPattern)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}
