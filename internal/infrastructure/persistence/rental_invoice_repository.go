package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRentalInvoiceRepository implements RentalInvoiceRepository using GORM
type GormRentalInvoiceRepository struct {
	db *gorm.DB
}

// NewGormRentalInvoiceRepository creates a new GormRentalInvoiceRepository
func NewGormRentalInvoiceRepository(db *gorm.DB) *GormRentalInvoiceRepository {
	return &GormRentalInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormRentalInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.RentalInvoice, error) {
	var model models.RentalInvoiceModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an invoice by its invoice number
func (r *GormRentalInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*finance.RentalInvoice, error) {
	var model models.RentalInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("invoice_number = ?", invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds invoices matching the filter
func (r *GormRentalInvoiceRepository) FindAll(ctx context.Context, filter finance.RentalInvoiceFilter) ([]finance.RentalInvoice, error) {
	var invoiceModels []models.RentalInvoiceModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RentalInvoiceModel{}), filter)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]finance.RentalInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindByCompany finds invoices for a company
func (r *GormRentalInvoiceRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter finance.RentalInvoiceFilter) ([]finance.RentalInvoice, error) {
	var invoiceModels []models.RentalInvoiceModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.RentalInvoiceModel{}).
			Where("company_id = ?", companyID),
		filter,
	)

	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]finance.RentalInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// FindOutstandingByCompany finds invoices of a company that still accept payments
func (r *GormRentalInvoiceRepository) FindOutstandingByCompany(ctx context.Context, companyID uuid.UUID) ([]finance.RentalInvoice, error) {
	var invoiceModels []models.RentalInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, finance.InvoiceStatusUnpaid).
		Order("finalized_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]finance.RentalInvoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormRentalInvoiceRepository) Save(ctx context.Context, invoice *finance.RentalInvoice) error {
	model := models.RentalInvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormRentalInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.RentalInvoice) error {
	model := models.RentalInvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// SaveAll persists multiple invoices atomically with optimistic locking.
// An overflow cascade mutates the paid invoice and its overflow target
// together; either both versions advance or neither does.
func (r *GormRentalInvoiceRepository) SaveAll(ctx context.Context, invoices []*finance.RentalInvoice) error {
	if len(invoices) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, invoice := range invoices {
			model := models.RentalInvoiceModelFromDomain(invoice)
			result := tx.
				Model(model).
				Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
				Updates(model)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
			}
		}
		return nil
	})
}

// Count counts invoices matching the filter
func (r *GormRentalInvoiceRepository) Count(ctx context.Context, filter finance.RentalInvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.RentalInvoiceModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// NextSequence returns the next invoice sequence number for a prefix. The
// upsert increments atomically so concurrent issuers never share a number.
func (r *GormRentalInvoiceRepository) NextSequence(ctx context.Context, prefix string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO invoice_sequences (prefix, value) VALUES (?, 1)
		 ON CONFLICT (prefix) DO UPDATE SET value = invoice_sequences.value + 1
		 RETURNING value`,
		prefix,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// applyFilter applies filter options including pagination and ordering
func (r *GormRentalInvoiceRepository) applyFilter(query *gorm.DB, filter finance.RentalInvoiceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, RentalInvoiceSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormRentalInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter finance.RentalInvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR company_name ILIKE ?", searchPattern, searchPattern)
	}
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}
