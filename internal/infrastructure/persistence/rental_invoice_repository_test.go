package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockRentalInvoiceRepository creates a GormRentalInvoiceRepository with a mocked SQL connection
func newMockRentalInvoiceRepository(t *testing.T) (*GormRentalInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormRentalInvoiceRepository(gormDB), mock, mockDB
}

func invoiceRows(invoiceID, companyID uuid.UUID, number string, status finance.InvoiceStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "version", "company_id", "invoice_number", "company_name", "status", "grand_total", "applied_amount"}).
		AddRow(invoiceID, 1, companyID, number, "Acme Industries", status, decimal.NewFromInt(2124), decimal.Zero)
}

func newTestInvoice(t *testing.T) *finance.RentalInvoice {
	t.Helper()
	lineItems := finance.InvoiceLineItems{{
		ID:           uuid.New(),
		ProductID:    uuid.New(),
		ProductName:  "Canon iR2625",
		ProductTotal: decimal.NewFromInt(1800),
	}}
	totals := billing.InvoiceTotals{
		Subtotal:   decimal.NewFromInt(1800),
		TaxRate:    decimal.NewFromInt(18),
		TaxAmount:  decimal.NewFromInt(324),
		GrandTotal: decimal.NewFromInt(2124),
	}
	inv, err := finance.NewRentalInvoice(uuid.New(), "INV-202608-000001", "Acme Industries", lineItems, totals, nil)
	require.NoError(t, err)
	require.NoError(t, inv.FinalizeAsInvoice())
	return inv
}

func TestGormRentalInvoiceRepository_FindByID(t *testing.T) {
	t.Run("finds existing invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "rental_invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnRows(invoiceRows(invoiceID, companyID, "INV-202608-000001", finance.InvoiceStatusUnpaid))

		invoice, err := repo.FindByID(context.Background(), invoiceID)

		assert.NoError(t, err)
		assert.NotNil(t, invoice)
		assert.Equal(t, invoiceID, invoice.ID)
		assert.Equal(t, "INV-202608-000001", invoice.InvoiceNumber)
		assert.True(t, invoice.GrandTotal.Equal(decimal.NewFromInt(2124)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for non-existent invoice", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "rental_invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(invoiceID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		invoice, err := repo.FindByID(context.Background(), invoiceID)

		assert.Error(t, err)
		assert.Nil(t, invoice)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_FindByNumber(t *testing.T) {
	t.Run("finds invoice by its number", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		invoiceID := uuid.New()
		companyID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "rental_invoices" WHERE invoice_number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("QUO-202608-000007", 1).
			WillReturnRows(invoiceRows(invoiceID, companyID, "QUO-202608-000007", finance.InvoiceStatusQuotation))

		invoice, err := repo.FindByNumber(context.Background(), "QUO-202608-000007")

		assert.NoError(t, err)
		assert.NotNil(t, invoice)
		assert.Equal(t, finance.InvoiceStatusQuotation, invoice.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_FindByCompany(t *testing.T) {
	t.Run("filters by company and status", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		invoiceID := uuid.New()
		status := finance.InvoiceStatusPaid

		mock.ExpectQuery(`SELECT \* FROM "rental_invoices" WHERE company_id = \$1 AND status = \$2 ORDER BY created_at DESC`).
			WithArgs(companyID, status).
			WillReturnRows(invoiceRows(invoiceID, companyID, "INV-202608-000002", status))

		filter := finance.RentalInvoiceFilter{Status: &status}
		invoices, err := repo.FindByCompany(context.Background(), companyID, filter)

		assert.NoError(t, err)
		assert.Len(t, invoices, 1)
		assert.Equal(t, companyID, invoices[0].CompanyID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_FindOutstandingByCompany(t *testing.T) {
	t.Run("returns unpaid invoices in finalization order", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		companyID := uuid.New()
		invoiceID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "rental_invoices" WHERE company_id = \$1 AND status = \$2 ORDER BY finalized_at ASC`).
			WithArgs(companyID, finance.InvoiceStatusUnpaid).
			WillReturnRows(invoiceRows(invoiceID, companyID, "INV-202608-000003", finance.InvoiceStatusUnpaid))

		invoices, err := repo.FindOutstandingByCompany(context.Background(), companyID)

		assert.NoError(t, err)
		assert.Len(t, invoices, 1)
		assert.True(t, invoices[0].IsOutstanding())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_SaveWithLock(t *testing.T) {
	t.Run("succeeds when version matches", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		invoice := newTestInvoice(t)

		mock.ExpectExec(`UPDATE "rental_invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveWithLock(context.Background(), invoice)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns lock error on concurrent modification", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		invoice := newTestInvoice(t)

		mock.ExpectExec(`UPDATE "rental_invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveWithLock(context.Background(), invoice)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_SaveAll(t *testing.T) {
	t.Run("no-op for empty slice", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		err := repo.SaveAll(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("persists all invoices in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		first := newTestInvoice(t)
		second := newTestInvoice(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "rental_invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "rental_invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SaveAll(context.Background(), []*finance.RentalInvoice{first, second})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when one invoice conflicts", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		first := newTestInvoice(t)
		second := newTestInvoice(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "rental_invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "rental_invoices" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveAll(context.Background(), []*finance.RentalInvoice{first, second})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_NextSequence(t *testing.T) {
	t.Run("returns incremented sequence for prefix", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO invoice_sequences .* ON CONFLICT \(prefix\) DO UPDATE SET .* RETURNING value`).
			WithArgs("INV-202608").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))

		seq, err := repo.NextSequence(context.Background(), "INV-202608")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("separate prefixes keep separate counters", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`INSERT INTO invoice_sequences`).
			WithArgs("QUO-202608").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(1))

		seq, err := repo.NextSequence(context.Background(), "QUO-202608")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormRentalInvoiceRepository_Count(t *testing.T) {
	t.Run("counts with status filter", func(t *testing.T) {
		repo, mock, mockDB := newMockRentalInvoiceRepository(t)
		defer mockDB.Close()

		status := finance.InvoiceStatusUnpaid

		mock.ExpectQuery(`SELECT count\(\*\) FROM "rental_invoices" WHERE status = \$1`).
			WithArgs(status).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		filter := finance.RentalInvoiceFilter{Status: &status}
		count, err := repo.Count(context.Background(), filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
