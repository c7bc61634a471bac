package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/rentalworks/backend/internal/application/finance"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/finance"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInvoiceRepository implements finance.RentalInvoiceRepository for testing
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.RentalInvoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.RentalInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*finance.RentalInvoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.RentalInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter finance.RentalInvoiceFilter) ([]finance.RentalInvoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.RentalInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter finance.RentalInvoiceFilter) ([]finance.RentalInvoice, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.RentalInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOutstandingByCompany(ctx context.Context, companyID uuid.UUID) ([]finance.RentalInvoice, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]finance.RentalInvoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *finance.RentalInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *finance.RentalInvoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveAll(ctx context.Context, invoices []*finance.RentalInvoice) error {
	args := m.Called(ctx, invoices)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter finance.RentalInvoiceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) NextSequence(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

// noopLocker always grants the company lock
type noopLocker struct{}

func (noopLocker) AcquireCompanyLock(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}

// heldLocker always reports the lock as taken
type heldLocker struct{}

func (heldLocker) AcquireCompanyLock(context.Context, uuid.UUID) (func(), error) {
	return nil, shared.ErrLockNotAcquired
}

func unpaidInvoice(t *testing.T, grandTotal int64) *finance.RentalInvoice {
	t.Helper()
	lineItems := finance.InvoiceLineItems{{
		ID:           uuid.New(),
		ProductID:    uuid.New(),
		ProductName:  "Canon iR2625",
		ProductTotal: decimal.NewFromInt(grandTotal),
	}}
	totals := billing.InvoiceTotals{
		Subtotal:   decimal.NewFromInt(grandTotal),
		GrandTotal: decimal.NewFromInt(grandTotal),
	}
	inv, err := finance.NewRentalInvoice(uuid.New(), "INV-202608-000001", "Acme Industries", lineItems, totals, nil)
	require.NoError(t, err)
	require.NoError(t, inv.FinalizeAsInvoice())
	return inv
}

func newPaymentRouter(repo finance.RentalInvoiceRepository, locker financeapp.CompanyLocker) *gin.Engine {
	service := financeapp.NewPaymentService(repo, finance.NewReconciliationService(), locker)
	handler := NewPaymentHandler(service)

	engine := gin.New()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api)
	return engine
}

func TestPaymentHandler_ApplyPayment(t *testing.T) {
	t.Run("settles invoice with exact payment", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		invoice := unpaidInvoice(t, 1000)

		repo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		repo.On("FindOutstandingByCompany", mock.Anything, invoice.CompanyID).Return([]finance.RentalInvoice{}, nil)
		repo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

		engine := newPaymentRouter(repo, noopLocker{})

		body, _ := json.Marshal(map[string]any{"amount": "1000"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/invoices/"+invoice.ID.String()+"/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		data, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		var result financeapp.ReconciliationResponse
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "SETTLED", result.Status)
		assert.Equal(t, "PAID", result.Invoice.Status)
		repo.AssertCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed invoice ID", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		engine := newPaymentRouter(repo, noopLocker{})

		body, _ := json.Marshal(map[string]any{"amount": "1000"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/invoices/not-a-uuid/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "FindByID")
	})

	t.Run("returns 404 for unknown invoice", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		invoiceID := uuid.New()
		repo.On("FindByID", mock.Anything, invoiceID).Return(nil, shared.ErrNotFound)

		engine := newPaymentRouter(repo, noopLocker{})

		body, _ := json.Marshal(map[string]any{"amount": "500"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/invoices/"+invoiceID.String()+"/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 409 while another reconciliation holds the lock", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		invoice := unpaidInvoice(t, 1000)
		repo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)

		engine := newPaymentRouter(repo, heldLocker{})

		body, _ := json.Marshal(map[string]any{"amount": "1000"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/invoices/"+invoice.ID.String()+"/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeLockNotAcquired, resp.Error.Code)
		repo.AssertNotCalled(t, "SaveAll")
	})

	t.Run("returns 422 for unexplained shortfall", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		invoice := unpaidInvoice(t, 1000)
		repo.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
		repo.On("FindOutstandingByCompany", mock.Anything, invoice.CompanyID).Return([]finance.RentalInvoice{}, nil)

		engine := newPaymentRouter(repo, noopLocker{})

		body, _ := json.Marshal(map[string]any{"amount": "600"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/finance/invoices/"+invoice.ID.String()+"/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		repo.AssertNotCalled(t, "SaveAll")
	})
}

func TestPaymentHandler_ListOutstanding(t *testing.T) {
	t.Run("lists outstanding invoices for a company", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		companyID := uuid.New()
		invoice := unpaidInvoice(t, 2124)
		repo.On("FindOutstandingByCompany", mock.Anything, companyID).Return([]finance.RentalInvoice{*invoice}, nil)

		engine := newPaymentRouter(repo, noopLocker{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/companies/"+companyID.String()+"/outstanding", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("rejects malformed company ID", func(t *testing.T) {
		repo := new(MockInvoiceRepository)
		engine := newPaymentRouter(repo, noopLocker{})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/finance/companies/bogus/outstanding", nil)
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
