package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/rentalworks/backend/internal/application/billing"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/catalog"
	"github.com/rentalworks/backend/internal/domain/shared/valueobject"
	"github.com/rentalworks/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository implements catalog.RentalProductRepository for testing
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.RentalProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.RentalProduct), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.RentalProduct, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.RentalProduct), args.Error(1)
}

func (m *MockProductRepository) FindByCompany(ctx context.Context, companyID uuid.UUID, filter catalog.RentalProductFilter) ([]catalog.RentalProduct, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.RentalProduct), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.RentalProductFilter) ([]catalog.RentalProduct, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.RentalProduct), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.RentalProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.RentalProduct) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter catalog.RentalProductFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// meteredProduct builds an active machine with one billable A4 BW channel:
// baseline 1000, 100 free copies, 0.50 per copy, 18% GST, 5% commission.
func meteredProduct(t *testing.T, companyID uuid.UUID) *catalog.RentalProduct {
	t.Helper()
	meters := billing.NewMeterConfig()
	meters.Sizes[billing.PaperSizeA4] = billing.SizeConfig{
		BW: billing.ChannelConfig{
			OldCount:    1000,
			FreeCopies:  100,
			RatePerCopy: decimal.RequireFromString("0.50"),
		},
	}
	product, err := catalog.NewRentalProduct(
		companyID,
		"Canon iR2625",
		"SN-1001",
		valueobject.NewMoneyINR(decimal.NewFromInt(1500)),
		decimal.NewFromInt(5),
		billing.TaxRateEntries{
			{Label: "CGST", Percent: decimal.NewFromInt(9)},
			{Label: "SGST", Percent: decimal.NewFromInt(9)},
		},
		meters,
	)
	require.NoError(t, err)
	return product
}

func a4Reading(bwNewCount int64) billing.MeterReading {
	reading := billing.NewMeterReading()
	reading.Sizes[billing.PaperSizeA4] = billing.SizeReading{BWNewCount: bwNewCount}
	return reading
}

func newInvoiceRouter(productRepo *MockProductRepository, invoiceRepo *MockInvoiceRepository) *gin.Engine {
	svc := billingapp.NewInvoiceService(productRepo, invoiceRepo, billing.FirstLineRatePolicy{})
	h := NewInvoiceHandler(svc)

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestInvoiceHandler_PreviewUsage(t *testing.T) {
	t.Run("computes charges without persisting anything", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		engine := newInvoiceRouter(productRepo, invoiceRepo)

		companyID := uuid.New()
		product := meteredProduct(t, companyID)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		// 1300 reported - 1000 baseline - 100 free = 200 billable at 0.50
		w := postJSON(t, engine, "/api/v1/billing/usage/preview", billingapp.PreviewUsageRequest{
			CompanyID: companyID,
			Lines:     []billingapp.UsageLineRequest{{ProductID: product.ID, Reading: a4Reading(1300)}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Success bool                            `json:"success"`
			Data    billingapp.UsagePreviewResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, resp.Data.Lines, 1)
		assert.True(t, resp.Data.Lines[0].UsageCharge.Equal(decimal.NewFromInt(100)), resp.Data.Lines[0].UsageCharge.String())
		assert.True(t, resp.Data.Subtotal.Equal(decimal.NewFromInt(1600)), resp.Data.Subtotal.String())
		assert.True(t, resp.Data.TaxRate.Equal(decimal.NewFromInt(18)), resp.Data.TaxRate.String())
		assert.True(t, resp.Data.GrandTotal.Equal(decimal.NewFromInt(1888)), resp.Data.GrandTotal.String())

		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		productRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects machine installed at another company", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		engine := newInvoiceRouter(productRepo, invoiceRepo)

		product := meteredProduct(t, uuid.New())
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		w := postJSON(t, engine, "/api/v1/billing/usage/preview", billingapp.PreviewUsageRequest{
			CompanyID: uuid.New(),
			Lines:     []billingapp.UsageLineRequest{{ProductID: product.ID, Reading: a4Reading(1300)}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeBusinessRule, resp.Error.Code)
	})

	t.Run("rejects duplicate machine in one billing run", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		engine := newInvoiceRouter(productRepo, invoiceRepo)

		companyID := uuid.New()
		product := meteredProduct(t, companyID)
		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

		w := postJSON(t, engine, "/api/v1/billing/usage/preview", billingapp.PreviewUsageRequest{
			CompanyID: companyID,
			Lines: []billingapp.UsageLineRequest{
				{ProductID: product.ID, Reading: a4Reading(1300)},
				{ProductID: product.ID, Reading: a4Reading(1400)},
			},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	})
}

func TestInvoiceHandler_CreateInvoice(t *testing.T) {
	t.Run("issues quotation without advancing baselines", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		engine := newInvoiceRouter(productRepo, invoiceRepo)

		companyID := uuid.New()
		product := meteredProduct(t, companyID)
		prefix := fmt.Sprintf("QUO-%s", time.Now().Format("200601"))

		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		invoiceRepo.On("NextSequence", mock.Anything, prefix).Return(int64(7), nil)
		invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		w := postJSON(t, engine, "/api/v1/billing/invoices", billingapp.CreateInvoiceRequest{
			CompanyID:   companyID,
			CompanyName: "Acme Industries",
			IssueAs:     billingapp.IssueModeQuotation,
			Lines:       []billingapp.UsageLineRequest{{ProductID: product.ID, Reading: a4Reading(1300)}},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data billingapp.InvoiceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, fmt.Sprintf("%s-000007", prefix), resp.Data.InvoiceNumber)
		assert.Equal(t, "QUOTATION", resp.Data.Status)

		// Quotations leave counters where they were
		productRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("issuing invoice advances baselines", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		engine := newInvoiceRouter(productRepo, invoiceRepo)

		companyID := uuid.New()
		product := meteredProduct(t, companyID)
		prefix := fmt.Sprintf("INV-%s", time.Now().Format("200601"))

		productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
		productRepo.On("SaveWithLock", mock.Anything, product).Return(nil)
		invoiceRepo.On("NextSequence", mock.Anything, prefix).Return(int64(1), nil)
		invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		w := postJSON(t, engine, "/api/v1/billing/invoices", billingapp.CreateInvoiceRequest{
			CompanyID:   companyID,
			CompanyName: "Acme Industries",
			IssueAs:     billingapp.IssueModeInvoice,
			Lines:       []billingapp.UsageLineRequest{{ProductID: product.ID, Reading: a4Reading(1300)}},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data billingapp.InvoiceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "UNPAID", resp.Data.Status)

		productRepo.AssertCalled(t, "SaveWithLock", mock.Anything, product)
		assert.Equal(t, int64(1300), product.Meters.Sizes[billing.PaperSizeA4].BW.OldCount)
	})

	t.Run("rejects unknown issue mode", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		engine := newInvoiceRouter(productRepo, invoiceRepo)

		w := postJSON(t, engine, "/api/v1/billing/invoices", map[string]any{
			"company_id":   uuid.New(),
			"company_name": "Acme Industries",
			"issue_as":     "RECEIPT",
			"lines": []map[string]any{
				{"product_id": uuid.New(), "reading": map[string]any{"sizes": map[string]any{}}},
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})
}
