package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentalworks/backend/internal/domain/shared"
	"github.com/rentalworks/backend/internal/interfaces/http/dto"
	"github.com/rentalworks/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context string",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(RequestIDKey, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			tt.setup(c)

			id := getRequestID(c)
			assert.Equal(t, tt.expectedID, id)
		})
	}
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Data)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMeta(c, []int{1, 2, 3}, 23, 1, 10)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(23), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found error maps to 404",
			err:            shared.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrCodeNotFound,
		},
		{
			name:           "lock not acquired maps to 409",
			err:            shared.ErrLockNotAcquired,
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeLockNotAcquired,
		},
		{
			name:           "optimistic lock maps to 409",
			err:            shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified"),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeConcurrencyConflict,
		},
		{
			name:           "invalid state maps to 422",
			err:            shared.NewDomainError("INVALID_STATE", "Cannot apply payment"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeInvalidState,
		},
		{
			name:           "unexplained shortfall maps to 422",
			err:            shared.NewDomainError("AMOUNT_TYPE_REQUIRED", "Shortfall must be explained as PENDING or TDS"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeAmountMismatch,
		},
		{
			name:           "plain error maps to 500",
			err:            assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleErrorIncludesRequestID(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Set(RequestIDKey, "req-abc")

	h.HandleError(c, shared.ErrNotFound)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "req-abc", resp.Error.RequestID)
}
