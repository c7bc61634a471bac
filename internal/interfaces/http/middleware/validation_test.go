package middleware

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentForm struct {
	Amount decimal.Decimal `json:"amount" binding:"positive_amount"`
	Mode   string          `json:"mode" binding:"max=5"`
}

func validate(t *testing.T, obj any) error {
	t.Helper()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return v.Struct(obj)
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	t.Run("accepts positive amount", func(t *testing.T) {
		err := validate(t, paymentForm{Amount: decimal.NewFromInt(100)})
		assert.NoError(t, err)
	})

	t.Run("rejects zero amount", func(t *testing.T) {
		err := validate(t, paymentForm{Amount: decimal.Zero})
		assert.Error(t, err)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		err := validate(t, paymentForm{Amount: decimal.NewFromInt(-5)})
		assert.Error(t, err)
	})

	t.Run("error details use json field names", func(t *testing.T) {
		err := validate(t, paymentForm{Amount: decimal.NewFromInt(-5), Mode: "toolong"})
		require.Error(t, err)

		resp := FormatValidationErrors(err, "req-1")
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "amount")
		assert.Contains(t, fields, "mode")
		assert.Equal(t, "req-1", resp.Error.RequestID)
	})
}
