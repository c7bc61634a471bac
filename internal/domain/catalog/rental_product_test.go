package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rentalworks/backend/internal/domain/billing"
	"github.com/rentalworks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeterConfig() billing.MeterConfig {
	cfg := billing.NewMeterConfig()
	cfg.SetSize(billing.PaperSizeA4, billing.SizeConfig{
		BW:    billing.ChannelConfig{OldCount: 1000, FreeCopies: 50, RatePerCopy: decimal.NewFromInt(2)},
		Color: billing.ChannelConfig{OldCount: 200, RatePerCopy: decimal.NewFromInt(10)},
	})
	return cfg
}

func testGST() billing.TaxRateEntries {
	return billing.TaxRateEntries{
		{Label: "CGST", Percent: decimal.NewFromInt(9)},
		{Label: "SGST", Percent: decimal.NewFromInt(9)},
	}
}

func newTestProduct(t *testing.T) *RentalProduct {
	t.Helper()
	p, err := NewRentalProduct(
		uuid.New(),
		"Canon iR2425",
		"SN-1001",
		valueobject.NewMoneyINR(decimal.NewFromInt(2500)),
		decimal.NewFromInt(5),
		testGST(),
		testMeterConfig(),
	)
	require.NoError(t, err)
	return p
}

func TestNewRentalProduct(t *testing.T) {
	t.Run("creates active product with event", func(t *testing.T) {
		p := newTestProduct(t)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.True(t, p.IsActive())
		require.Len(t, p.GetDomainEvents(), 1)
		assert.Equal(t, "RentalProductCreated", p.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty company", func(t *testing.T) {
		_, err := NewRentalProduct(uuid.Nil, "x", "", valueobject.ZeroINR(), decimal.Zero, nil, billing.NewMeterConfig())
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRentalProduct(uuid.New(), "", "", valueobject.ZeroINR(), decimal.Zero, nil, billing.NewMeterConfig())
		assert.Error(t, err)
	})

	t.Run("rejects negative base price", func(t *testing.T) {
		_, err := NewRentalProduct(uuid.New(), "x", "", valueobject.NewMoneyINR(decimal.NewFromInt(-1)), decimal.Zero, nil, billing.NewMeterConfig())
		assert.Error(t, err)
	})

	t.Run("rejects negative GST entry", func(t *testing.T) {
		gst := billing.TaxRateEntries{{Label: "CGST", Percent: decimal.NewFromInt(-9)}}
		_, err := NewRentalProduct(uuid.New(), "x", "", valueobject.ZeroINR(), decimal.Zero, gst, billing.NewMeterConfig())
		assert.Error(t, err)
	})
}

func TestRentalProductGST(t *testing.T) {
	t.Run("TotalGSTRate sums entries", func(t *testing.T) {
		p := newTestProduct(t)
		assert.Equal(t, "18", p.TotalGSTRate().String())
	})
}

func TestComputeUsage(t *testing.T) {
	t.Run("delegates to the usage calculator with product config", func(t *testing.T) {
		p := newTestProduct(t)
		reading := billing.NewMeterReading()
		reading.SetSize(billing.PaperSizeA4, billing.SizeReading{BWNewCount: 1200, ColorNewCount: 200})

		usage := p.ComputeUsage(reading)
		// base 2500 + bw (200-50)*2 = 300, color unused
		assert.Equal(t, "2800.00", usage.ProductTotal.StringFixed(2))
	})
}

func TestAdvanceMeterBaselines(t *testing.T) {
	t.Run("moves baselines to the billed counts", func(t *testing.T) {
		p := newTestProduct(t)
		reading := billing.NewMeterReading()
		reading.SetSize(billing.PaperSizeA4, billing.SizeReading{BWNewCount: 1200, ColorNewCount: 260})

		require.NoError(t, p.AdvanceMeterBaselines(reading))

		cfg, ok := p.Meters.Size(billing.PaperSizeA4)
		require.True(t, ok)
		assert.Equal(t, int64(1200), cfg.BW.OldCount)
		assert.Equal(t, int64(260), cfg.Color.OldCount)
		assert.NotNil(t, p.LastBilledAt)
		assert.Equal(t, 2, p.Version)
	})

	t.Run("preserves rates and allowances", func(t *testing.T) {
		p := newTestProduct(t)
		reading := billing.NewMeterReading()
		reading.SetSize(billing.PaperSizeA4, billing.SizeReading{BWNewCount: 1200})

		require.NoError(t, p.AdvanceMeterBaselines(reading))

		cfg, _ := p.Meters.Size(billing.PaperSizeA4)
		assert.Equal(t, int64(50), cfg.BW.FreeCopies)
		assert.True(t, cfg.BW.RatePerCopy.Equal(decimal.NewFromInt(2)))
	})

	t.Run("ignores readings for inactive sizes", func(t *testing.T) {
		p := newTestProduct(t)
		reading := billing.NewMeterReading()
		reading.SetSize(billing.PaperSizeA3, billing.SizeReading{BWNewCount: 777})

		require.NoError(t, p.AdvanceMeterBaselines(reading))
		_, active := p.Meters.Size(billing.PaperSizeA3)
		assert.False(t, active)
	})

	t.Run("rejected on retired product", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.Retire())
		err := p.AdvanceMeterBaselines(billing.NewMeterReading())
		assert.Error(t, err)
	})
}

func TestRetire(t *testing.T) {
	t.Run("retires an active product once", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.Retire())
		assert.False(t, p.IsActive())
		assert.Error(t, p.Retire())
	})

	t.Run("retired product cannot be reconfigured", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.Retire())
		assert.Error(t, p.UpdateMeterConfig(billing.NewMeterConfig()))
		assert.Error(t, p.UpdatePricing(valueobject.ZeroINR(), decimal.Zero, nil))
	})
}
