package billing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// PaperSize identifies a metered paper size on a machine
type PaperSize string

const (
	PaperSizeA3 PaperSize = "A3"
	PaperSizeA4 PaperSize = "A4"
	PaperSizeA5 PaperSize = "A5"
)

// IsValid checks if the paper size is a valid PaperSize
func (s PaperSize) IsValid() bool {
	switch s {
	case PaperSizeA3, PaperSizeA4, PaperSizeA5:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (s PaperSize) String() string {
	return string(s)
}

// AllPaperSizes returns all paper sizes in canonical order
func AllPaperSizes() []PaperSize {
	return []PaperSize{PaperSizeA3, PaperSizeA4, PaperSizeA5}
}

// Channel identifies a metered copy channel on a machine
type Channel string

const (
	ChannelBW            Channel = "BW"
	ChannelColor         Channel = "COLOR"
	ChannelColorScanning Channel = "COLOR_SCANNING"
)

// IsValid checks if the channel is a valid Channel
func (c Channel) IsValid() bool {
	switch c {
	case ChannelBW, ChannelColor, ChannelColorScanning:
		return true
	}
	return false
}

// String returns the string representation of Channel
func (c Channel) String() string {
	return string(c)
}

// AllChannels returns all channels in canonical order
func AllChannels() []Channel {
	return []Channel{ChannelBW, ChannelColor, ChannelColorScanning}
}

// ChannelConfig holds the billing configuration of one channel at one paper size.
// OldCount is the counter baseline snapshotted when the previous cycle was billed.
// FreeCopies and RatePerCopy are meaningless while Unlimited is true; the
// calculator never reads them in that case.
type ChannelConfig struct {
	OldCount    int64           `json:"old_count"`
	FreeCopies  int64           `json:"free_copies"`
	RatePerCopy decimal.Decimal `json:"rate_per_copy"`
	Unlimited   bool            `json:"unlimited"`
}

// SizeConfig holds the per-channel configuration for one paper size
type SizeConfig struct {
	BW            ChannelConfig `json:"bw"`
	Color         ChannelConfig `json:"color"`
	ColorScanning ChannelConfig `json:"color_scanning"`
}

// Channel returns the configuration of the given channel
func (c SizeConfig) Channel(ch Channel) ChannelConfig {
	switch ch {
	case ChannelColor:
		return c.Color
	case ChannelColorScanning:
		return c.ColorScanning
	default:
		return c.BW
	}
}

// MeterConfig is the canonical meter configuration of a machine.
// A paper size is active only when present in Sizes; absent sizes contribute
// nothing to a billing cycle. Readings reported in flat or nested shapes are
// normalized into this form at the interface boundary.
type MeterConfig struct {
	Sizes map[PaperSize]SizeConfig `json:"sizes"`
}

// NewMeterConfig creates an empty meter configuration
func NewMeterConfig() MeterConfig {
	return MeterConfig{Sizes: make(map[PaperSize]SizeConfig)}
}

// Size returns the configuration for a paper size and whether it is active
func (c MeterConfig) Size(size PaperSize) (SizeConfig, bool) {
	cfg, ok := c.Sizes[size]
	return cfg, ok
}

// SetSize activates or replaces the configuration for a paper size
func (c *MeterConfig) SetSize(size PaperSize, cfg SizeConfig) {
	if c.Sizes == nil {
		c.Sizes = make(map[PaperSize]SizeConfig)
	}
	c.Sizes[size] = cfg
}

// ActiveSizes returns the active paper sizes in canonical order
func (c MeterConfig) ActiveSizes() []PaperSize {
	sizes := make([]PaperSize, 0, len(c.Sizes))
	for _, size := range AllPaperSizes() {
		if _, ok := c.Sizes[size]; ok {
			sizes = append(sizes, size)
		}
	}
	return sizes
}

// Value implements driver.Valuer for GORM to store as JSONB
func (c MeterConfig) Value() (driver.Value, error) {
	if c.Sizes == nil {
		return `{"sizes":{}}`, nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (c *MeterConfig) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// SizeReading carries the newly reported counters for one paper size
type SizeReading struct {
	BWNewCount            int64 `json:"bw_new_count"`
	ColorNewCount         int64 `json:"color_new_count"`
	ColorScanningNewCount int64 `json:"color_scanning_new_count"`
}

// NewCount returns the reported counter for the given channel
func (r SizeReading) NewCount(ch Channel) int64 {
	switch ch {
	case ChannelColor:
		return r.ColorNewCount
	case ChannelColorScanning:
		return r.ColorScanningNewCount
	default:
		return r.BWNewCount
	}
}

// MeterReading is the canonical counter submission for one billing event.
// It is always evaluated against exactly one MeterConfig snapshot: the machine's
// configuration as it stood immediately before this billing event.
type MeterReading struct {
	Sizes map[PaperSize]SizeReading `json:"sizes"`
}

// NewMeterReading creates an empty meter reading
func NewMeterReading() MeterReading {
	return MeterReading{Sizes: make(map[PaperSize]SizeReading)}
}

// Size returns the reading for a paper size and whether one was reported
func (r MeterReading) Size(size PaperSize) (SizeReading, bool) {
	reading, ok := r.Sizes[size]
	return reading, ok
}

// SetSize records the reading for a paper size
func (r *MeterReading) SetSize(size PaperSize, reading SizeReading) {
	if r.Sizes == nil {
		r.Sizes = make(map[PaperSize]SizeReading)
	}
	r.Sizes[size] = reading
}

// Value implements driver.Valuer for GORM to store as JSONB
func (r MeterReading) Value() (driver.Value, error) {
	if r.Sizes == nil {
		return `{"sizes":{}}`, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (r *MeterReading) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// TaxRateEntry is one entry of a product's GST type. The total tax rate of a
// product is the sum of all its entries' percentages (e.g. CGST 9 + SGST 9).
type TaxRateEntry struct {
	Label   string          `json:"label"`
	Percent decimal.Decimal `json:"percent"`
}

// TaxRateEntries is an ordered list of tax-rate entries stored as JSONB
type TaxRateEntries []TaxRateEntry

// TotalPercent returns the sum of all entries' percentages
func (e TaxRateEntries) TotalPercent() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range e {
		total = total.Add(entry.Percent)
	}
	return total
}

// Value implements driver.Valuer for GORM to store as JSONB
func (e TaxRateEntries) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (e *TaxRateEntries) Scan(value interface{}) error {
	if value == nil {
		*e = TaxRateEntries{}
		return nil
	}
	return scanJSON(value, e)
}

// scanJSON unmarshals a JSONB column value into dest
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSONB column: unsupported type")
	}

	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}
