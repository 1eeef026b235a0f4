package model

import "time"

// Well-known system_config keys.
const (
	ConfigAppName       = "app_name"
	ConfigVersion       = "version"
	ConfigCurrency      = "currency"
	ConfigTaxRate       = "tax_rate" // percent, e.g. "16"
	ConfigMinStockAlert = "min_stock_alert"
)

// SystemConfig is a free-form key/value setting.
type SystemConfig struct {
	Key         string `gorm:"type:varchar(80);primaryKey"`
	Value       string `gorm:"type:text;not null"`
	Description *string
	UpdatedAt   time.Time
}

func (SystemConfig) TableName() string { return "system_config" }

// DefaultSettings are inserted on startup when their key is absent.
func DefaultSettings() []SystemConfig {
	d := func(s string) *string { return &s }
	return []SystemConfig{
		{Key: ConfigAppName, Value: "Street Bookseller POS", Description: d("Application name")},
		{Key: ConfigVersion, Value: "1.0.0", Description: d("Current system version")},
		{Key: ConfigCurrency, Value: "MXN", Description: d("System currency")},
		{Key: ConfigTaxRate, Value: "16", Description: d("Default tax rate (percent)")},
		{Key: ConfigMinStockAlert, Value: "5", Description: d("Default minimum stock for alerts")},
	}
}
