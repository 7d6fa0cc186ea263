package models

import "github.com/shopspring/decimal"

// Currency represents a currency and its exchange rate against the base
// reporting currency. The base currency row always carries rate 1.
type Currency struct {
	Base
	Code     string          `gorm:"uniqueIndex;not null" json:"code"`
	Name     string          `json:"name"`
	Rate     decimal.Decimal `gorm:"type:decimal(14,6);not null" json:"rate"`
	IsActive bool            `gorm:"default:true" json:"is_active"`
}
