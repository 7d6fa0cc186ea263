package models

import "github.com/shopspring/decimal"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
	AccountTypeBusiness  AccountType = "business"
)

// Account represents a financial account in the system.
//
// OpeningBalance is declared in the account's own currency;
// OpeningBalanceBase is its conversion at the rate in effect when the account
// was opened and never changes afterwards. CurrentBalance is always in the
// base reporting currency and is derived: it is written exclusively by the
// balance recomputation walk, never hand-mutated.
type Account struct {
	Base
	Name               string          `gorm:"uniqueIndex;not null" json:"name"`
	Type               AccountType     `gorm:"not null" json:"type"`
	Currency           string          `gorm:"not null" json:"currency"`
	OpeningBalance     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"opening_balance"`
	OpeningBalanceBase decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"opening_balance_base"`
	CurrentBalance     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"current_balance"`
	Inconsistent       bool            `gorm:"default:false" json:"inconsistent"`
	Description        string          `json:"description"`
	IsActive           bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}
