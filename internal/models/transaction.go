package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CounterpartyExternal is the sentinel counterparty for transfers that leave
// the tracked account set. No counter-entry is produced for it.
const CounterpartyExternal = "External"

// Transaction represents one ledger entry: a single transaction's recorded
// effect on one account's balance.
//
// Amount is the amount as entered, in the transaction's own currency.
// SignedAmount is the classified effect on the owning account, still in the
// transaction's currency. AmountBase is SignedAmount converted to the base
// reporting currency at ExchangeRate, which is the rate captured at write
// time and preserved across edits. BalanceAfter is the account's running
// balance in base currency immediately after this entry; it is owned by the
// recomputation walk and must never be written elsewhere.
//
// Entries within an account are ordered by (Date asc, Seq asc). Seq is
// assigned under the account lock and is the stable same-day tie-break.
type Transaction struct {
	Base
	AccountID    string          `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID   string          `gorm:"type:uuid;not null;index" json:"category_id"`
	TeamID       *string         `gorm:"type:uuid;index" json:"team_id,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency     string          `gorm:"not null" json:"currency"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(14,6);not null" json:"exchange_rate"`
	SignedAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"signed_amount"`
	AmountBase   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_base"`
	BalanceAfter decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
	Seq          int64           `gorm:"not null" json:"seq"`
	Description  string          `json:"description"`

	// Set on both halves of a transfer pair; nil for simple entries.
	TransferGroupID *string `gorm:"type:uuid;index" json:"transfer_group_id,omitempty"`

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Team     *Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// IsTransferEntry reports whether the transaction is one half of a transfer pair.
func (t *Transaction) IsTransferEntry() bool {
	return t.TransferGroupID != nil
}
