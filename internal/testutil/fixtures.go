package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
)

// BaseCurrency is the base reporting currency used throughout the tests.
const BaseCurrency = "PKR"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestCurrency registers a currency with the given rate against the base.
func CreateTestCurrency(t *testing.T, db *gorm.DB, code string, rate string) *models.Currency {
	t.Helper()

	currency := &models.Currency{
		Code:     code,
		Name:     code,
		Rate:     decimal.RequireFromString(rate),
		IsActive: true,
	}
	if err := db.Create(currency).Error; err != nil {
		t.Fatalf("failed to create test currency: %v", err)
	}
	return currency
}

// CreateBaseCurrency registers the base currency with rate 1.
func CreateBaseCurrency(t *testing.T, db *gorm.DB) *models.Currency {
	t.Helper()
	return CreateTestCurrency(t, db, BaseCurrency, "1")
}

// CreateTestAccount creates an asset account with a zero opening balance in
// the base currency.
func CreateTestAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()
	return CreateTestAccountWithOpening(t, db, BaseCurrency, "0")
}

// CreateTestAccountWithOpening creates an asset account with the given
// currency and opening balance. The opening balance is converted at the
// currency's current rate.
func CreateTestAccountWithOpening(t *testing.T, db *gorm.DB, currency string, opening string) *models.Account {
	t.Helper()

	var cur models.Currency
	if err := db.Where("code = ?", currency).First(&cur).Error; err != nil {
		t.Fatalf("currency fixture %s missing: %v", currency, err)
	}

	openingDec := decimal.RequireFromString(opening)
	openingBase := openingDec.Mul(cur.Rate).Round(2)

	account := &models.Account{
		Name:               fmt.Sprintf("Test Account %d", nextID()),
		Type:               models.AccountTypeAsset,
		Currency:           currency,
		OpeningBalance:     openingDec,
		OpeningBalanceBase: openingBase,
		CurrentBalance:     openingBase,
		IsActive:           true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTeam creates a team.
func CreateTestTeam(t *testing.T, db *gorm.DB) *models.Team {
	t.Helper()

	team := &models.Team{Name: fmt.Sprintf("Test Team %d", nextID())}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("failed to create test team: %v", err)
	}
	return team
}
