package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestEnsureBase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCurrencyService(db)

	testutil.AssertNoError(t, svc.EnsureBase(testutil.BaseCurrency))

	base, err := svc.GetCurrencyByCode(testutil.BaseCurrency)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, base.Rate, "1")

	// Idempotent.
	testutil.AssertNoError(t, svc.EnsureBase(testutil.BaseCurrency))
	currencies, err := svc.GetCurrencies()
	testutil.AssertNoError(t, err)
	if len(currencies) != 1 {
		t.Errorf("expected 1 currency, got %d", len(currencies))
	}
}

func TestCreateCurrency(t *testing.T) {
	t.Run("rejects_non_positive_rate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCurrencyService(db)

		_, err := svc.CreateCurrency("USD", "US Dollar", decimal.Zero)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_duplicate_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCurrencyService(db)

		_, err := svc.CreateCurrency("USD", "US Dollar", decimal.NewFromInt(280))
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCurrency("USD", "US Dollar", decimal.NewFromInt(281))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateRate(t *testing.T) {
	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCurrencyService(db)

		_, err := svc.UpdateRate("USD", decimal.NewFromInt(300))
		testutil.AssertAppError(t, err, "CURRENCY_NOT_FOUND")
	})

	t.Run("leaves_stored_transactions_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		testutil.CreateTestCurrency(t, db, "USD", "280")
		svc := NewCurrencyService(db)
		engine := ledger.NewService(db, ledger.NewLockManager(2*time.Second), testutil.BaseCurrency)
		account := testutil.CreateTestAccount(t, db)
		income := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		entry, err := engine.Create(ledger.CreateInput{
			AccountID:  account.ID,
			CategoryID: income.ID,
			Amount:     decimal.NewFromInt(10),
			Currency:   "USD",
			Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateRate("USD", decimal.NewFromInt(300))
		testutil.AssertNoError(t, err)

		stored, err := engine.Get(entry.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, stored.ExchangeRate, "280")
		testutil.AssertDecimal(t, stored.AmountBase, "2800")

		// New writes pick up the new rate.
		later, err := engine.Create(ledger.CreateInput{
			AccountID:  account.ID,
			CategoryID: income.ID,
			Amount:     decimal.NewFromInt(10),
			Currency:   "USD",
			Date:       time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, later.AmountBase, "3000")
	})
}
