package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func newAccountService(db *gorm.DB) (AccountServicer, *ledger.Service) {
	currency := NewCurrencyService(db)
	engine := ledger.NewService(db, ledger.NewLockManager(2*time.Second), testutil.BaseCurrency)
	return NewAccountService(db, currency, engine), engine
}

func TestCreateAccount(t *testing.T) {
	t.Run("converts_opening_balance_to_base", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		testutil.CreateTestCurrency(t, db, "USD", "280")
		svc, _ := newAccountService(db)

		account, err := svc.CreateAccount("USD Savings", models.AccountTypeAsset, "USD", decimal.NewFromInt(100), "")
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, account.OpeningBalance, "100")
		testutil.AssertDecimal(t, account.OpeningBalanceBase, "28000")
		testutil.AssertDecimal(t, account.CurrentBalance, "28000")
	})

	t.Run("rejects_reserved_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)

		_, err := svc.CreateAccount(models.CounterpartyExternal, models.AccountTypeAsset, testutil.BaseCurrency, decimal.Zero, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)

		_, err := svc.CreateAccount("Main", models.AccountTypeAsset, testutil.BaseCurrency, decimal.Zero, "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateAccount("Main", models.AccountTypeAsset, testutil.BaseCurrency, decimal.Zero, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_negative_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)

		_, err := svc.CreateAccount("Main", models.AccountTypeAsset, testutil.BaseCurrency, decimal.NewFromInt(-5), "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_unknown_currency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)

		_, err := svc.CreateAccount("Main", models.AccountTypeAsset, "XXX", decimal.NewFromInt(10), "")
		testutil.AssertAppError(t, err, "UNKNOWN_CURRENCY")
	})
}

func TestGetAccountByID(t *testing.T) {
	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)

		_, err := svc.GetAccountByID("7f000000-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("inconsistent_account_is_unreadable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, engine := newAccountService(db)
		account := testutil.CreateTestAccount(t, db)

		testutil.AssertNoError(t, db.Model(account).Update("inconsistent", true).Error)
		_, err := svc.GetAccountByID(account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_INCONSISTENT")

		// A successful repair clears the flag and restores reads.
		testutil.AssertNoError(t, engine.Repair(account.ID))
		_, err = svc.GetAccountByID(account.ID)
		testutil.AssertNoError(t, err)
	})
}

func TestGetAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	testutil.CreateBaseCurrency(t, db)
	svc, _ := newAccountService(db)

	active := testutil.CreateTestAccount(t, db)
	hidden := testutil.CreateTestAccount(t, db)
	testutil.AssertNoError(t, db.Model(hidden).Update("is_active", false).Error)

	res, err := svc.GetAccounts(pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if len(res.Data) != 1 || res.Data[0].ID != active.ID {
		t.Errorf("expected only the active account, got %d entries", len(res.Data))
	}
}

func TestUpdateAccount(t *testing.T) {
	t.Run("renames_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)
		account := testutil.CreateTestAccount(t, db)

		name := "Household"
		updated, err := svc.UpdateAccount(account.ID, AccountUpdateFields{Name: &name})
		testutil.AssertNoError(t, err)
		if updated.Name != "Household" {
			t.Errorf("name = %s, want Household", updated.Name)
		}
	})

	t.Run("rejects_rename_to_reserved_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)
		account := testutil.CreateTestAccount(t, db)

		name := models.CounterpartyExternal
		_, err := svc.UpdateAccount(account.ID, AccountUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("rejects_rename_to_existing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)
		first := testutil.CreateTestAccount(t, db)
		second := testutil.CreateTestAccount(t, db)

		_, err := svc.UpdateAccount(second.ID, AccountUpdateFields{Name: &first.Name})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("keeping_own_name_is_not_a_duplicate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)
		account := testutil.CreateTestAccount(t, db)

		description := "primary"
		updated, err := svc.UpdateAccount(account.ID, AccountUpdateFields{Name: &account.Name, Description: &description})
		testutil.AssertNoError(t, err)
		if updated.Description != "primary" {
			t.Errorf("description = %s, want primary", updated.Description)
		}
	})
}

func TestSetOpeningBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	testutil.CreateBaseCurrency(t, db)
	svc, engine := newAccountService(db)
	account := testutil.CreateTestAccountWithOpening(t, db, testutil.BaseCurrency, "1000")
	income := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

	entry, err := engine.Create(ledger.CreateInput{
		AccountID:  account.ID,
		CategoryID: income.ID,
		Amount:     decimal.NewFromInt(500),
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, entry.BalanceAfter, "1500")

	updated, err := svc.SetOpeningBalance(account.ID, decimal.NewFromInt(2000))
	testutil.AssertNoError(t, err)

	// The whole history re-seeds from the new opening balance.
	testutil.AssertDecimal(t, updated.OpeningBalanceBase, "2000")
	testutil.AssertDecimal(t, updated.CurrentBalance, "2500")
}

func TestDeleteAccount(t *testing.T) {
	t.Run("deletes_unused_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, _ := newAccountService(db)
		account := testutil.CreateTestAccount(t, db)

		testutil.AssertNoError(t, svc.DeleteAccount(account.ID))
		_, err := svc.GetAccountByID(account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("rejects_account_with_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc, engine := newAccountService(db)
		account := testutil.CreateTestAccount(t, db)
		income := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		_, err := engine.Create(ledger.CreateInput{
			AccountID:  account.ID,
			CategoryID: income.ID,
			Amount:     decimal.NewFromInt(100),
			Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)

		testutil.AssertAppError(t, svc.DeleteAccount(account.ID), "ACCOUNT_IN_USE")
	})
}
