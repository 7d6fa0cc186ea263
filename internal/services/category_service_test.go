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

func TestCreateCategory(t *testing.T) {
	t.Run("creates_valid_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		category, err := svc.CreateCategory("Salaries", models.CategoryTypeExpense, "payroll")
		testutil.AssertNoError(t, err)
		if category.Type != models.CategoryTypeExpense {
			t.Errorf("type = %s, want expense", category.Type)
		}
	})

	t.Run("rejects_invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("Broken", models.CategoryType("refund"), "")
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_TYPE")
	})

	t.Run("rejects_duplicate_name_and_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)

		_, err := svc.CreateCategory("Fees", models.CategoryTypeExpense, "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory("Fees", models.CategoryTypeExpense, "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		// Same name under the other type is a different category.
		_, err = svc.CreateCategory("Fees", models.CategoryTypeIncome, "")
		testutil.AssertNoError(t, err)
	})
}

func TestGetCategoriesByType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)

	testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)
	testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)
	testutil.CreateTestCategory(t, db, models.CategoryTypeExpense)

	res, err := svc.GetCategoriesByType(models.CategoryTypeExpense, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if len(res.Data) != 2 {
		t.Errorf("expected 2 expense categories, got %d", len(res.Data))
	}
}

func TestUpdateCategory(t *testing.T) {
	t.Run("renames_in_use_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc := NewCategoryService(db)
		category := seedCategoryWithEntry(t, db)

		updated, err := svc.UpdateCategory(category.ID, "Renamed", "", nil)
		testutil.AssertNoError(t, err)
		if updated.Name != "Renamed" {
			t.Errorf("name = %s, want Renamed", updated.Name)
		}
	})

	t.Run("rejects_type_change_when_referenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc := NewCategoryService(db)
		category := seedCategoryWithEntry(t, db)

		newType := models.CategoryTypeExpense
		_, err := svc.UpdateCategory(category.ID, "", "", &newType)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})

	t.Run("allows_type_change_when_unreferenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		newType := models.CategoryTypeExpense
		updated, err := svc.UpdateCategory(category.ID, "", "", &newType)
		testutil.AssertNoError(t, err)
		if updated.Type != models.CategoryTypeExpense {
			t.Errorf("type = %s, want expense", updated.Type)
		}
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("deletes_unused_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		category := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)

		testutil.AssertNoError(t, svc.DeleteCategory(category.ID))
		_, err := svc.GetCategoryByID(category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("rejects_referenced_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		testutil.CreateBaseCurrency(t, db)
		svc := NewCategoryService(db)
		category := seedCategoryWithEntry(t, db)

		testutil.AssertAppError(t, svc.DeleteCategory(category.ID), "CATEGORY_IN_USE")
	})
}

// seedCategoryWithEntry creates an income category referenced by one entry.
func seedCategoryWithEntry(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	account := testutil.CreateTestAccount(t, db)
	category := testutil.CreateTestCategory(t, db, models.CategoryTypeIncome)
	engine := ledger.NewService(db, ledger.NewLockManager(2*time.Second), testutil.BaseCurrency)
	_, err := engine.Create(ledger.CreateInput{
		AccountID:  account.ID,
		CategoryID: category.ID,
		Amount:     decimal.NewFromInt(100),
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	testutil.AssertNoError(t, err)
	return category
}
