package services

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
)

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(name string, accountType models.AccountType, currency string, openingBalance decimal.Decimal, description string) (*models.Account, error)
	GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(accountID string) (*models.Account, error)
	UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error)
	SetOpeningBalance(accountID string, openingBalance decimal.Decimal) (*models.Account, error)
	DeleteAccount(accountID string) error
}

// AccountUpdateFields holds the optional fields for an account update.
type AccountUpdateFields struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(name string, categoryType models.CategoryType, description string) (*models.Category, error)
	GetCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoriesByType(categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	UpdateCategory(categoryID string, name, description string, categoryType *models.CategoryType) (*models.Category, error)
	DeleteCategory(categoryID string) error
}

// TeamServicer defines the contract for team-related business logic.
type TeamServicer interface {
	CreateTeam(name, description string) (*models.Team, error)
	GetTeams(page pagination.PageRequest) (*pagination.PageResponse[models.Team], error)
	GetTeamByID(teamID string) (*models.Team, error)
	UpdateTeam(teamID string, name, description string) (*models.Team, error)
	DeleteTeam(teamID string) error
}

// CurrencyServicer defines the contract for currency-related business logic.
type CurrencyServicer interface {
	EnsureBase(code string) error
	CreateCurrency(code, name string, rate decimal.Decimal) (*models.Currency, error)
	GetCurrencies() ([]models.Currency, error)
	GetCurrencyByCode(code string) (*models.Currency, error)
	UpdateRate(code string, rate decimal.Decimal) (*models.Currency, error)
	Table() (money.Table, error)
}
