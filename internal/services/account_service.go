package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/ledger"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db       *gorm.DB
	currency CurrencyServicer
	ledger   *ledger.Service
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, currency CurrencyServicer, ledgerService *ledger.Service) AccountServicer {
	return &accountService{db: db, currency: currency, ledger: ledgerService}
}

// CreateAccount creates a new account. The opening balance is declared in
// the account's own currency and converted to the base currency at the rate
// in effect now; that converted value is frozen for the account's lifetime.
func (s *accountService) CreateAccount(name string, accountType models.AccountType, currency string, openingBalance decimal.Decimal, description string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if name == models.CounterpartyExternal {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name External is reserved")
	}
	if openingBalance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "opening balance must be non-negative")
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account with this name already exists")
	}

	table, err := s.currency.Table()
	if err != nil {
		return nil, err
	}
	openingBase, err := money.Convert(openingBalance, currency, table)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:               name,
		Type:               accountType,
		Currency:           currency,
		OpeningBalance:     openingBalance,
		OpeningBalanceBase: openingBase,
		CurrentBalance:     openingBase,
		Description:        description,
		IsActive:           true,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetAccounts retrieves a paginated list of active accounts.
func (s *accountService) GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("is_active = ?", true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID. An account flagged inconsistent
// returns a retryable error instead of publishing a possibly wrong balance.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if account.Inconsistent {
		return nil, apperrors.ErrAccountInconsistent
	}
	return &account, nil
}

// UpdateAccount updates an account's descriptive fields.
func (s *accountService) UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" && *fields.Name != account.Name {
		if *fields.Name == models.CounterpartyExternal {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name External is reserved")
		}
		var count int64
		if err := s.db.Model(&models.Account{}).Where("name = ?", *fields.Name).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account with this name already exists")
		}
		updates["name"] = *fields.Name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return account, nil
}

// SetOpeningBalance changes an account's declared opening balance. The base
// conversion is redone at the current rate and the whole running-balance
// history is recomputed from it.
func (s *accountService) SetOpeningBalance(accountID string, openingBalance decimal.Decimal) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if openingBalance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "opening balance must be non-negative")
	}

	table, err := s.currency.Table()
	if err != nil {
		return nil, err
	}
	openingBase, err := money.Convert(openingBalance, account.Currency, table)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(account).Updates(map[string]interface{}{
		"opening_balance":      openingBalance,
		"opening_balance_base": openingBase,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.ledger.Repair(account.ID); err != nil {
		return nil, err
	}
	return s.GetAccountByID(accountID)
}

// DeleteAccount soft-deletes an account. Accounts referenced by transactions
// cannot be deleted.
func (s *accountService) DeleteAccount(accountID string) error {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrAccountInUse
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
