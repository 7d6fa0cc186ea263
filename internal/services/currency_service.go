package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
)

// currencyService handles the exchange rate table.
type currencyService struct {
	db *gorm.DB
}

// NewCurrencyService creates a new CurrencyServicer.
func NewCurrencyService(db *gorm.DB) CurrencyServicer {
	return &currencyService{db: db}
}

// EnsureBase creates the base currency row with rate 1 if it does not exist.
// Called once at startup.
func (s *currencyService) EnsureBase(code string) error {
	var count int64
	if err := s.db.Model(&models.Currency{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	base := &models.Currency{
		Code:     code,
		Name:     code,
		Rate:     decimal.NewFromInt(1),
		IsActive: true,
	}
	if err := s.db.Create(base).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateCurrency registers a currency with its rate against the base currency.
func (s *currencyService) CreateCurrency(code, name string, rate decimal.Decimal) (*models.Currency, error) {
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency code is required")
	}
	if !rate.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "exchange rate must be positive")
	}

	var count int64
	if err := s.db.Model(&models.Currency{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency already exists")
	}

	currency := &models.Currency{Code: code, Name: name, Rate: rate, IsActive: true}
	if err := s.db.Create(currency).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return currency, nil
}

// GetCurrencies lists all active currencies.
func (s *currencyService) GetCurrencies() ([]models.Currency, error) {
	var currencies []models.Currency
	if err := s.db.Where("is_active = ?", true).Order("code ASC").Find(&currencies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return currencies, nil
}

// GetCurrencyByCode retrieves a currency by its code.
func (s *currencyService) GetCurrencyByCode(code string) (*models.Currency, error) {
	var currency models.Currency
	if err := s.db.Where("code = ?", code).First(&currency).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCurrencyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &currency, nil
}

// UpdateRate changes the current rate for a currency. Rates already applied
// to stored transactions are deliberately left untouched: the running-balance
// invariant depends on each entry keeping the rate it was written with.
func (s *currencyService) UpdateRate(code string, rate decimal.Decimal) (*models.Currency, error) {
	if !rate.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "exchange rate must be positive")
	}

	currency, err := s.GetCurrencyByCode(code)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(currency).Update("rate", rate).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return currency, nil
}

// Table returns the current exchange rate table.
func (s *currencyService) Table() (money.Table, error) {
	currencies, err := s.GetCurrencies()
	if err != nil {
		return nil, err
	}
	table := make(money.Table, len(currencies))
	for _, c := range currencies {
		table[c.Code] = c.Rate
	}
	return table, nil
}
