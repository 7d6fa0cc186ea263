package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// TotalsFilter holds the optional criteria for an aggregation query.
type TotalsFilter struct {
	AccountID  *string
	TeamID     *string
	CategoryID *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Totals is the result of an aggregation query, entirely in the base
// reporting currency. Net is income minus expenses; transfers net to zero
// across the ledger and are excluded from both totals.
type Totals struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	Net            decimal.Decimal `json:"net"`
	Currency       string          `json:"currency"`
}

// OpeningBalanceAsOf returns an account's converted opening balance plus the
// sum of its base-currency amounts strictly before date. With a nil account
// ID it aggregates over every account. Read-only; sums are carried in
// decimals, never in SQL floats.
func (s *Service) OpeningBalanceAsOf(accountID *string, date time.Time) (decimal.Decimal, error) {
	date = dateOnly(date)

	opening := decimal.Zero
	if accountID != nil {
		account, err := fetchAccount(s.db, *accountID)
		if err != nil {
			return decimal.Zero, err
		}
		opening = account.OpeningBalanceBase
	} else {
		var accounts []models.Account
		if err := s.db.Find(&accounts).Error; err != nil {
			return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, a := range accounts {
			opening = opening.Add(a.OpeningBalanceBase)
		}
	}

	q := s.db.Model(&models.Transaction{}).Where("date < ?", date)
	if accountID != nil {
		q = q.Where("account_id = ?", *accountID)
	}
	var amounts []decimal.Decimal
	if err := q.Pluck("amount_base", &amounts).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, a := range amounts {
		opening = opening.Add(a)
	}
	return opening, nil
}

// Totals aggregates base-currency amounts over the entries matching the
// filter, partitioned by the matched category's type. The opening balance is
// taken as of the filter's start date (or the plain converted opening
// balances when no start date is given).
func (s *Service) Totals(filter TotalsFilter) (*Totals, error) {
	var entries []models.Transaction
	q := s.db.Model(&models.Transaction{}).Preload("Category")
	if filter.AccountID != nil {
		q = q.Where("account_id = ?", *filter.AccountID)
	}
	if filter.TeamID != nil {
		q = q.Where("team_id = ?", *filter.TeamID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.StartDate != nil {
		q = q.Where("date >= ?", dateOnly(*filter.StartDate))
	}
	if filter.EndDate != nil {
		q = q.Where("date <= ?", dateOnly(*filter.EndDate))
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income := decimal.Zero
	expenses := decimal.Zero
	for i := range entries {
		if entries[i].Category == nil {
			continue
		}
		switch entries[i].Category.Type {
		case models.CategoryTypeIncome:
			income = income.Add(entries[i].AmountBase)
		case models.CategoryTypeExpense:
			// Expense entries carry negative base amounts; report the
			// total as a positive magnitude.
			expenses = expenses.Add(entries[i].AmountBase.Neg())
		}
	}

	opening := decimal.Zero
	var err error
	if filter.StartDate != nil {
		opening, err = s.OpeningBalanceAsOf(filter.AccountID, *filter.StartDate)
	} else if filter.AccountID != nil {
		var account *models.Account
		account, err = fetchAccount(s.db, *filter.AccountID)
		if err == nil {
			opening = account.OpeningBalanceBase
		}
	}
	if err != nil {
		return nil, err
	}

	return &Totals{
		OpeningBalance: opening,
		TotalIncome:    income,
		TotalExpenses:  expenses,
		Net:            income.Sub(expenses),
		Currency:       s.baseCurrency,
	}, nil
}
