// Package ledger implements the ledger and balance engine: transaction
// classification, running-balance bookkeeping, transfer pairing, and
// read-only aggregation. Mutations are serialized per account and every
// mutation runs inside a single database transaction followed by a
// recomputation of the affected accounts' running balances.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/pagination"
)

// Service is the ledger engine. All balance-affecting writes go through it.
type Service struct {
	db           *gorm.DB
	locks        *LockManager
	baseCurrency string
}

// NewService creates a ledger Service.
func NewService(db *gorm.DB, locks *LockManager, baseCurrency string) *Service {
	return &Service{db: db, locks: locks, baseCurrency: baseCurrency}
}

// BaseCurrency returns the base reporting currency code.
func (s *Service) BaseCurrency() string { return s.baseCurrency }

// CreateInput is a transaction intent submitted by a collaborator.
type CreateInput struct {
	AccountID    string
	CategoryID   string
	TeamID       *string
	Counterparty string
	Amount       decimal.Decimal
	Currency     string
	Date         time.Time
	Description  string
}

// UpdateInput carries the fields of a transaction that may change. Nil
// pointers leave the existing value untouched.
type UpdateInput struct {
	AccountID    *string
	CategoryID   *string
	TeamID       *string
	Counterparty *string
	Amount       *decimal.Decimal
	Currency     *string
	Date         *time.Time
	Description  *string
}

// ListFilter holds optional filters for listing ledger entries.
type ListFilter struct {
	AccountID  *string
	CategoryID *string
	TeamID     *string
	FromDate   *time.Time
	ToDate     *time.Time
}

// prepared is a fully validated transaction intent: referenced records
// fetched, counterparty resolved, effect classified. Nothing has been
// written yet.
type prepared struct {
	input          CreateInput
	account        *models.Account
	category       *models.Category
	counterAccount *models.Account
	effect         Effect
	date           time.Time
}

// lockIDs returns the accounts a prepared intent will mutate.
func (p *prepared) lockIDs() []string {
	ids := []string{p.account.ID}
	if p.effect.NeedsCounter {
		ids = append(ids, p.counterAccount.ID)
	}
	return ids
}

// Create validates a transaction intent, appends the entry (and, for
// internal transfers, its paired counter-entry), and recomputes the affected
// accounts' running balances. All validation happens before any write.
func (s *Service) Create(input CreateInput) (*models.Transaction, error) {
	p, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(p.lockIDs()...)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.createInTx(tx, p)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get retrieves a ledger entry by ID.
func (s *Service) Get(id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.Preload("Category").Preload("Team").
		Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &t, nil
}

// List retrieves a paginated, filtered list of ledger entries in reverse
// ledger order (most recent first).
func (s *Service) List(filter ListFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{})
	base = applyListFilter(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").Preload("Team").
		Order("date DESC, seq DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyListFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.TeamID != nil {
		q = q.Where("team_id = ?", *f.TeamID)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", dateOnly(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", dateOnly(*f.ToDate))
	}
	return q
}

// Update modifies a ledger entry. Changing the account, the date, or the
// category type to or from transfer is treated as delete-then-create, which
// keeps the running-balance restoration simple; everything else mutates in
// place with a recomputation from the entry's date. Entries that belong to a
// transfer pair must go through UpdateTransfer.
func (s *Service) Update(id string, input UpdateInput) (*models.Transaction, error) {
	existing, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if existing.IsTransferEntry() {
		return nil, apperrors.ErrTransferEntryImmutable
	}

	merged := mergeInput(existing, input)
	p, err := s.prepare(merged)
	if err != nil {
		return nil, err
	}

	oldType := models.CategoryTypeExpense
	if existing.Category != nil {
		oldType = existing.Category.Type
	}
	transferToggled := (oldType == models.CategoryTypeTransfer) != (p.category.Type == models.CategoryTypeTransfer)
	structural := transferToggled ||
		p.account.ID != existing.AccountID ||
		!p.date.Equal(dateOnly(existing.Date)) ||
		p.effect.NeedsCounter

	if structural {
		return s.recreate(existing, p)
	}

	release, err := s.locks.Acquire(existing.AccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rate := existing.ExchangeRate
		if p.input.Currency != existing.Currency {
			// Currency changed: apply the rate current at write time. The
			// originally-applied rate is preserved in every other case.
			rates, rErr := loadRates(tx)
			if rErr != nil {
				return rErr
			}
			rate, rErr = rates.Rate(p.input.Currency)
			if rErr != nil {
				return rErr
			}
		}

		amountBase := money.Round(p.effect.Signed.Mul(rate))
		updates := map[string]interface{}{
			"category_id":   p.category.ID,
			"team_id":       p.input.TeamID,
			"counterparty":  p.input.Counterparty,
			"amount":        p.input.Amount,
			"currency":      p.input.Currency,
			"exchange_rate": rate,
			"signed_amount": p.effect.Signed,
			"amount_base":   amountBase,
			"description":   p.input.Description,
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recompute(tx, existing.AccountID, existing.Date)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a ledger entry and recomputes the account from the deleted
// entry's date forward. Transfer-pair members are removed as a unit.
func (s *Service) Delete(id string) error {
	existing, err := s.Get(id)
	if err != nil {
		return err
	}
	if existing.IsTransferEntry() {
		return s.DeleteTransfer(*existing.TransferGroupID)
	}

	release, err := s.locks.Acquire(existing.AccountID)
	if err != nil {
		return err
	}
	defer release()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Transaction{}, "id = ?", existing.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return recompute(tx, existing.AccountID, existing.Date)
	})
}

// recreate implements delete-then-create for structural updates: the old
// entry disappears, its account is recomputed from the old date, and the
// merged intent is inserted as if new. Everything happens under the union of
// the affected accounts' locks in one database transaction.
func (s *Service) recreate(existing *models.Transaction, p *prepared) (*models.Transaction, error) {
	ids := append(p.lockIDs(), existing.AccountID)
	release, err := s.locks.Acquire(ids...)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Transaction{}, "id = ?", existing.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := recompute(tx, existing.AccountID, existing.Date); err != nil {
			return err
		}
		var txErr error
		created, txErr = s.createInTx(tx, p)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createInTx inserts a prepared intent inside an open database transaction:
// a single entry for simple transactions, a linked pair for internal
// transfers, followed by recomputation of every touched account.
func (s *Service) createInTx(tx *gorm.DB, p *prepared) (*models.Transaction, error) {
	rates, err := loadRates(tx)
	if err != nil {
		return nil, err
	}

	if p.effect.NeedsCounter {
		return s.createPairInTx(tx, p, rates)
	}

	entry, err := s.insertEntry(tx, p, rates, nil)
	if err != nil {
		return nil, err
	}
	if err := recompute(tx, p.account.ID, p.date); err != nil {
		return nil, err
	}
	return entry, nil
}

// insertEntry writes the primary ledger entry for a prepared intent.
func (s *Service) insertEntry(tx *gorm.DB, p *prepared, rates money.Table, groupID *string) (*models.Transaction, error) {
	rate, err := rates.Rate(p.input.Currency)
	if err != nil {
		return nil, err
	}

	seq, err := nextSeq(tx, p.account.ID)
	if err != nil {
		return nil, err
	}

	entry := &models.Transaction{
		AccountID:       p.account.ID,
		CategoryID:      p.category.ID,
		TeamID:          p.input.TeamID,
		Counterparty:    p.input.Counterparty,
		Amount:          p.input.Amount,
		Currency:        p.input.Currency,
		ExchangeRate:    rate,
		SignedAmount:    p.effect.Signed,
		AmountBase:      money.Round(p.effect.Signed.Mul(rate)),
		Date:            p.date,
		Seq:             seq,
		Description:     p.input.Description,
		TransferGroupID: groupID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

// prepare validates a transaction intent and classifies its effect. It
// performs no writes, so a failure here leaves the ledger untouched.
func (s *Service) prepare(input CreateInput) (*prepared, error) {
	account, err := fetchAccount(s.db, input.AccountID)
	if err != nil {
		return nil, err
	}

	category, err := fetchCategory(s.db, input.CategoryID)
	if err != nil {
		return nil, err
	}

	if input.TeamID != nil {
		if _, err := fetchTeam(s.db, *input.TeamID); err != nil {
			return nil, err
		}
	}

	if input.Currency == "" {
		input.Currency = account.Currency
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = dateOnly(date)

	var counterAccount *models.Account
	internal := false
	if category.Type == models.CategoryTypeTransfer &&
		input.Counterparty != "" && input.Counterparty != models.CounterpartyExternal {
		counterAccount, err = fetchAccountByName(s.db, input.Counterparty)
		if err != nil {
			return nil, err
		}
		internal = counterAccount != nil
	}

	if input.Amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	externalTransfer := category.Type == models.CategoryTypeTransfer && !internal
	if input.Amount.IsNegative() && !externalTransfer {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be non-negative")
	}

	effect, err := Classify(category.Type, input.Amount, input.Counterparty, internal)
	if err != nil {
		return nil, err
	}

	if effect.NeedsCounter && counterAccount.ID == account.ID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	return &prepared{
		input:          input,
		account:        account,
		category:       category,
		counterAccount: counterAccount,
		effect:         effect,
		date:           date,
	}, nil
}

// mergeInput overlays an UpdateInput on an existing entry to form the full
// intent the update describes.
func mergeInput(existing *models.Transaction, input UpdateInput) CreateInput {
	merged := CreateInput{
		AccountID:    existing.AccountID,
		CategoryID:   existing.CategoryID,
		TeamID:       existing.TeamID,
		Counterparty: existing.Counterparty,
		Amount:       existing.Amount,
		Currency:     existing.Currency,
		Date:         existing.Date,
		Description:  existing.Description,
	}
	if input.AccountID != nil {
		merged.AccountID = *input.AccountID
	}
	if input.CategoryID != nil {
		merged.CategoryID = *input.CategoryID
	}
	if input.TeamID != nil {
		merged.TeamID = input.TeamID
	}
	if input.Counterparty != nil {
		merged.Counterparty = *input.Counterparty
	}
	if input.Amount != nil {
		merged.Amount = *input.Amount
	}
	if input.Currency != nil {
		merged.Currency = *input.Currency
	}
	if input.Date != nil {
		merged.Date = *input.Date
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}
	return merged
}

// dateOnly truncates a timestamp to day granularity at midnight UTC.
// Ledger ordering and recomputation windows operate on whole days.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nextSeq assigns the per-account insertion sequence, the stable tie-break
// for same-day entries. Soft-deleted rows keep their seq, so it never
// regresses. Callers must hold the account's lock.
func nextSeq(tx *gorm.DB, accountID string) (int64, error) {
	var max int64
	err := tx.Unscoped().Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return max + 1, nil
}

// loadRates reads the exchange rate table as of now.
func loadRates(tx *gorm.DB) (money.Table, error) {
	var currencies []models.Currency
	if err := tx.Where("is_active = ?", true).Find(&currencies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	table := make(money.Table, len(currencies))
	for _, c := range currencies {
		table[c.Code] = c.Rate
	}
	return table, nil
}

func fetchAccount(db *gorm.DB, id string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// fetchAccountByName returns nil without error when no account has the name;
// the classifier decides whether that is an unresolved counterparty.
func fetchAccountByName(db *gorm.DB, name string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("name = ?", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

func fetchCategory(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func fetchTeam(db *gorm.DB, id string) (*models.Team, error) {
	var team models.Team
	if err := db.Where("id = ?", id).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &team, nil
}
