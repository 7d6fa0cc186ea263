package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/money"
	"fintrack/internal/uuid"
)

// TransferUpdateInput carries the fields of a transfer that may change. Nil
// pointers leave the existing value untouched.
type TransferUpdateInput struct {
	SourceAccountID       *string
	CounterpartyAccountID *string
	CategoryID            *string
	TeamID                *string
	Amount                *decimal.Decimal
	Date                  *time.Time
	Description           *string
}

// CreateTransfer moves amount from the source account to the counterparty
// account as two linked ledger entries sharing a transfer group ID. Both
// entries are written in one database transaction under both accounts'
// locks: either both are durably created or neither is.
func (s *Service) CreateTransfer(sourceAccountID, counterpartyAccountID string, amount decimal.Decimal, date time.Time, categoryID string, teamID *string, description string) (*models.Transaction, error) {
	if sourceAccountID == counterpartyAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	counterparty, err := fetchAccount(s.db, counterpartyAccountID)
	if err != nil {
		if err == apperrors.ErrAccountNotFound {
			return nil, apperrors.ErrUnresolvedCounterparty
		}
		return nil, err
	}

	category, err := fetchCategory(s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Type != models.CategoryTypeTransfer {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidCategoryType,
			"transfers require a category of type transfer")
	}

	p, err := s.prepare(CreateInput{
		AccountID:    sourceAccountID,
		CategoryID:   categoryID,
		TeamID:       teamID,
		Counterparty: counterparty.Name,
		Amount:       amount,
		Date:         date,
		Description:  description,
	})
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

// createPairInTx writes both halves of an internal transfer and recomputes
// both accounts. The counter-entry's base-currency effect is exactly the
// negation of the source entry's, so the pair always nets to zero in the
// base currency; its entered amount is that base amount re-expressed in the
// destination account's currency.
func (s *Service) createPairInTx(tx *gorm.DB, p *prepared, rates money.Table) (*models.Transaction, error) {
	group := uuid.New()

	source, err := s.insertEntry(tx, p, rates, &group)
	if err != nil {
		return nil, err
	}

	destRate, err := rates.Rate(p.counterAccount.Currency)
	if err != nil {
		return nil, err
	}

	baseAmount := source.AmountBase.Abs()
	destAmount := money.Round(baseAmount.Div(destRate))

	seq, err := nextSeq(tx, p.counterAccount.ID)
	if err != nil {
		return nil, err
	}

	description := "Transfer from " + p.account.Name
	if p.input.Description != "" {
		description += ": " + p.input.Description
	}

	counter := &models.Transaction{
		AccountID:       p.counterAccount.ID,
		CategoryID:      p.category.ID,
		TeamID:          p.input.TeamID,
		Counterparty:    p.account.Name,
		Amount:          destAmount,
		Currency:        p.counterAccount.Currency,
		ExchangeRate:    destRate,
		SignedAmount:    destAmount,
		AmountBase:      baseAmount,
		Date:            p.date,
		Seq:             seq,
		Description:     description,
		TransferGroupID: &group,
	}
	if err := tx.Create(counter).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := recompute(tx, p.account.ID, p.date); err != nil {
		return nil, err
	}
	if err := recompute(tx, p.counterAccount.ID, p.date); err != nil {
		return nil, err
	}
	return source, nil
}

// GetTransfer retrieves both entries of a transfer group, source first.
func (s *Service) GetTransfer(groupID string) ([]models.Transaction, error) {
	var entries []models.Transaction
	if err := s.db.Preload("Category").Preload("Team").
		Where("transfer_group_id = ?", groupID).
		Order("signed_amount ASC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(entries) == 0 {
		return nil, apperrors.ErrTransferNotFound
	}
	return entries, nil
}

// UpdateTransfer rebuilds a transfer from its merged fields: both old
// entries are removed, both old accounts recomputed, and the transfer is
// recreated, all under the union of the affected accounts' locks in one
// database transaction.
func (s *Service) UpdateTransfer(groupID string, input TransferUpdateInput) (*models.Transaction, error) {
	entries, err := s.GetTransfer(groupID)
	if err != nil {
		return nil, err
	}
	source, counter := splitPair(entries)
	if source == nil || counter == nil {
		return nil, apperrors.ErrTransferNotFound
	}

	merged := CreateInput{
		AccountID:   source.AccountID,
		CategoryID:  source.CategoryID,
		TeamID:      source.TeamID,
		Amount:      source.Amount,
		Date:        source.Date,
		Description: source.Description,
	}
	counterAccountID := counter.AccountID
	if input.SourceAccountID != nil {
		merged.AccountID = *input.SourceAccountID
	}
	if input.CounterpartyAccountID != nil {
		counterAccountID = *input.CounterpartyAccountID
	}
	if input.CategoryID != nil {
		merged.CategoryID = *input.CategoryID
	}
	if input.TeamID != nil {
		merged.TeamID = input.TeamID
	}
	if input.Amount != nil {
		merged.Amount = *input.Amount
	}
	if input.Date != nil {
		merged.Date = *input.Date
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}

	if merged.AccountID == counterAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	counterAccount, err := fetchAccount(s.db, counterAccountID)
	if err != nil {
		if err == apperrors.ErrAccountNotFound {
			return nil, apperrors.ErrUnresolvedCounterparty
		}
		return nil, err
	}
	merged.Counterparty = counterAccount.Name
	merged.Currency = "" // re-derive from the (possibly new) source account

	p, err := s.prepare(merged)
	if err != nil {
		return nil, err
	}

	ids := append(p.lockIDs(), source.AccountID, counter.AccountID)
	release, err := s.locks.Acquire(ids...)
	if err != nil {
		return nil, err
	}
	defer release()

	var created *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deletePairInTx(tx, source, counter); err != nil {
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

// DeleteTransfer removes both entries of a transfer group as a unit and
// recomputes both accounts from the transfer's date forward.
func (s *Service) DeleteTransfer(groupID string) error {
	entries, err := s.GetTransfer(groupID)
	if err != nil {
		return err
	}
	source, counter := splitPair(entries)
	if source == nil || counter == nil {
		return apperrors.ErrTransferNotFound
	}

	release, err := s.locks.Acquire(source.AccountID, counter.AccountID)
	if err != nil {
		return err
	}
	defer release()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return deletePairInTx(tx, source, counter)
	})
}

// deletePairInTx removes both halves of a transfer and recomputes both
// accounts from the deleted entries' dates.
func deletePairInTx(tx *gorm.DB, source, counter *models.Transaction) error {
	if err := tx.Delete(&models.Transaction{}, "transfer_group_id = ?", *source.TransferGroupID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := recompute(tx, source.AccountID, source.Date); err != nil {
		return err
	}
	return recompute(tx, counter.AccountID, counter.Date)
}

// splitPair identifies the debit (source) and credit (counter) halves of a
// transfer group. The source leg's signed amount is strictly negative; the
// base amounts cannot discriminate because both round to zero at small
// enough rates.
func splitPair(entries []models.Transaction) (source, counter *models.Transaction) {
	for i := range entries {
		if entries[i].SignedAmount.IsNegative() {
			source = &entries[i]
		} else {
			counter = &entries[i]
		}
	}
	return source, counter
}
