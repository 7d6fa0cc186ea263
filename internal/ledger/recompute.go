package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// recompute restores the running-balance invariant for one account starting
// at the first entry dated on or after fromDate. The walk is seeded with the
// balance_after of the last entry strictly before fromDate, or with the
// account's converted opening balance when no such entry exists. It finishes
// by writing the account's current_balance. Callers must hold the account's
// lock and run inside a database transaction.
//
// The walk is idempotent: with no intervening mutation a second run rewrites
// nothing.
func recompute(tx *gorm.DB, accountID string, fromDate time.Time) error {
	var account models.Account
	if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	fromDate = dateOnly(fromDate)

	// Seed from the entry immediately preceding the recompute window.
	running := account.OpeningBalanceBase
	var prior models.Transaction
	err := tx.Where("account_id = ? AND date < ?", accountID, fromDate).
		Order("date DESC, seq DESC").
		First(&prior).Error
	switch {
	case err == nil:
		running = prior.BalanceAfter
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No earlier entry; start from the opening balance.
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Transaction
	if err := tx.Where("account_id = ? AND date >= ?", accountID, fromDate).
		Order("date ASC, seq ASC").
		Find(&entries).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range entries {
		running = running.Add(entries[i].AmountBase)
		if entries[i].BalanceAfter.Equal(running) {
			continue
		}
		if err := tx.Model(&entries[i]).Update("balance_after", running).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := tx.Model(&account).Update("current_balance", running).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Repair re-runs the recomputation walk over an account's entire history and
// clears the inconsistent flag. If the walk itself fails the account is
// flagged inconsistent so that readers see a retryable error instead of a
// stale current_balance.
func (s *Service) Repair(accountID string) error {
	release, err := s.locks.Acquire(accountID)
	if err != nil {
		return err
	}
	defer release()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := recompute(tx, accountID, time.Time{}); err != nil {
			return err
		}
		return tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("inconsistent", false).Error
	})
	if err != nil {
		s.flagInconsistent(accountID)
		return err
	}
	return nil
}

// flagInconsistent marks an account whose recomputation failed. A wrong
// current_balance must never be published silently.
func (s *Service) flagInconsistent(accountID string) {
	if err := s.db.Model(&models.Account{}).Where("id = ?", accountID).
		Update("inconsistent", true).Error; err != nil {
		logger.Get().Errorw("failed to flag account inconsistent",
			"account_id", accountID,
			"error", err.Error(),
		)
	}
}
