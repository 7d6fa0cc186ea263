package ledger

import (
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// Effect is the classified ledger effect of a transaction on its own account,
// expressed in the transaction's currency, plus whether a counter-entry on
// the counterparty account is required.
type Effect struct {
	Signed       decimal.Decimal
	NeedsCounter bool
}

// Classify determines the signed effect of a transaction from its category
// type and, for transfers, its counterparty. internalCounterparty reports
// whether the counterparty string resolved to a known account.
//
// Income credits the account, expense debits it. A transfer to a known
// account debits the source and requires a matching credit on the
// counterparty. A transfer with no counterparty, or with the External
// sentinel, applies the amount exactly as entered, sign included; this is the
// one case where the caller may pass a negative amount.
func Classify(categoryType models.CategoryType, amount decimal.Decimal, counterparty string, internalCounterparty bool) (Effect, error) {
	switch categoryType {
	case models.CategoryTypeIncome:
		return Effect{Signed: amount.Abs()}, nil
	case models.CategoryTypeExpense:
		return Effect{Signed: amount.Abs().Neg()}, nil
	case models.CategoryTypeTransfer:
		if counterparty == "" || counterparty == models.CounterpartyExternal {
			return Effect{Signed: amount}, nil
		}
		if !internalCounterparty {
			return Effect{}, apperrors.WithMessage(apperrors.ErrUnresolvedCounterparty,
				"counterparty "+counterparty+" matches no account and is not "+models.CounterpartyExternal)
		}
		return Effect{Signed: amount.Abs().Neg(), NeedsCounter: true}, nil
	default:
		return Effect{}, apperrors.WithMessage(apperrors.ErrInvalidCategoryType,
			"unrecognized category type "+string(categoryType))
	}
}
