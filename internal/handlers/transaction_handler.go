package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/ledger"
	"fintrack/internal/pagination"
)

// TransactionHandler handles ledger entry and transfer requests.
type TransactionHandler struct {
	ledgerService *ledger.Service
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerService *ledger.Service) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// CreateTransactionRequest represents the request payload for recording a
// transaction. Amounts travel as strings to avoid float rounding on the wire.
type CreateTransactionRequest struct {
	AccountID    string  `json:"account_id" binding:"required,uuid"`
	CategoryID   string  `json:"category_id" binding:"required,uuid"`
	TeamID       *string `json:"team_id" binding:"omitempty,uuid"`
	Counterparty string  `json:"counterparty" binding:"max=100"`
	Amount       string  `json:"amount" binding:"required"`
	Currency     string  `json:"currency" binding:"omitempty,iso4217"`
	Date         string  `json:"date" binding:"required"`
	Description  string  `json:"description" binding:"max=500"`
}

// UpdateTransactionRequest represents the request payload for editing a
// transaction. Omitted fields keep their existing values.
type UpdateTransactionRequest struct {
	AccountID    *string `json:"account_id" binding:"omitempty,uuid"`
	CategoryID   *string `json:"category_id" binding:"omitempty,uuid"`
	TeamID       *string `json:"team_id" binding:"omitempty,uuid"`
	Counterparty *string `json:"counterparty" binding:"omitempty,max=100"`
	Amount       *string `json:"amount"`
	Currency     *string `json:"currency" binding:"omitempty,iso4217"`
	Date         *string `json:"date"`
	Description  *string `json:"description" binding:"omitempty,max=500"`
}

// CreateTransferRequest represents the request payload for an internal
// transfer between two accounts.
type CreateTransferRequest struct {
	SourceAccountID       string  `json:"source_account_id" binding:"required,uuid"`
	CounterpartyAccountID string  `json:"counterparty_account_id" binding:"required,uuid"`
	CategoryID            string  `json:"category_id" binding:"required,uuid"`
	TeamID                *string `json:"team_id" binding:"omitempty,uuid"`
	Amount                string  `json:"amount" binding:"required"`
	Date                  string  `json:"date" binding:"required"`
	Description           string  `json:"description" binding:"max=500"`
}

// UpdateTransferRequest represents the request payload for editing a transfer.
type UpdateTransferRequest struct {
	SourceAccountID       *string `json:"source_account_id" binding:"omitempty,uuid"`
	CounterpartyAccountID *string `json:"counterparty_account_id" binding:"omitempty,uuid"`
	CategoryID            *string `json:"category_id" binding:"omitempty,uuid"`
	TeamID                *string `json:"team_id" binding:"omitempty,uuid"`
	Amount                *string `json:"amount"`
	Date                  *string `json:"date"`
	Description           *string `json:"description" binding:"omitempty,max=500"`
}

// CreateTransaction records a new ledger entry.
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledgerService.Create(ledger.CreateInput{
		AccountID:    req.AccountID,
		CategoryID:   req.CategoryID,
		TeamID:       req.TeamID,
		Counterparty: req.Counterparty,
		Amount:       amount,
		Currency:     req.Currency,
		Date:         date,
		Description:  req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": entry})
}

// GetTransactions returns a paginated, filtered list of ledger entries.
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := ledger.ListFilter{}
	if v := c.Query("account_id"); v != "" {
		filter.AccountID = &v
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("team_id"); v != "" {
		filter.TeamID = &v
	}
	from, err := parseOptionalDate(c, "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.FromDate = from
	to, err := parseOptionalDate(c, "to")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.ToDate = to

	entries, err := h.ledgerService.List(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetTransaction returns a single ledger entry by ID.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	entry, err := h.ledgerService.Get(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// UpdateTransaction edits a ledger entry and rebuilds the affected running
// balances. Transfer entries must go through the transfer endpoints.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := ledger.UpdateInput{
		AccountID:    req.AccountID,
		CategoryID:   req.CategoryID,
		TeamID:       req.TeamID,
		Counterparty: req.Counterparty,
		Currency:     req.Currency,
		Description:  req.Description,
	}
	amount, date, err := parseOptionalAmountDate(req.Amount, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	input.Amount = amount
	input.Date = date

	entry, err := h.ledgerService.Update(c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// DeleteTransaction deletes a ledger entry. Deleting either half of a
// transfer removes the whole pair.
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	if err := h.ledgerService.Delete(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// CreateTransfer records an internal transfer between two accounts.
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledgerService.CreateTransfer(
		req.SourceAccountID,
		req.CounterpartyAccountID,
		amount,
		date,
		req.CategoryID,
		req.TeamID,
		req.Description,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transfer": entry})
}

// GetTransfer returns both entries of a transfer group.
func (h *TransactionHandler) GetTransfer(c *gin.Context) {
	entries, err := h.ledgerService.GetTransfer(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": entries})
}

// UpdateTransfer edits a transfer; both entries are rebuilt as a unit.
func (h *TransactionHandler) UpdateTransfer(c *gin.Context) {
	var req UpdateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := ledger.TransferUpdateInput{
		SourceAccountID:       req.SourceAccountID,
		CounterpartyAccountID: req.CounterpartyAccountID,
		CategoryID:            req.CategoryID,
		TeamID:                req.TeamID,
		Description:           req.Description,
	}
	amount, date, err := parseOptionalAmountDate(req.Amount, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	input.Amount = amount
	input.Date = date

	entry, err := h.ledgerService.UpdateTransfer(c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transfer": entry})
}

// DeleteTransfer removes both entries of a transfer group.
func (h *TransactionHandler) DeleteTransfer(c *gin.Context) {
	if err := h.ledgerService.DeleteTransfer(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transfer deleted successfully"})
}

func parseOptionalAmountDate(amount, date *string) (*decimal.Decimal, *time.Time, error) {
	var a *decimal.Decimal
	if amount != nil {
		parsed, err := parseAmount(*amount)
		if err != nil {
			return nil, nil, err
		}
		a = &parsed
	}
	var d *time.Time
	if date != nil {
		parsed, err := parseDate(*date)
		if err != nil {
			return nil, nil, err
		}
		d = &parsed
	}
	return a, d, nil
}
