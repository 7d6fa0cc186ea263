package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/ledger"
)

// ReportHandler handles read-only aggregation requests.
type ReportHandler struct {
	ledgerService *ledger.Service
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(ledgerService *ledger.Service) *ReportHandler {
	return &ReportHandler{ledgerService: ledgerService}
}

// GetTotals aggregates base-currency income, expenses, and net over the
// entries matching the query filters.
func (h *ReportHandler) GetTotals(c *gin.Context) {
	filter := ledger.TotalsFilter{}
	if v := c.Query("account_id"); v != "" {
		filter.AccountID = &v
	}
	if v := c.Query("team_id"); v != "" {
		filter.TeamID = &v
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	start, err := parseOptionalDate(c, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.StartDate = start
	end, err := parseOptionalDate(c, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.EndDate = end

	totals, err := h.ledgerService.Totals(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

// GetOpeningBalance returns the opening balance as of a date, for one account
// or across all accounts.
func (h *ReportHandler) GetOpeningBalance(c *gin.Context) {
	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date, expected YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	var accountID *string
	if v := c.Query("account_id"); v != "" {
		accountID = &v
	}

	opening, err := h.ledgerService.OpeningBalanceAsOf(accountID, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opening_balance": opening,
		"currency":        h.ledgerService.BaseCurrency(),
	})
}
