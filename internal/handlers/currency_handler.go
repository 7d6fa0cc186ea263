package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// CurrencyHandler handles exchange rate table requests.
type CurrencyHandler struct {
	currencyService services.CurrencyServicer
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(currencyService services.CurrencyServicer) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

// CreateCurrencyRequest represents the request payload for registering a currency.
type CreateCurrencyRequest struct {
	Code string `json:"code" binding:"required,iso4217"`
	Name string `json:"name" binding:"required,min=1,max=100"`
	Rate string `json:"rate" binding:"required"`
}

// UpdateRateRequest represents the request payload for changing a rate.
type UpdateRateRequest struct {
	Rate string `json:"rate" binding:"required"`
}

// CreateCurrency registers a currency with its rate against the base currency.
func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	var req CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rate, err := parseAmount(req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	currency, err := h.currencyService.CreateCurrency(req.Code, req.Name, rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"currency": currency})
}

// GetCurrencies lists all active currencies.
func (h *CurrencyHandler) GetCurrencies(c *gin.Context) {
	currencies, err := h.currencyService.GetCurrencies()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currencies": currencies})
}

// GetCurrency returns a single currency by code.
func (h *CurrencyHandler) GetCurrency(c *gin.Context) {
	currency, err := h.currencyService.GetCurrencyByCode(c.Param("code"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currency": currency})
}

// UpdateRate changes the current rate for a currency. Stored transactions
// keep the rate they were written with.
func (h *CurrencyHandler) UpdateRate(c *gin.Context) {
	var req UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rate, err := parseAmount(req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	currency, err := h.currencyService.UpdateRate(c.Param("code"), rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currency": currency})
}
