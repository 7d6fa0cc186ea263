package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// --- mock account service ---

type mockAccountService struct {
	createAccountFn     func(name string, accountType models.AccountType, currency string, openingBalance decimal.Decimal, description string) (*models.Account, error)
	getAccountByIDFn    func(accountID string) (*models.Account, error)
	setOpeningBalanceFn func(accountID string, openingBalance decimal.Decimal) (*models.Account, error)
	deleteAccountFn     func(accountID string) error
}

func (m *mockAccountService) CreateAccount(name string, accountType models.AccountType, currency string, openingBalance decimal.Decimal, description string) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(name, accountType, currency, openingBalance, description)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	return &models.Account{}, nil
}

func (m *mockAccountService) SetOpeningBalance(accountID string, openingBalance decimal.Decimal) (*models.Account, error) {
	if m.setOpeningBalanceFn != nil {
		return m.setOpeningBalanceFn(accountID, openingBalance)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeleteAccount(accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(accountID)
	}
	return nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	r.POST("/accounts", handler.CreateAccount)
	r.GET("/accounts", handler.GetAccounts)
	r.GET("/accounts/:id", handler.GetAccount)
	r.PUT("/accounts/:id", handler.UpdateAccount)
	r.PUT("/accounts/:id/opening-balance", handler.SetOpeningBalance)
	r.DELETE("/accounts/:id", handler.DeleteAccount)
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockAccountService{
			createAccountFn: func(name string, accountType models.AccountType, currency string, opening decimal.Decimal, _ string) (*models.Account, error) {
				return &models.Account{
					Name:           name,
					Type:           accountType,
					Currency:       currency,
					OpeningBalance: opening,
				}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(svc))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Main","type":"asset","currency":"PKR","opening_balance":"1000"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		account := result["account"].(map[string]interface{})
		if account["name"] != "Main" {
			t.Errorf("expected name Main, got %v", account["name"])
		}
	})

	t.Run("returns 400 on invalid account type", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Main","type":"savings","currency":"PKR"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid currency code", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Main","type":"asset","currency":"pkr"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("returns 503 while account is inconsistent", func(t *testing.T) {
		svc := &mockAccountService{
			getAccountByIDFn: func(string) (*models.Account, error) {
				return nil, apperrors.ErrAccountInconsistent
			},
		}
		r := setupAccountRouter(NewAccountHandler(svc))

		rec := doRequest(r, "GET", "/accounts/some-id", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_INCONSISTENT")
	})
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	t.Run("returns 409 when account has transactions", func(t *testing.T) {
		svc := &mockAccountService{
			deleteAccountFn: func(string) error {
				return apperrors.ErrAccountInUse
			},
		}
		r := setupAccountRouter(NewAccountHandler(svc))

		rec := doRequest(r, "DELETE", "/accounts/some-id", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_IN_USE")
	})
}
