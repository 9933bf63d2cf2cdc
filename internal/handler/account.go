package handler

import (
	"net/http"

	"account-ledger-api/internal/model"
	"account-ledger-api/internal/service"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// ListUsers handles GET /api/users
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"users": accounts,
	})
}

// DeleteUsers handles DELETE /api/users
func (h *AccountHandler) DeleteUsers(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.accountService.DeleteAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.MessageResponse{
		Message: "All users deleted",
		Count:   &deleted,
	})
}

// Register handles POST /api/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	account, err := h.accountService.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.AccountResponse{
		Message: "Registration successful",
		User:    account.Summary(),
	})
}

// Login handles POST /api/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	account, err := h.accountService.Authenticate(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.AccountResponse{
		Message: "Login successful",
		User:    account.Summary(),
	})
}

// GetBalance handles GET /api/balance?account=
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.accountService.GetBalance(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.BalanceResponse{Balance: balance})
}

// VerifyName handles GET /api/verify-name?account=
func (h *AccountHandler) VerifyName(w http.ResponseWriter, r *http.Request) {
	fullname, err := h.accountService.GetDisplayName(r.Context(), r.URL.Query().Get("account"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.DisplayNameResponse{Fullname: fullname})
}
