package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"account-ledger-api/internal/model"
	"account-ledger-api/internal/repository"
	"account-ledger-api/internal/service"
)

// IdempotencyStore records the responses of requests sent with an Idempotency-Key header
type IdempotencyStore interface {
	StoreRequest(ctx context.Context, keyHash, requestBody string) (bool, error)
	GetRequest(ctx context.Context, keyHash string) (*repository.IdempotencyRecord, error)
	UpdateResponse(ctx context.Context, keyHash, responseBody string, status int) error
	DeleteRequest(ctx context.Context, keyHash string) error
}

// TransactionHandler handles transfer and transaction-log HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
	idempotency        IdempotencyStore
	logger             *logrus.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService *service.TransactionService, idempotency IdempotencyStore, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		idempotency:        idempotency,
		logger:             logger,
	}
}

// CreateTransfer handles POST /api/transfer
func (h *TransactionHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", model.ErrCodeInvalidInput)
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" || h.idempotency == nil {
		statusCode, response := h.transfer(r.Context(), body)
		writeJSONResponse(w, statusCode, response)
		return
	}

	h.transferIdempotent(w, r, repository.GenerateKeyHash(idempotencyKey), body)
}

func (h *TransactionHandler) transferIdempotent(w http.ResponseWriter, r *http.Request, keyHash string, body []byte) {
	ctx := r.Context()

	claimed, err := h.idempotency.StoreRequest(ctx, keyHash, string(body))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !claimed {
		h.replay(ctx, w, keyHash, body)
		return
	}

	statusCode, response := h.transfer(ctx, body)
	encoded, err := json.Marshal(response)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.settleKey(context.WithoutCancel(ctx), keyHash, statusCode, encoded)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(encoded, '\n'))
}

// settleKey records the outcome of a claimed key. Server errors release the key so the
// client can retry. If a rejected request cannot be recorded the key is released too,
// since running it again moves no money. A successful transfer that cannot be recorded
// keeps its claim: retries get 409 until the key expires instead of debiting twice.
func (h *TransactionHandler) settleKey(ctx context.Context, keyHash string, statusCode int, encoded []byte) {
	if statusCode >= http.StatusInternalServerError {
		if err := h.idempotency.DeleteRequest(ctx, keyHash); err != nil {
			h.logger.WithError(err).Warn("Failed to release idempotency key")
		}
		return
	}

	err := h.idempotency.UpdateResponse(ctx, keyHash, string(encoded), statusCode)
	if err == nil {
		return
	}

	entry := h.logger.WithError(err).WithField("status", statusCode)
	if statusCode == http.StatusOK {
		entry.Error("Failed to record transfer response; idempotency key stays claimed until it expires")
		return
	}

	entry.Warn("Failed to record idempotent response; releasing key")
	if err := h.idempotency.DeleteRequest(ctx, keyHash); err != nil {
		h.logger.WithError(err).Warn("Failed to release idempotency key")
	}
}

func (h *TransactionHandler) replay(ctx context.Context, w http.ResponseWriter, keyHash string, body []byte) {
	record, err := h.idempotency.GetRequest(ctx, keyHash)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	switch {
	case record == nil || !record.Completed():
		writeErrorResponse(w, http.StatusConflict, "A request with this Idempotency-Key is still being processed", model.ErrCodeIdempotencyConflict)
	case record.RequestBody != string(body):
		writeErrorResponse(w, http.StatusConflict, "Idempotency-Key was already used with a different request", model.ErrCodeIdempotencyConflict)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(*record.ResponseStatus)
		io.WriteString(w, *record.ResponseBody+"\n")
	}
}

// transfer runs one transfer and returns the status code and body to send
func (h *TransactionHandler) transfer(ctx context.Context, body []byte) (int, any) {
	var req model.TransferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			return errorResponseFor(&service.ServiceError{
				Code:    model.ErrCodeValidation,
				Message: validationErr.Message,
				Field:   validationErr.Field,
			})
		}
		return http.StatusBadRequest, model.ErrorResponse{
			Message: "Invalid transaction request",
			Code:    model.ErrCodeInvalidInput,
		}
	}

	result, err := h.transactionService.Transfer(ctx, &req)
	if err != nil {
		statusCode, response := errorResponseFor(err)
		if statusCode >= http.StatusInternalServerError {
			h.logger.WithError(err).Error("Transfer failed")
		}
		return statusCode, response
	}

	return http.StatusOK, result
}

// ListTransactions handles GET /api/transactions?accountNumber=
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountNumber := r.URL.Query().Get("accountNumber")

	transactions, err := h.transactionService.ListTransactions(r.Context(), accountNumber)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.TransactionListResponse{
		AccountNumber: accountNumber,
		Transactions:  transactions,
	})
}
