package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"account-ledger-api/internal/model"
	"account-ledger-api/internal/service"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

func writeJSONResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSONResponse(w, statusCode, model.ErrorResponse{
		Message: message,
		Code:    code,
	})
}

// errorResponseFor converts service errors to a status code and body
func errorResponseFor(err error) (int, model.ErrorResponse) {
	var serviceErr *service.ServiceError
	if !errors.As(err, &serviceErr) {
		return http.StatusInternalServerError, model.ErrorResponse{
			Message: "Internal server error",
			Code:    model.ErrCodeInternalError,
			Error:   err.Error(),
		}
	}

	response := model.ErrorResponse{
		Message: serviceErr.Message,
		Code:    serviceErr.Code,
	}

	switch serviceErr.Code {
	case model.ErrCodeNotFound:
		return http.StatusNotFound, response
	case model.ErrCodeValidation,
		model.ErrCodeInvalidInput,
		model.ErrCodeConflict,
		model.ErrCodeInvalidCredentials,
		model.ErrCodeSelfTransfer,
		model.ErrCodeInsufficientFunds:
		return http.StatusBadRequest, response
	case model.ErrCodeIdempotencyConflict:
		return http.StatusConflict, response
	default:
		response.Code = model.ErrCodeInternalError
		response.Error = serviceErr.Cause()
		return http.StatusInternalServerError, response
	}
}

// handleServiceError converts service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	statusCode, response := errorResponseFor(err)
	writeJSONResponse(w, statusCode, response)
}

// decodeJSON reads a JSON body into dst, reporting malformed input as a validation error
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil {
		return nil
	}

	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return &service.ServiceError{
			Code:    model.ErrCodeValidation,
			Message: validationErr.Message,
			Field:   validationErr.Field,
		}
	}
	return &service.ServiceError{
		Code:    model.ErrCodeInvalidInput,
		Message: "Invalid JSON",
		Err:     err,
	}
}
