package handler

import (
	"net/http"

	"github.com/google/uuid"

	"account-ledger-api/internal/model"
	"account-ledger-api/internal/service"
)

// NotificationHandler handles notification inbox requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListUnread handles GET /api/notifications?userId=
func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListUnread(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.NotificationListResponse{
		Notifications: notifications,
	})
}

// MarkAllRead handles POST /api/notifications/mark-read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	var req model.MarkReadRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	userID, ok := parseUserID(w, req.UserID)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, model.MessageResponse{
		Message: "Notifications marked as read",
		Count:   &updated,
	})
}

func parseUserID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	if raw == "" {
		writeErrorResponse(w, http.StatusBadRequest, "userId is required", model.ErrCodeValidation)
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid userId format", model.ErrCodeInvalidInput)
		return uuid.Nil, false
	}
	return userID, true
}
