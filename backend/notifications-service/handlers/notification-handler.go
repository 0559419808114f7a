package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fms-project/backend/notifications-service/logging"
	"fms-project/backend/notifications-service/models"
	"fms-project/backend/notifications-service/services"

	"github.com/gorilla/mux"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}
	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

// CreateNotification is called by the other FMS services over the internal
// network, so it carries no role gate.
func (nh *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string `json:"userId"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := nh.service.CreateNotification(req.UserID, req.Message); err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.Logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to create notification for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create notification", http.StatusInternalServerError)
		return
	}
	logging.Logger.Infof("Event ID: NOTIFICATION_CREATED, Description: Notification created for user %s", req.UserID)
	w.WriteHeader(http.StatusCreated)
}

func (nh *NotificationHandler) GetNotificationsByUser(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	userID := mux.Vars(r)["userID"]
	notifications, err := nh.service.GetNotificationsByUser(userID)
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_FETCH_FAILED, Description: Failed to fetch notifications for user %s: %v", userID, err)
		http.Error(w, "Failed to fetch notifications", http.StatusInternalServerError)
		return
	}

	// Always return a JSON array, even when empty.
	if notifications == nil {
		notifications = []models.Notification{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func (nh *NotificationHandler) MarkNotificationAsRead(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	var req struct {
		NotificationID string `json:"notificationId"`
		UserID         string `json:"userId"`
		CreatedAt      string `json:"createdAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := nh.service.MarkNotificationAsRead(req.UserID, req.NotificationID, req.CreatedAt); err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.Logger.Errorf("Event ID: NOTIFICATION_READ_FAILED, Description: Failed to mark notification %s as read for user %s: %v", req.NotificationID, req.UserID, err)
		http.Error(w, "Failed to mark notification as read", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (nh *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	var req struct {
		NotificationID string `json:"notificationId"`
		UserID         string `json:"userId"`
		CreatedAt      string `json:"createdAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := nh.service.DeleteNotification(req.UserID, req.NotificationID, req.CreatedAt); err != nil {
		if errors.Is(err, services.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.Logger.Errorf("Event ID: NOTIFICATION_DELETE_FAILED, Description: Failed to delete notification %s for user %s: %v", req.NotificationID, req.UserID, err)
		http.Error(w, "Failed to delete notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
