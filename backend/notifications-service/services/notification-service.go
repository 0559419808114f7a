package services

import (
	"errors"
	"fmt"
	"time"

	"fms-project/backend/notifications-service/models"
	"fms-project/backend/notifications-service/repositories"
)

var ErrInvalidArgument = errors.New("invalid argument")

type NotificationService struct {
	repo *repositories.NotificationRepo
}

func NewNotificationService(repo *repositories.NotificationRepo) *NotificationService {
	return &NotificationService{
		repo: repo,
	}
}

func (ns *NotificationService) CreateNotification(userID, message string) error {
	if userID == "" || message == "" {
		return fmt.Errorf("%w: userId and message are required", ErrInvalidArgument)
	}
	notification := models.Notification{
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now(),
		IsRead:    false,
	}
	return ns.repo.CreateNotification(&notification)
}

func (ns *NotificationService) GetNotificationsByUser(userID string) ([]models.Notification, error) {
	return ns.repo.GetNotificationsByUser(userID)
}

func (ns *NotificationService) MarkNotificationAsRead(userID, notificationID, createdAt string) error {
	if userID == "" || notificationID == "" || createdAt == "" {
		return fmt.Errorf("%w: userId, notificationId and createdAt are required", ErrInvalidArgument)
	}
	return ns.repo.MarkNotificationAsRead(userID, notificationID, createdAt)
}

func (ns *NotificationService) DeleteNotification(userID, notificationID, createdAt string) error {
	if userID == "" || notificationID == "" || createdAt == "" {
		return fmt.Errorf("%w: userId, notificationId and createdAt are required", ErrInvalidArgument)
	}
	return ns.repo.DeleteNotification(userID, notificationID, createdAt)
}
