package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// NotificationRepository recorded notification data access.
type NotificationRepository interface {
	BatchCreate(ctx context.Context, items []model.Notification) error
	ListByEmployee(ctx context.Context, employeeID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	// MarkRead flags one notification of the employee as read. Returns
	// gorm.ErrRecordNotFound when it does not belong to the employee.
	MarkRead(ctx context.Context, id, employeeID string) error
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo creates a NotificationRepository.
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) BatchCreate(ctx context.Context, items []model.Notification) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *notificationRepo) ListByEmployee(ctx context.Context, employeeID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var items []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("employee_id = ?", employeeID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC, notification_id ASC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, employeeID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id = ? AND employee_id = ?", id, employeeID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
