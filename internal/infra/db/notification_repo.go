package db

import (
	"context"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, record *domain.NotificationRecord) error {
	model := notificationModel{
		ID:              record.ID,
		RecipientID:     record.RecipientID,
		Title:           record.Title,
		Message:         record.Message,
		DeliverInApp:    record.DeliverInApp,
		DeliverPlatform: record.DeliverPlatform,
		Read:            record.Read,
		CreatedAt:       record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	record.CreatedAt = model.CreatedAt
	return nil
}

// ListByRecipient returns in-app records only, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, unreadOnly bool) ([]domain.NotificationRecord, error) {
	query := r.db.WithContext(ctx).Where("recipient_id = ? AND deliver_in_app = ?", recipientID, true)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	var models []notificationModel
	if err := query.Order("created_at DESC").Limit(200).Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]domain.NotificationRecord, 0, len(models))
	for _, model := range models {
		records = append(records, domain.NotificationRecord{
			ID:              model.ID,
			RecipientID:     model.RecipientID,
			Title:           model.Title,
			Message:         model.Message,
			DeliverInApp:    model.DeliverInApp,
			DeliverPlatform: model.DeliverPlatform,
			Read:            model.Read,
			CreatedAt:       model.CreatedAt,
		})
	}
	return records, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipientID uint, id string) error {
	result := r.db.WithContext(ctx).Model(&notificationModel{}).Where("id = ? AND recipient_id = ?", id, recipientID).Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
