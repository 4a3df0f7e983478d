package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db, now: time.Now}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	model := mapAlertToModel(*alert)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	alert.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AlertRepository) ListByOwner(ctx context.Context, ownerID uint) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models)
}

func (r *AlertRepository) ListActiveByOwner(ctx context.Context, ownerID uint) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, string(domain.AlertStatusActive)).
		Order("id").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models)
}

func (r *AlertRepository) SetStatus(ctx context.Context, ownerID uint, alertID uint, status domain.AlertStatus) error {
	result := r.db.WithContext(ctx).Model(&alertModel{}).Where("id = ? AND owner_id = ?", alertID, ownerID).Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) Delete(ctx context.Context, ownerID uint, alertID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", alertID, ownerID).Delete(&alertModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) AppendTriggerEvent(ctx context.Context, alertID uint, message string) (*domain.TriggerEvent, error) {
	model := triggerEventModel{AlertID: alertID, Message: message, TriggeredAt: r.now().UTC()}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, err
	}
	return &domain.TriggerEvent{ID: model.ID, AlertID: model.AlertID, Message: model.Message, TriggeredAt: model.TriggeredAt}, nil
}

type triggerStatsRow struct {
	AlertID         uint
	Count           int
	LastTriggeredAt time.Time
}

// TriggerStats omits alerts that have never triggered.
func (r *AlertRepository) TriggerStats(ctx context.Context, alertIDs []uint) (map[uint]domain.TriggerStats, error) {
	stats := make(map[uint]domain.TriggerStats, len(alertIDs))
	if len(alertIDs) == 0 {
		return stats, nil
	}

	var rows []triggerStatsRow
	if err := r.db.WithContext(ctx).
		Model(&triggerEventModel{}).
		Select("alert_id, COUNT(*) AS count, MAX(triggered_at) AS last_triggered_at").
		Where("alert_id IN ?", alertIDs).
		Group("alert_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats[row.AlertID] = domain.TriggerStats{Count: row.Count, LastTriggeredAt: row.LastTriggeredAt}
	}
	return stats, nil
}

func mapAlertsToDomain(models []alertModel) ([]domain.Alert, error) {
	alerts := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		alert, err := mapAlertToDomain(model)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func mapAlertToDomain(model alertModel) (domain.Alert, error) {
	target, err := decimal.NewFromString(model.Target)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("alert %d: parse target %q: %w", model.ID, model.Target, err)
	}
	return domain.Alert{
		ID:              model.ID,
		OwnerID:         model.OwnerID,
		Symbol:          model.Symbol,
		Venue:           domain.Venue(model.Venue),
		Condition:       domain.Condition(model.Condition),
		Target:          target,
		Status:          domain.AlertStatus(model.Status),
		TriggerLimit:    model.TriggerLimit,
		CooldownSeconds: model.CooldownSeconds,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}, nil
}

func mapAlertToModel(alert domain.Alert) alertModel {
	return alertModel{
		ID:              alert.ID,
		OwnerID:         alert.OwnerID,
		Symbol:          alert.Symbol,
		Venue:           string(alert.Venue),
		Condition:       string(alert.Condition),
		Target:          alert.Target.String(),
		Status:          string(alert.Status),
		TriggerLimit:    alert.TriggerLimit,
		CooldownSeconds: alert.CooldownSeconds,
		CreatedAt:       alert.CreatedAt,
		UpdatedAt:       alert.UpdatedAt,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
