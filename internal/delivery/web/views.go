package web

import (
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
)

type triggeredView struct {
	AlertID       uint   `json:"alert_id"`
	Symbol        string `json:"symbol"`
	Venue         string `json:"venue"`
	Condition     string `json:"condition"`
	Target        string `json:"target"`
	ObservedPrice string `json:"observed_price"`
	TriggerCount  int    `json:"trigger_count"`
	Message       string `json:"message"`
}

func newTriggeredViews(triggered []domain.TriggeredAlert) []triggeredView {
	views := make([]triggeredView, 0, len(triggered))
	for _, item := range triggered {
		views = append(views, triggeredView{
			AlertID:       item.Alert.ID,
			Symbol:        item.Alert.Symbol,
			Venue:         string(item.Alert.Venue),
			Condition:     string(item.Alert.Condition),
			Target:        item.Alert.Target.String(),
			ObservedPrice: item.ObservedPrice.String(),
			TriggerCount:  item.TriggerCount,
			Message:       item.Message,
		})
	}
	return views
}

type alertView struct {
	ID              uint      `json:"id"`
	Symbol          string    `json:"symbol"`
	Venue           string    `json:"venue"`
	Condition       string    `json:"condition"`
	Target          string    `json:"target"`
	Status          string    `json:"status"`
	TriggerLimit    int       `json:"trigger_limit"`
	CooldownSeconds int       `json:"cooldown_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

func newAlertView(alert domain.Alert) alertView {
	return alertView{
		ID:              alert.ID,
		Symbol:          alert.Symbol,
		Venue:           string(alert.Venue),
		Condition:       string(alert.Condition),
		Target:          alert.Target.String(),
		Status:          string(alert.Status),
		TriggerLimit:    alert.TriggerLimit,
		CooldownSeconds: alert.CooldownSeconds,
		CreatedAt:       alert.CreatedAt,
	}
}

type alertRequest struct {
	Symbol          string `json:"symbol"`
	Venue           string `json:"venue"`
	Condition       string `json:"condition"`
	Target          string `json:"target"`
	TriggerLimit    int    `json:"trigger_limit"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

type notificationView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func newNotificationView(record domain.NotificationRecord) notificationView {
	return notificationView{
		ID:        record.ID,
		Title:     record.Title,
		Message:   record.Message,
		Read:      record.Read,
		CreatedAt: record.CreatedAt,
	}
}

type adminNotificationRequest struct {
	RecipientIDs []uint   `json:"recipient_ids"`
	Broadcast    bool     `json:"broadcast"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Channels     []string `json:"channels"`
}

type errorView struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
