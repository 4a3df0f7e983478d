package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fanoutPayload struct {
	ID          string    `json:"id"`
	RecipientID uint      `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotifyPublisher fans in-app notifications out to every replica through
// Postgres NOTIFY. Each replica runs a Listener that hands records to its
// local session hub.
type NotifyPublisher struct {
	db      *gorm.DB
	channel string
}

func NewNotifyPublisher(db *gorm.DB, channel string) *NotifyPublisher {
	return &NotifyPublisher{db: db, channel: channel}
}

func (p *NotifyPublisher) PublishInApp(ctx context.Context, record domain.NotificationRecord) error {
	payload, err := encodeFanout(record)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", p.channel, payload).Error
}

type Listener struct {
	dsn     string
	channel string
	sink    domain.InAppPublisher
	logger  *zap.Logger
}

func NewListener(dsn, channel string, sink domain.InAppPublisher, logger *zap.Logger) *Listener {
	return &Listener{dsn: dsn, channel: channel, sink: sink, logger: logger}
}

// Run blocks until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.logger.Warn("postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("listening for notifications", zap.String("channel", l.channel))

	for {
		select {
		case <-ctx.Done():
			return nil
		case notification := <-listener.Notify:
			if notification == nil {
				// reconnected; notifications sent while down are lost
				continue
			}
			record, err := decodeFanout(notification.Extra)
			if err != nil {
				l.logger.Warn("invalid notification payload", zap.Error(err))
				continue
			}
			if err := l.sink.PublishInApp(ctx, record); err != nil {
				l.logger.Warn("failed to forward notification", zap.String("notification_id", record.ID), zap.Error(err))
			}
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					l.logger.Warn("postgres listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func encodeFanout(record domain.NotificationRecord) (string, error) {
	data, err := json.Marshal(fanoutPayload{
		ID:          record.ID,
		RecipientID: record.RecipientID,
		Title:       record.Title,
		Message:     record.Message,
		CreatedAt:   record.CreatedAt,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeFanout(extra string) (domain.NotificationRecord, error) {
	var payload fanoutPayload
	if err := json.Unmarshal([]byte(extra), &payload); err != nil {
		return domain.NotificationRecord{}, err
	}
	if payload.ID == "" || payload.RecipientID == 0 {
		return domain.NotificationRecord{}, fmt.Errorf("incomplete payload")
	}
	return domain.NotificationRecord{
		ID:           payload.ID,
		RecipientID:  payload.RecipientID,
		Title:        payload.Title,
		Message:      payload.Message,
		DeliverInApp: true,
		CreatedAt:    payload.CreatedAt,
	}, nil
}
