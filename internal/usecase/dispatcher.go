package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidNotification = errors.New("invalid notification")

// Dispatcher delivers notifications on two independent paths: persisted
// server-originated records and ephemeral alert triggers.
type Dispatcher struct {
	notifications domain.NotificationRepository
	users         domain.UserRepository
	platform      domain.PlatformNotifier
	inApp         domain.InAppPublisher
	icon          string
	logger        *zap.Logger
	now           func() time.Time
}

func NewDispatcher(notifications domain.NotificationRepository, users domain.UserRepository, platform domain.PlatformNotifier, inApp domain.InAppPublisher, icon string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		platform:      platform,
		inApp:         inApp,
		icon:          icon,
		logger:        logger,
		now:           time.Now,
	}
}

// Publish persists one record per recipient and pushes it to the requested
// channels. Per-recipient failures are logged and skipped.
func (d *Dispatcher) Publish(ctx context.Context, request domain.NotificationRequest) ([]domain.NotificationRecord, error) {
	title := strings.TrimSpace(request.Title)
	message := strings.TrimSpace(request.Message)
	if title == "" || message == "" || len(request.Channels) == 0 {
		return nil, ErrInvalidNotification
	}

	recipients := request.RecipientIDs
	if request.Broadcast {
		ids, err := d.users.ListIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list broadcast recipients: %w", err)
		}
		recipients = ids
	}
	if len(recipients) == 0 {
		return nil, ErrInvalidNotification
	}

	created := make([]domain.NotificationRecord, 0, len(recipients))
	for _, recipientID := range recipients {
		record := domain.NotificationRecord{
			ID:              uuid.NewString(),
			RecipientID:     recipientID,
			Title:           title,
			Message:         message,
			DeliverInApp:    request.Channels.Has(domain.ChannelInApp),
			DeliverPlatform: request.Channels.Has(domain.ChannelPlatform),
			CreatedAt:       d.now().UTC(),
		}
		if err := d.notifications.Create(ctx, &record); err != nil {
			metrics.NotificationsTotal.WithLabelValues("persisted", "error").Inc()
			d.logger.Warn("failed to persist notification", zap.Uint("recipient_id", recipientID), zap.Error(err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("persisted", "ok").Inc()
		created = append(created, record)

		for _, channel := range request.Channels {
			d.deliver(ctx, channel, record)
		}
	}

	d.logger.Info("notification published", zap.String("title", title), zap.Int("recipients", len(recipients)), zap.Int("created", len(created)))
	return created, nil
}

func (d *Dispatcher) deliver(ctx context.Context, channel domain.Channel, record domain.NotificationRecord) {
	switch channel {
	case domain.ChannelInApp:
		if d.inApp == nil {
			return
		}
		if err := d.inApp.PublishInApp(ctx, record); err != nil {
			d.logger.Warn("failed to push in-app notification", zap.String("notification_id", record.ID), zap.Error(err))
		}
	case domain.ChannelPlatform:
		d.showPlatform(ctx, record.RecipientID, domain.PlatformNotification{
			Title: record.Title,
			Body:  record.Message,
			Icon:  d.icon,
		})
	}
}

// DispatchTriggered renders every trigger as a toast and, when the owner has
// granted it, a platform notification. A failing platform call never
// suppresses the toast.
func (d *Dispatcher) DispatchTriggered(ctx context.Context, ownerID uint, toaster domain.Toaster, triggered []domain.TriggeredAlert) {
	if len(triggered) == 0 {
		return
	}
	permitted := d.platform != nil && d.platform.Permitted(ctx, ownerID)

	for _, trigger := range triggered {
		title := fmt.Sprintf("%s %s %s", trigger.Alert.Symbol, strings.ToLower(string(trigger.Alert.Condition)), trigger.Alert.Target.String())
		body := fmt.Sprintf("Price %s (target %s). Triggered %d time(s).", trigger.ObservedPrice.String(), trigger.Alert.Target.String(), trigger.TriggerCount)

		if toaster != nil {
			toast := domain.Toast{
				AlertID:       trigger.Alert.ID,
				Title:         title,
				Body:          body,
				ObservedPrice: trigger.ObservedPrice.String(),
				Target:        trigger.Alert.Target.String(),
				TriggerCount:  trigger.TriggerCount,
			}
			if err := toaster.Toast(ctx, toast); err != nil {
				metrics.NotificationsTotal.WithLabelValues("toast", "error").Inc()
				d.logger.Warn("failed to deliver toast", zap.Uint("owner_id", ownerID), zap.Uint("alert_id", trigger.Alert.ID), zap.Error(err))
			} else {
				metrics.NotificationsTotal.WithLabelValues("toast", "ok").Inc()
			}
		}

		if !permitted {
			continue
		}
		d.showPlatform(ctx, ownerID, domain.PlatformNotification{
			Title:              title,
			Body:               body,
			Icon:               d.icon,
			RequireInteraction: true,
		})
	}
}

func (d *Dispatcher) showPlatform(ctx context.Context, userID uint, notification domain.PlatformNotification) {
	if d.platform == nil {
		return
	}
	err := d.showSafely(ctx, userID, notification)
	switch {
	case err == nil:
		metrics.NotificationsTotal.WithLabelValues("platform", "ok").Inc()
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrPlatformUnsupported):
		metrics.NotificationsTotal.WithLabelValues("platform", "skipped").Inc()
		d.logger.Info("platform notification skipped", zap.Uint("user_id", userID), zap.Error(err))
	default:
		metrics.NotificationsTotal.WithLabelValues("platform", "error").Inc()
		d.logger.Warn("platform notification failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (d *Dispatcher) showSafely(ctx context.Context, userID uint, notification domain.PlatformNotification) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("platform notifier panic: %v", rec)
		}
	}()
	return d.platform.Show(ctx, userID, notification)
}
