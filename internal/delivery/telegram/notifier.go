package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NasaVasa/pricewatch/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const dismissCallback = "dismiss"

// Notifier is the platform notification surface backed by Telegram direct
// messages. Permission is the per-user opt-in flag set by /notify_on.
type Notifier struct {
	api    Sender
	users  domain.UserRepository
	logger *zap.Logger
}

func NewNotifier(api Sender, users domain.UserRepository, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, users: users, logger: logger}
}

func (n *Notifier) RequestPermission(ctx context.Context, userID uint) error {
	return n.users.SetNotificationsGranted(ctx, userID, true)
}

func (n *Notifier) Permitted(ctx context.Context, userID uint) bool {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			n.logger.Warn("failed to load user for permission check", zap.Uint("user_id", userID), zap.Error(err))
		}
		return false
	}
	return user.NotificationsGranted && user.TelegramUserID != 0
}

func (n *Notifier) Show(ctx context.Context, userID uint, notification domain.PlatformNotification) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPlatformUnsupported
		}
		return err
	}
	if user.TelegramUserID == 0 {
		return domain.ErrPlatformUnsupported
	}
	if !user.NotificationsGranted {
		return domain.ErrPermissionDenied
	}

	msg := tgbotapi.NewMessage(user.TelegramUserID, formatNotification(notification))
	if notification.RequireInteraction {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Dismiss", dismissCallback)),
		)
	}
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	n.logger.Debug("telegram notification sent", zap.Uint("user_id", userID), zap.Int64("telegram_user_id", user.TelegramUserID))
	return nil
}

func formatNotification(notification domain.PlatformNotification) string {
	var builder strings.Builder
	if notification.Icon != "" {
		builder.WriteString(notification.Icon)
		builder.WriteString(" ")
	}
	builder.WriteString(notification.Title)
	if notification.Body != "" {
		builder.WriteString("\n")
		builder.WriteString(notification.Body)
	}
	return builder.String()
}
