package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxMessageLen = 3800

type Handlers struct {
	api     Sender
	userUC  *usecase.UserUsecase
	alertUC *usecase.AlertUsecase
	monitor *usecase.Monitor
	logger  *zap.Logger
}

func NewHandlers(api Sender, userUC *usecase.UserUsecase, alertUC *usecase.AlertUsecase, monitor *usecase.Monitor, logger *zap.Logger) *Handlers {
	return &Handlers{api: api, userUC: userUC, alertUC: alertUC, monitor: monitor, logger: logger}
}

func (h *Handlers) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	if update.Message.From == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, update)
		return
	}
}

// handleCallback removes a notification once the user dismisses it.
func (h *Handlers) handleCallback(query *tgbotapi.CallbackQuery) {
	if query.Data != dismissCallback || query.Message == nil {
		return
	}
	if _, err := h.api.Request(tgbotapi.NewDeleteMessage(query.Message.Chat.ID, query.Message.MessageID)); err != nil {
		h.logger.Warn("failed to dismiss notification", zap.Int64("chat_id", query.Message.Chat.ID), zap.Error(err))
	}
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "Dismissed")); err != nil {
		h.logger.Debug("failed to answer callback", zap.Error(err))
	}
}

func (h *Handlers) handleCommand(ctx context.Context, update tgbotapi.Update) {
	command := update.Message.Command()
	args := update.Message.CommandArguments()
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	username := update.Message.From.UserName

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.Int64("telegram_user_id", userID),
		zap.String("username", username),
		zap.String("command", command),
		zap.String("args", args),
	)

	switch command {
	case "start":
		_, err := h.userUC.StartOrGetUser(ctx, userID, username)
		if err != nil {
			h.logger.Warn("start command failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(chatID, "Failed to register. Please try again.")
			return
		}
		h.logger.Info("start command complete", zap.Int64("telegram_user_id", userID))
		h.reply(chatID, "Welcome to Pricewatch.\n\n"+HelpText)
		return
	case "help":
		h.reply(chatID, HelpText)
		return
	}

	principal, err := h.userUC.PrincipalForTelegram(ctx, userID)
	if err != nil && command == "check" && !errors.Is(err, usecase.ErrUserNotRegistered) {
		h.logger.Warn("check degraded, user store unavailable", zap.Int64("telegram_user_id", userID), zap.Error(err))
		h.reply(chatID, formatTriggered(nil))
		return
	}
	if err != nil {
		h.logger.Warn("command from unknown user", zap.Int64("telegram_user_id", userID), zap.String("command", command), zap.Error(err))
		h.reply(chatID, h.alertErrorMessage(err))
		return
	}

	switch command {
	case "add_alert":
		input, err := ParseAddAlertArgs(args)
		if err != nil {
			h.logger.Warn("add_alert invalid args", zap.Int64("telegram_user_id", userID), zap.String("args", args))
			h.reply(chatID, "Usage: /add_alert <SYMBOL> <KRX|NASDAQ> <ABOVE|BELOW> <target> [trigger_limit] [cooldown_seconds]")
			return
		}
		alert, err := h.alertUC.CreateAlert(ctx, principal, input)
		if err != nil {
			h.logger.Warn("add_alert failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		h.logger.Info("add_alert complete", zap.Int64("telegram_user_id", userID), zap.Uint("alert_id", alert.ID))
		h.reply(chatID, fmt.Sprintf("Alert created: %s", formatAlert(*alert)))
	case "alerts":
		alerts, err := h.alertUC.ListAlerts(ctx, principal)
		if err != nil {
			h.logger.Warn("alerts list failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		if len(alerts) == 0 {
			h.reply(chatID, "No alerts yet. Use /add_alert to create one.")
			return
		}
		h.logger.Info("alerts list complete", zap.Int64("telegram_user_id", userID), zap.Int("count", len(alerts)))
		h.reply(chatID, formatAlertList(alerts))
	case "pause", "resume", "delete":
		alertID, err := ParseAlertID(args)
		if err != nil {
			h.logger.Warn(command+" invalid args", zap.Int64("telegram_user_id", userID), zap.String("args", args))
			h.reply(chatID, fmt.Sprintf("Usage: /%s <alert_id>", command))
			return
		}
		var verb string
		switch command {
		case "pause":
			verb = "paused"
			err = h.alertUC.PauseAlert(ctx, principal, alertID)
		case "resume":
			verb = "resumed"
			err = h.alertUC.ResumeAlert(ctx, principal, alertID)
		default:
			verb = "deleted"
			err = h.alertUC.DeleteAlert(ctx, principal, alertID)
		}
		if err != nil {
			h.logger.Warn(command+" failed", zap.Int64("telegram_user_id", userID), zap.Uint("alert_id", alertID), zap.Error(err))
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		h.logger.Info(command+" complete", zap.Int64("telegram_user_id", userID), zap.Uint("alert_id", alertID))
		h.reply(chatID, fmt.Sprintf("Alert #%d %s.", alertID, verb))
	case "check":
		triggered, err := h.monitor.Check(ctx, principal)
		if err != nil {
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		h.logger.Info("check complete", zap.Int64("telegram_user_id", userID), zap.Int("triggered", len(triggered)))
		h.reply(chatID, formatTriggered(triggered))
	case "notify_on":
		if err := h.userUC.EnableNotifications(ctx, principal); err != nil {
			h.logger.Warn("notify_on failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		h.reply(chatID, "Notifications enabled. Triggered alerts will be sent here.")
	case "notify_off":
		if err := h.userUC.DisableNotifications(ctx, principal); err != nil {
			h.logger.Warn("notify_off failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		h.reply(chatID, "Notifications disabled.")
	case "login":
		token, expiresAt, err := h.userUC.IssueSessionToken(principal)
		if err != nil {
			h.logger.Warn("login failed", zap.Int64("telegram_user_id", userID), zap.Error(err))
			h.reply(chatID, h.alertErrorMessage(err))
			return
		}
		h.logger.Info("session token issued", zap.Int64("telegram_user_id", userID), zap.Time("expires_at", expiresAt))
		h.reply(chatID, fmt.Sprintf("Dashboard token (expires %s):\n%s", expiresAt.UTC().Format(time.RFC3339), token))
	default:
		h.logger.Warn("unknown command", zap.Int64("telegram_user_id", userID), zap.String("command", command))
		h.reply(chatID, "Unknown command.\n\n"+HelpText)
	}
}

func (h *Handlers) alertErrorMessage(err error) string {
	var validation *usecase.ValidationError
	switch {
	case errors.Is(err, usecase.ErrUserNotRegistered), errors.Is(err, usecase.ErrUnauthenticated):
		return "Please /start to register first."
	case errors.As(err, &validation):
		return fmt.Sprintf("Invalid %s: %s.", strings.ReplaceAll(validation.Field, "_", " "), validation.Reason)
	case errors.Is(err, usecase.ErrAlertNotFound):
		return "Alert not found."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func formatAlert(alert domain.Alert) string {
	line := fmt.Sprintf("#%d %s %s %s %s", alert.ID, alert.Symbol, alert.Venue, alert.Condition, alert.Target)
	if alert.TriggerLimit > 0 {
		line += fmt.Sprintf(" limit=%d", alert.TriggerLimit)
	}
	if alert.CooldownSeconds > 0 {
		line += fmt.Sprintf(" cooldown=%ds", alert.CooldownSeconds)
	}
	return line
}

func formatAlertList(alerts []domain.Alert) string {
	var builder strings.Builder
	builder.WriteString("Your alerts:\n")
	for i, alert := range alerts {
		line := fmt.Sprintf("[%s] %s\n", strings.ToLower(string(alert.Status)), formatAlert(alert))
		if builder.Len()+len(line) > maxMessageLen {
			builder.WriteString(fmt.Sprintf("...and %d more alerts", len(alerts)-i))
			break
		}
		builder.WriteString(line)
	}
	return builder.String()
}

func formatTriggered(triggered []domain.TriggeredAlert) string {
	if len(triggered) == 0 {
		return "No alerts triggered."
	}
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d alert(s) triggered:\n", len(triggered)))
	for i, item := range triggered {
		line := fmt.Sprintf("#%d %s (x%d)\n", item.Alert.ID, item.Message, item.TriggerCount)
		if builder.Len()+len(line) > maxMessageLen {
			builder.WriteString(fmt.Sprintf("...and %d more", len(triggered)-i))
			break
		}
		builder.WriteString(line)
	}
	return builder.String()
}

func (h *Handlers) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Error(err))
	}
}
