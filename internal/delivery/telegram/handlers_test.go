package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/usecase"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func commandUpdate(text string) tgbotapi.Update {
	command := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		From:     &tgbotapi.User{ID: 7007, UserName: "alice"},
		Chat:     &tgbotapi.Chat{ID: 7007},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}},
	}}
}

func lastText(t *testing.T, sender *fakeSender) string {
	t.Helper()
	if len(sender.sent) == 0 {
		t.Fatalf("expected a reply")
	}
	msg, ok := sender.sent[len(sender.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("unexpected chattable %T", sender.sent[len(sender.sent)-1])
	}
	return msg.Text
}

func TestCheckDuringUserStoreOutage(t *testing.T) {
	users := &fakeUsers{
		users:   map[uint]*domain.User{1: {ID: 1, TelegramUserID: 7007}},
		readErr: errors.New("connection refused"),
	}
	sender := &fakeSender{}
	handlers := NewHandlers(sender, usecase.NewUserUsecase(users, nil, nil), nil, nil, zap.NewNop())

	handlers.HandleUpdate(context.Background(), commandUpdate("/check"))
	if got := lastText(t, sender); got != "No alerts triggered." {
		t.Fatalf("expected empty check result, got %q", got)
	}

	handlers.HandleUpdate(context.Background(), commandUpdate("/alerts"))
	if got := lastText(t, sender); got != "Something went wrong. Please try again." {
		t.Fatalf("expected generic failure for other commands, got %q", got)
	}
}

func TestCheckUnregisteredUser(t *testing.T) {
	sender := &fakeSender{}
	users := &fakeUsers{users: map[uint]*domain.User{}}
	handlers := NewHandlers(sender, usecase.NewUserUsecase(users, nil, nil), nil, nil, zap.NewNop())

	handlers.HandleUpdate(context.Background(), commandUpdate("/check"))
	if got := lastText(t, sender); got != "Please /start to register first." {
		t.Fatalf("expected registration hint, got %q", got)
	}
}

func TestFormatTriggered(t *testing.T) {
	if got := formatTriggered(nil); got != "No alerts triggered." {
		t.Fatalf("unexpected empty text %q", got)
	}
	triggered := []domain.TriggeredAlert{{
		Alert:         domain.Alert{ID: 3, Symbol: "AAPL", Venue: domain.VenueNASDAQ},
		ObservedPrice: decimal.RequireFromString("201"),
		TriggerCount:  2,
		Message:       "AAPL (NASDAQ) rose to 201, target ABOVE 200",
		TriggeredAt:   time.Now(),
	}}
	got := formatTriggered(triggered)
	if !strings.Contains(got, "#3 AAPL (NASDAQ) rose to 201") || !strings.Contains(got, "(x2)") {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestFormatAlertList(t *testing.T) {
	alerts := []domain.Alert{{
		ID:           1,
		Symbol:       "005930",
		Venue:        domain.VenueKRX,
		Condition:    domain.ConditionBelow,
		Target:       decimal.RequireFromString("70000"),
		Status:       domain.AlertStatusPaused,
		TriggerLimit: 2,
	}}
	got := formatAlertList(alerts)
	if !strings.Contains(got, "[paused] #1 005930 KRX BELOW 70000 limit=2") {
		t.Fatalf("unexpected text %q", got)
	}
}
