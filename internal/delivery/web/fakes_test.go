package web

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/usecase"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type memUsers struct {
	mu      sync.Mutex
	users   map[uint]*domain.User
	readErr error
}

func (r *memUsers) GetByTelegramID(_ context.Context, telegramUserID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.TelegramUserID == telegramUserID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUsers) GetByID(_ context.Context, userID uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	user, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUsers) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uint(len(r.users) + 1)
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *memUsers) SetNotificationsGranted(_ context.Context, userID uint, granted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	user.NotificationsGranted = granted
	return nil
}

func (r *memUsers) ListIDs(_ context.Context) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

type memAlerts struct {
	mu      sync.Mutex
	alerts  []domain.Alert
	events  map[uint]int
	listErr error
}

func (r *memAlerts) Create(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert.ID = uint(len(r.alerts) + 1)
	r.alerts = append(r.alerts, *alert)
	return nil
}

func (r *memAlerts) ListByOwner(_ context.Context, ownerID uint) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Alert
	for _, alert := range r.alerts {
		if alert.OwnerID == ownerID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memAlerts) ListActiveByOwner(ctx context.Context, ownerID uint) ([]domain.Alert, error) {
	r.mu.Lock()
	listErr := r.listErr
	r.mu.Unlock()
	if listErr != nil {
		return nil, listErr
	}
	all, _ := r.ListByOwner(ctx, ownerID)
	var out []domain.Alert
	for _, alert := range all {
		if alert.Status == domain.AlertStatusActive {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *memAlerts) SetStatus(_ context.Context, ownerID, alertID uint, status domain.AlertStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == alertID && r.alerts[i].OwnerID == ownerID {
			r.alerts[i].Status = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memAlerts) Delete(_ context.Context, ownerID, alertID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == alertID && r.alerts[i].OwnerID == ownerID {
			r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memAlerts) AppendTriggerEvent(_ context.Context, alertID uint, message string) (*domain.TriggerEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[alertID]++
	return &domain.TriggerEvent{ID: uint(r.events[alertID]), AlertID: alertID, Message: message, TriggeredAt: time.Now()}, nil
}

func (r *memAlerts) TriggerStats(_ context.Context, alertIDs []uint) (map[uint]domain.TriggerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make(map[uint]domain.TriggerStats, len(alertIDs))
	for _, id := range alertIDs {
		if count := r.events[id]; count > 0 {
			stats[id] = domain.TriggerStats{Count: count, LastTriggeredAt: time.Now()}
		}
	}
	return stats, nil
}

type memNotifications struct {
	mu      sync.Mutex
	records []domain.NotificationRecord
}

func (r *memNotifications) Create(_ context.Context, record *domain.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *memNotifications) ListByRecipient(_ context.Context, recipientID uint, unreadOnly bool) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationRecord
	for _, record := range r.records {
		if record.RecipientID == recipientID && record.DeliverInApp && !(unreadOnly && record.Read) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memNotifications) MarkRead(_ context.Context, recipientID uint, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id && r.records[i].RecipientID == recipientID {
			r.records[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type staticQuotes map[domain.QuoteKey]decimal.Decimal

func (q staticQuotes) GetQuote(_ context.Context, symbol string, venue domain.Venue) (decimal.Decimal, error) {
	price, ok := q[domain.QuoteKey{Symbol: symbol, Venue: venue}]
	if !ok {
		return decimal.Decimal{}, errors.New("no quote")
	}
	return price, nil
}

// stubTokens issues "tok-<id>" tokens.
type stubTokens struct{}

func (stubTokens) Issue(userID uint) (string, time.Time, error) {
	return fmt.Sprintf("tok-%d", userID), time.Now().Add(time.Hour), nil
}

func (stubTokens) Verify(token string) (uint, error) {
	raw, ok := strings.CutPrefix(token, "tok-")
	if !ok {
		return 0, errors.New("bad token")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

type fixture struct {
	server        *Server
	hub           *Hub
	users         *memUsers
	alerts        *memAlerts
	notifications *memNotifications
}

func newFixture(t *testing.T, quotes staticQuotes) *fixture {
	t.Helper()
	logger := zap.NewNop()
	users := &memUsers{users: map[uint]*domain.User{
		1: {ID: 1, TelegramUserID: 101, Username: "alice"},
		2: {ID: 2, TelegramUserID: 102, Username: "bob"},
	}}
	alerts := &memAlerts{events: make(map[uint]int)}
	notifications := &memNotifications{}
	hub := NewHub(logger)

	policy, err := usecase.NewTriggerPolicy(usecase.PolicyContinuous)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	resolver := usecase.NewQuoteResolver(quotes, time.Second, 4, logger)
	evaluator := usecase.NewEvaluator(alerts, resolver, policy, logger)
	dispatcher := usecase.NewDispatcher(notifications, users, nil, hub, "", logger)
	monitor := usecase.NewMonitor(evaluator, dispatcher, logger)

	server := NewServer(
		usecase.NewUserUsecase(users, nil, stubTokens{}),
		usecase.NewAlertUsecase(alerts),
		monitor,
		usecase.NewNotificationUsecase(notifications, dispatcher),
		hub,
		Options{PollInterval: time.Hour, AdminToken: "admin-secret"},
		logger,
	)
	return &fixture{server: server, hub: hub, users: users, alerts: alerts, notifications: notifications}
}
