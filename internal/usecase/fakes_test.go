package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store unavailable")

type fakeAlertRepo struct {
	mu        sync.Mutex
	alerts    []domain.Alert
	events    []domain.TriggerEvent
	nextID    uint
	listErr   error
	statErr   error
	statDelay time.Duration
	listed    []uint
	now       time.Time
}

func newFakeAlertRepo(alerts ...domain.Alert) *fakeAlertRepo {
	return &fakeAlertRepo{alerts: alerts, nextID: 1000, now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (r *fakeAlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	alert.ID = r.nextID
	r.alerts = append(r.alerts, *alert)
	return nil
}

func (r *fakeAlertRepo) ListByOwner(_ context.Context, ownerID uint) ([]domain.Alert, error) {
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

func (r *fakeAlertRepo) ListActiveByOwner(_ context.Context, ownerID uint) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listed = append(r.listed, ownerID)
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Alert
	for _, alert := range r.alerts {
		if alert.OwnerID == ownerID && alert.Status == domain.AlertStatusActive {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) SetStatus(_ context.Context, ownerID uint, alertID uint, status domain.AlertStatus) error {
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

func (r *fakeAlertRepo) Delete(_ context.Context, ownerID uint, alertID uint) error {
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

func (r *fakeAlertRepo) AppendTriggerEvent(_ context.Context, alertID uint, message string) (*domain.TriggerEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event := domain.TriggerEvent{ID: uint(len(r.events) + 1), AlertID: alertID, Message: message, TriggeredAt: r.now}
	r.events = append(r.events, event)
	return &event, nil
}

func (r *fakeAlertRepo) TriggerStats(_ context.Context, alertIDs []uint) (map[uint]domain.TriggerStats, error) {
	r.mu.Lock()
	delay := r.statDelay
	r.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statErr != nil {
		return nil, r.statErr
	}
	stats := make(map[uint]domain.TriggerStats, len(alertIDs))
	for _, id := range alertIDs {
		for _, event := range r.events {
			if event.AlertID != id {
				continue
			}
			s := stats[id]
			s.Count++
			if event.TriggeredAt.After(s.LastTriggeredAt) {
				s.LastTriggeredAt = event.TriggeredAt
			}
			stats[id] = s
		}
	}
	return stats, nil
}

func (r *fakeAlertRepo) listedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listed)
}

func (r *fakeAlertRepo) eventsFor(alertID uint) []domain.TriggerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TriggerEvent
	for _, event := range r.events {
		if event.AlertID == alertID {
			out = append(out, event)
		}
	}
	return out
}

type fakeQuoteProvider struct {
	mu     sync.Mutex
	prices map[domain.QuoteKey]decimal.Decimal
	errs   map[domain.QuoteKey]error
	calls  map[domain.QuoteKey]int
	delay  time.Duration
}

func newFakeQuoteProvider() *fakeQuoteProvider {
	return &fakeQuoteProvider{
		prices: make(map[domain.QuoteKey]decimal.Decimal),
		errs:   make(map[domain.QuoteKey]error),
		calls:  make(map[domain.QuoteKey]int),
	}
}

func (p *fakeQuoteProvider) set(symbol string, venue domain.Venue, price string) {
	p.prices[domain.QuoteKey{Symbol: symbol, Venue: venue}] = decimal.RequireFromString(price)
}

func (p *fakeQuoteProvider) fail(symbol string, venue domain.Venue, err error) {
	p.errs[domain.QuoteKey{Symbol: symbol, Venue: venue}] = err
}

func (p *fakeQuoteProvider) GetQuote(ctx context.Context, symbol string, venue domain.Venue) (decimal.Decimal, error) {
	key := domain.QuoteKey{Symbol: symbol, Venue: venue}
	p.mu.Lock()
	p.calls[key]++
	err := p.errs[key]
	price, ok := p.prices[key]
	delay := p.delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return decimal.Decimal{}, ctx.Err()
		}
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !ok {
		return decimal.Decimal{}, errors.New("unknown symbol")
	}
	return price, nil
}

func (p *fakeQuoteProvider) callsFor(symbol string, venue domain.Venue) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[domain.QuoteKey{Symbol: symbol, Venue: venue}]
}

type fakeToaster struct {
	mu     sync.Mutex
	toasts []domain.Toast
	err    error
}

func (t *fakeToaster) Toast(_ context.Context, toast domain.Toast) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.toasts = append(t.toasts, toast)
	return nil
}

func (t *fakeToaster) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.toasts)
}

type fakePlatform struct {
	mu        sync.Mutex
	granted   map[uint]bool
	shown     []domain.PlatformNotification
	showErr   error
	panicShow bool
}

func newFakePlatform(granted ...uint) *fakePlatform {
	p := &fakePlatform{granted: make(map[uint]bool)}
	for _, id := range granted {
		p.granted[id] = true
	}
	return p
}

func (p *fakePlatform) RequestPermission(_ context.Context, userID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted[userID] = true
	return nil
}

func (p *fakePlatform) Permitted(_ context.Context, userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted[userID]
}

func (p *fakePlatform) Show(_ context.Context, userID uint, notification domain.PlatformNotification) error {
	if p.panicShow {
		panic("platform exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.showErr != nil {
		return p.showErr
	}
	if !p.granted[userID] {
		return domain.ErrPermissionDenied
	}
	p.shown = append(p.shown, notification)
	return nil
}

func (p *fakePlatform) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.shown)
}

type fakeNotificationRepo struct {
	mu        sync.Mutex
	records   []domain.NotificationRecord
	createErr error
}

func (r *fakeNotificationRepo) Create(_ context.Context, record *domain.NotificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID uint, unreadOnly bool) ([]domain.NotificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationRecord
	for _, record := range r.records {
		if record.RecipientID != recipientID || !record.DeliverInApp {
			continue
		}
		if unreadOnly && record.Read {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, recipientID uint, id string) error {
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

type fakeInApp struct {
	mu        sync.Mutex
	published []domain.NotificationRecord
}

func (p *fakeInApp) PublishInApp(_ context.Context, record domain.NotificationRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, record)
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[uint]*domain.User
	nextID  uint
	readErr error
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*domain.User)}
	for i := range users {
		user := users[i]
		r.users[user.ID] = &user
		if user.ID > r.nextID {
			r.nextID = user.ID
		}
	}
	return r
}

func (r *fakeUserRepo) GetByTelegramID(_ context.Context, telegramUserID int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	for _, user := range r.users {
		if user.TelegramUserID == telegramUserID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID uint) (*domain.User, error) {
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

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) SetNotificationsGranted(_ context.Context, userID uint, granted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	user.NotificationsGranted = granted
	return nil
}

func (r *fakeUserRepo) ListIDs(_ context.Context) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func testAlert(id, owner uint, symbol string, venue domain.Venue, condition domain.Condition, target string) domain.Alert {
	return domain.Alert{
		ID:        id,
		OwnerID:   owner,
		Symbol:    symbol,
		Venue:     venue,
		Condition: condition,
		Target:    decimal.RequireFromString(target),
		Status:    domain.AlertStatusActive,
	}
}
