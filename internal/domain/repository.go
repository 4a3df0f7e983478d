package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*User, error)
	GetByID(ctx context.Context, userID uint) (*User, error)
	Create(ctx context.Context, user *User) error
	SetNotificationsGranted(ctx context.Context, userID uint, granted bool) error
	ListIDs(ctx context.Context) ([]uint, error)
}

type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	ListByOwner(ctx context.Context, ownerID uint) ([]Alert, error)
	ListActiveByOwner(ctx context.Context, ownerID uint) ([]Alert, error)
	SetStatus(ctx context.Context, ownerID uint, alertID uint, status AlertStatus) error
	Delete(ctx context.Context, ownerID uint, alertID uint) error
	AppendTriggerEvent(ctx context.Context, alertID uint, message string) (*TriggerEvent, error)
	TriggerStats(ctx context.Context, alertIDs []uint) (map[uint]TriggerStats, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, record *NotificationRecord) error
	ListByRecipient(ctx context.Context, recipientID uint, unreadOnly bool) ([]NotificationRecord, error)
	MarkRead(ctx context.Context, recipientID uint, id string) error
}

// QuoteProvider returns the latest price for a symbol on a venue. It must be
// safe for concurrent use.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string, venue Venue) (decimal.Decimal, error)
}
