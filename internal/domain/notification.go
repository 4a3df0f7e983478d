package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPermissionDenied    = errors.New("platform notifications not permitted")
	ErrPlatformUnsupported = errors.New("platform notifications unsupported")
)

// Channel is a delivery surface for persisted notifications.
type Channel string

const (
	ChannelInApp    Channel = "in_app"
	ChannelPlatform Channel = "platform"
)

func ParseChannel(input string) (Channel, bool) {
	switch Channel(input) {
	case ChannelInApp:
		return ChannelInApp, true
	case ChannelPlatform:
		return ChannelPlatform, true
	default:
		return "", false
	}
}

type Channels []Channel

func (c Channels) Has(channel Channel) bool {
	for _, candidate := range c {
		if candidate == channel {
			return true
		}
	}
	return false
}

type NotificationRecord struct {
	ID              string
	RecipientID     uint
	Title           string
	Message         string
	DeliverInApp    bool
	DeliverPlatform bool
	Read            bool
	CreatedAt       time.Time
}

// NotificationRequest describes a server-originated notification. An empty
// RecipientIDs with Broadcast set targets every registered user.
type NotificationRequest struct {
	RecipientIDs []uint
	Broadcast    bool
	Title        string
	Message      string
	Channels     Channels
}

type PlatformNotification struct {
	Title              string
	Body               string
	Icon               string
	RequireInteraction bool
}

// PlatformNotifier is the platform-level notification surface. Show must be a
// safe no-op returning ErrPermissionDenied when the user has not granted it.
type PlatformNotifier interface {
	RequestPermission(ctx context.Context, userID uint) error
	Permitted(ctx context.Context, userID uint) bool
	Show(ctx context.Context, userID uint, notification PlatformNotification) error
}

type Toast struct {
	AlertID       uint   `json:"alert_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	ObservedPrice string `json:"observed_price"`
	Target        string `json:"target"`
	TriggerCount  int    `json:"trigger_count"`
}

// Toaster renders non-persisted in-session alerts.
type Toaster interface {
	Toast(ctx context.Context, toast Toast) error
}

// InAppPublisher pushes freshly persisted in-app notifications to live sessions.
type InAppPublisher interface {
	PublishInApp(ctx context.Context, record NotificationRecord) error
}
