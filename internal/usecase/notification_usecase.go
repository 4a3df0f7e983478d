package usecase

import (
	"context"
	"errors"

	"github.com/NasaVasa/pricewatch/internal/domain"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationUsecase struct {
	notifications domain.NotificationRepository
	dispatcher    *Dispatcher
}

func NewNotificationUsecase(notifications domain.NotificationRepository, dispatcher *Dispatcher) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications, dispatcher: dispatcher}
}

// List returns the caller's in-app notifications, newest first.
func (u *NotificationUsecase) List(ctx context.Context, principal domain.Principal, unreadOnly bool) ([]domain.NotificationRecord, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return u.notifications.ListByRecipient(ctx, principal.UserID, unreadOnly)
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, principal domain.Principal, id string) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	if err := u.notifications.MarkRead(ctx, principal.UserID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (u *NotificationUsecase) Send(ctx context.Context, request domain.NotificationRequest) ([]domain.NotificationRecord, error) {
	return u.dispatcher.Publish(ctx, request)
}
