package domain

import "time"

type User struct {
	ID                   uint
	TelegramUserID       int64
	Username             string
	NotificationsGranted bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            *time.Time
}

// Principal is the authenticated caller of an operation. The zero value is
// unauthenticated.
type Principal struct {
	UserID uint
}

func (p Principal) Authenticated() bool {
	return p.UserID != 0
}
