package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
)

type TokenIssuer interface {
	Issue(userID uint) (string, time.Time, error)
	Verify(token string) (uint, error)
}

type UserUsecase struct {
	users    domain.UserRepository
	platform domain.PlatformNotifier
	tokens   TokenIssuer
}

func NewUserUsecase(users domain.UserRepository, platform domain.PlatformNotifier, tokens TokenIssuer) *UserUsecase {
	return &UserUsecase{users: users, platform: platform, tokens: tokens}
}

func (u *UserUsecase) StartOrGetUser(ctx context.Context, telegramUserID int64, username string) (*domain.User, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	newUser := &domain.User{
		TelegramUserID: telegramUserID,
		Username:       username,
	}
	if err := u.users.Create(ctx, newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

// PrincipalForTelegram maps a Telegram account to the registered user.
func (u *UserUsecase) PrincipalForTelegram(ctx context.Context, telegramUserID int64) (domain.Principal, error) {
	user, err := u.users.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Principal{}, ErrUserNotRegistered
		}
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: user.ID}, nil
}

func (u *UserUsecase) EnableNotifications(ctx context.Context, principal domain.Principal) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	return u.platform.RequestPermission(ctx, principal.UserID)
}

func (u *UserUsecase) DisableNotifications(ctx context.Context, principal domain.Principal) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	return u.users.SetNotificationsGranted(ctx, principal.UserID, false)
}

func (u *UserUsecase) IssueSessionToken(principal domain.Principal) (string, time.Time, error) {
	if !principal.Authenticated() {
		return "", time.Time{}, ErrUnauthenticated
	}
	return u.tokens.Issue(principal.UserID)
}

// Authenticate turns a bearer token into a principal. A bad token or a
// deleted user is ErrUnauthenticated. When the user store is unreachable the
// signed subject is trusted so that callers degrade instead of logging out.
func (u *UserUsecase) Authenticate(ctx context.Context, token string) (domain.Principal, error) {
	if token == "" {
		return domain.Principal{}, ErrUnauthenticated
	}
	userID, err := u.tokens.Verify(token)
	if err != nil || userID == 0 {
		return domain.Principal{}, ErrUnauthenticated
	}
	if _, err := u.users.GetByID(ctx, userID); errors.Is(err, domain.ErrNotFound) {
		return domain.Principal{}, ErrUnauthenticated
	}
	return domain.Principal{UserID: userID}, nil
}
