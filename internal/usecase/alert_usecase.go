package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotRegistered = errors.New("user not registered")
	ErrAlertNotFound     = errors.New("alert not found")
)

const maxSymbolLen = 32

// ValidationError reports a malformed field in alert input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type AlertInput struct {
	Symbol          string
	Venue           string
	Condition       string
	Target          string
	TriggerLimit    int
	CooldownSeconds int
}

type AlertUsecase struct {
	alerts domain.AlertRepository
}

func NewAlertUsecase(alerts domain.AlertRepository) *AlertUsecase {
	return &AlertUsecase{alerts: alerts}
}

func (u *AlertUsecase) CreateAlert(ctx context.Context, principal domain.Principal, input AlertInput) (*domain.Alert, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}

	alert, err := validateAlertInput(input)
	if err != nil {
		return nil, err
	}
	alert.OwnerID = principal.UserID
	alert.Status = domain.AlertStatusActive

	if err := u.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (u *AlertUsecase) ListAlerts(ctx context.Context, principal domain.Principal) ([]domain.Alert, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return u.alerts.ListByOwner(ctx, principal.UserID)
}

func (u *AlertUsecase) PauseAlert(ctx context.Context, principal domain.Principal, alertID uint) error {
	return u.setStatus(ctx, principal, alertID, domain.AlertStatusPaused)
}

func (u *AlertUsecase) ResumeAlert(ctx context.Context, principal domain.Principal, alertID uint) error {
	return u.setStatus(ctx, principal, alertID, domain.AlertStatusActive)
}

func (u *AlertUsecase) DeleteAlert(ctx context.Context, principal domain.Principal, alertID uint) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	if err := u.alerts.Delete(ctx, principal.UserID, alertID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func (u *AlertUsecase) setStatus(ctx context.Context, principal domain.Principal, alertID uint, status domain.AlertStatus) error {
	if !principal.Authenticated() {
		return ErrUnauthenticated
	}
	if err := u.alerts.SetStatus(ctx, principal.UserID, alertID, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrAlertNotFound
		}
		return err
	}
	return nil
}

func validateAlertInput(input AlertInput) (*domain.Alert, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Reason: "required"}
	}
	if len(symbol) > maxSymbolLen || !validSymbol(symbol) {
		return nil, &ValidationError{Field: "symbol", Reason: "must be up to 32 letters, digits, '.' or '-'"}
	}

	venue, err := domain.ParseVenue(input.Venue)
	if err != nil {
		return nil, &ValidationError{Field: "venue", Reason: "must be KRX or NASDAQ"}
	}

	condition, err := domain.ParseCondition(input.Condition)
	if err != nil {
		return nil, &ValidationError{Field: "condition", Reason: "must be ABOVE or BELOW"}
	}

	target, err := decimal.NewFromString(strings.TrimSpace(input.Target))
	if err != nil {
		return nil, &ValidationError{Field: "target", Reason: "must be a decimal number"}
	}
	if !target.IsPositive() {
		return nil, &ValidationError{Field: "target", Reason: "must be greater than zero"}
	}

	if input.TriggerLimit < 0 {
		return nil, &ValidationError{Field: "trigger_limit", Reason: "must not be negative"}
	}
	if input.CooldownSeconds < 0 {
		return nil, &ValidationError{Field: "cooldown_seconds", Reason: "must not be negative"}
	}

	return &domain.Alert{
		Symbol:          symbol,
		Venue:           venue,
		Condition:       condition,
		Target:          target,
		TriggerLimit:    input.TriggerLimit,
		CooldownSeconds: input.CooldownSeconds,
	}, nil
}

func validSymbol(symbol string) bool {
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
