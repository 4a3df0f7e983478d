package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownVenue     = errors.New("unknown venue")
	ErrUnknownCondition = errors.New("unknown condition")
)

// Venue is the market an instrument trades on.
type Venue string

const (
	VenueKRX    Venue = "KRX"
	VenueNASDAQ Venue = "NASDAQ"
)

func ParseVenue(input string) (Venue, error) {
	switch Venue(strings.ToUpper(strings.TrimSpace(input))) {
	case VenueKRX:
		return VenueKRX, nil
	case VenueNASDAQ:
		return VenueNASDAQ, nil
	default:
		return "", ErrUnknownVenue
	}
}

type Condition string

const (
	ConditionAbove Condition = "ABOVE"
	ConditionBelow Condition = "BELOW"
)

// ParseCondition accepts the condition names and the comparator aliases
// (>=, >, <=, <).
func ParseCondition(input string) (Condition, error) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "ABOVE", ">=", ">":
		return ConditionAbove, nil
	case "BELOW", "<=", "<":
		return ConditionBelow, nil
	default:
		return "", ErrUnknownCondition
	}
}

// Crossed reports whether price satisfies the condition against target.
func (c Condition) Crossed(price, target decimal.Decimal) bool {
	switch c {
	case ConditionAbove:
		return price.Cmp(target) >= 0
	case ConditionBelow:
		return price.Cmp(target) <= 0
	default:
		return false
	}
}

type AlertStatus string

const (
	AlertStatusActive AlertStatus = "ACTIVE"
	AlertStatusPaused AlertStatus = "PAUSED"
)

// Alert stays ACTIVE after it triggers; there is no terminal state.
type Alert struct {
	ID              uint
	OwnerID         uint
	Symbol          string
	Venue           Venue
	Condition       Condition
	Target          decimal.Decimal
	Status          AlertStatus
	TriggerLimit    int
	CooldownSeconds int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Alert) Key() QuoteKey {
	return QuoteKey{Symbol: a.Symbol, Venue: a.Venue}
}

type QuoteKey struct {
	Symbol string
	Venue  Venue
}

func (k QuoteKey) String() string {
	return string(k.Venue) + ":" + k.Symbol
}

type TriggerEvent struct {
	ID          uint
	AlertID     uint
	Message     string
	TriggeredAt time.Time
}

type TriggerStats struct {
	Count           int
	LastTriggeredAt time.Time
}

// TriggeredAlert is one crossing observed during a single pass.
type TriggeredAlert struct {
	Alert         Alert
	ObservedPrice decimal.Decimal
	TriggerCount  int
	Message       string
	TriggeredAt   time.Time
}
