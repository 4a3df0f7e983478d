package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
)

const (
	PolicyContinuous = "continuous"
	PolicyCooldown   = "cooldown"
	PolicySingleShot = "single_shot"
)

// TriggerPolicy decides whether a crossing that holds right now is recorded.
type TriggerPolicy interface {
	Allow(alert domain.Alert, stats domain.TriggerStats, now time.Time) bool
}

func NewTriggerPolicy(name string) (TriggerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyContinuous:
		return ContinuousPolicy{}, nil
	case PolicyCooldown:
		return CooldownPolicy{}, nil
	case PolicySingleShot:
		return SingleShotPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown trigger policy %q", name)
	}
}

// ContinuousPolicy records every crossing; TriggerLimit and CooldownSeconds
// are ignored.
type ContinuousPolicy struct{}

func (ContinuousPolicy) Allow(domain.Alert, domain.TriggerStats, time.Time) bool {
	return true
}

// CooldownPolicy honours CooldownSeconds since the last event and stops once
// TriggerLimit events exist. Zero values disable each gate.
type CooldownPolicy struct{}

func (CooldownPolicy) Allow(alert domain.Alert, stats domain.TriggerStats, now time.Time) bool {
	if alert.TriggerLimit > 0 && stats.Count >= alert.TriggerLimit {
		return false
	}
	if alert.CooldownSeconds > 0 && !stats.LastTriggeredAt.IsZero() {
		if now.Sub(stats.LastTriggeredAt) < time.Duration(alert.CooldownSeconds)*time.Second {
			return false
		}
	}
	return true
}

type SingleShotPolicy struct{}

func (SingleShotPolicy) Allow(_ domain.Alert, stats domain.TriggerStats, _ time.Time) bool {
	return stats.Count == 0
}
