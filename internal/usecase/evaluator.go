package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PriceResolver interface {
	Resolve(ctx context.Context, keys []domain.QuoteKey) map[domain.QuoteKey]decimal.Decimal
}

// Evaluator runs one pass over a single owner's active alerts.
type Evaluator struct {
	alerts   domain.AlertRepository
	resolver PriceResolver
	policy   TriggerPolicy
	logger   *zap.Logger
	now      func() time.Time
}

func NewEvaluator(alerts domain.AlertRepository, resolver PriceResolver, policy TriggerPolicy, logger *zap.Logger) *Evaluator {
	if policy == nil {
		policy = ContinuousPolicy{}
	}
	return &Evaluator{alerts: alerts, resolver: resolver, policy: policy, logger: logger, now: time.Now}
}

// Evaluate never returns an error: collaborator outages produce an empty
// result so the caller's loop keeps running.
func (e *Evaluator) Evaluate(ctx context.Context, ownerID uint) []domain.TriggeredAlert {
	alerts, err := e.alerts.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		metrics.PassesTotal.WithLabelValues("store_error").Inc()
		e.logger.Warn("failed to load active alerts", zap.Uint("owner_id", ownerID), zap.Error(err))
		return []domain.TriggeredAlert{}
	}

	owned := make([]domain.Alert, 0, len(alerts))
	keys := make([]domain.QuoteKey, 0, len(alerts))
	for _, alert := range alerts {
		if alert.OwnerID != ownerID {
			e.logger.Error("store returned foreign alert", zap.Uint("owner_id", ownerID), zap.Uint("alert_id", alert.ID), zap.Uint("alert_owner_id", alert.OwnerID))
			continue
		}
		if alert.Status != domain.AlertStatusActive {
			continue
		}
		owned = append(owned, alert)
		keys = append(keys, alert.Key())
	}
	if len(owned) == 0 {
		metrics.PassesTotal.WithLabelValues("empty").Inc()
		return []domain.TriggeredAlert{}
	}

	prices := e.resolver.Resolve(ctx, keys)

	crossed := make([]domain.Alert, 0, len(owned))
	observed := make(map[uint]decimal.Decimal, len(owned))
	for _, alert := range owned {
		price, ok := prices[alert.Key()]
		if !ok {
			e.logger.Debug("alert skipped, quote unresolved", zap.Uint("alert_id", alert.ID), zap.String("key", alert.Key().String()))
			continue
		}
		if alert.Condition.Crossed(price, alert.Target) {
			crossed = append(crossed, alert)
			observed[alert.ID] = price
		}
	}
	if len(crossed) == 0 {
		metrics.PassesTotal.WithLabelValues("ok").Inc()
		return []domain.TriggeredAlert{}
	}

	ids := make([]uint, 0, len(crossed))
	for _, alert := range crossed {
		ids = append(ids, alert.ID)
	}
	stats, err := e.alerts.TriggerStats(ctx, ids)
	if err != nil {
		metrics.PassesTotal.WithLabelValues("store_error").Inc()
		e.logger.Warn("failed to load trigger stats", zap.Uint("owner_id", ownerID), zap.Error(err))
		return []domain.TriggeredAlert{}
	}

	now := e.now()
	triggered := make([]domain.TriggeredAlert, 0, len(crossed))
	for _, alert := range crossed {
		prior := stats[alert.ID]
		if !e.policy.Allow(alert, prior, now) {
			e.logger.Debug("trigger suppressed by policy", zap.Uint("alert_id", alert.ID), zap.Int("count", prior.Count))
			continue
		}

		price := observed[alert.ID]
		message := triggerMessage(alert, price)
		event, err := e.alerts.AppendTriggerEvent(ctx, alert.ID, message)
		if err != nil {
			e.logger.Warn("failed to record trigger event", zap.Uint("alert_id", alert.ID), zap.Error(err))
			continue
		}

		metrics.TriggersTotal.WithLabelValues(string(alert.Venue), string(alert.Condition)).Inc()
		triggered = append(triggered, domain.TriggeredAlert{
			Alert:         alert,
			ObservedPrice: price,
			TriggerCount:  prior.Count + 1,
			Message:       message,
			TriggeredAt:   event.TriggeredAt,
		})
	}

	metrics.PassesTotal.WithLabelValues("ok").Inc()
	e.logger.Info("evaluation pass complete", zap.Uint("owner_id", ownerID), zap.Int("alerts", len(owned)), zap.Int("triggered", len(triggered)))
	return triggered
}

func triggerMessage(alert domain.Alert, price decimal.Decimal) string {
	direction := "rose to"
	if alert.Condition == domain.ConditionBelow {
		direction = "fell to"
	}
	return fmt.Sprintf("%s (%s) %s %s, target %s %s", alert.Symbol, alert.Venue, direction, price.String(), alert.Condition, alert.Target.String())
}
