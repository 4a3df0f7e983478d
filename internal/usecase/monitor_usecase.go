package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"go.uber.org/zap"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Monitor exposes the "check now" operation and the per-session pass that
// feeds the dispatcher. At most one pass per owner runs at a time, across all
// of that owner's sessions and check requests.
type Monitor struct {
	evaluator  *Evaluator
	dispatcher *Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

func NewMonitor(evaluator *Evaluator, dispatcher *Dispatcher, logger *zap.Logger) *Monitor {
	return &Monitor{
		evaluator:  evaluator,
		dispatcher: dispatcher,
		logger:     logger,
		inFlight:   make(map[uint]struct{}),
	}
}

// Check evaluates the caller's alerts and returns what triggered on this pass.
// Only an unauthenticated principal yields an error. If the owner already has
// a pass running, the call is skipped and yields an empty result.
func (m *Monitor) Check(ctx context.Context, principal domain.Principal) ([]domain.TriggeredAlert, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !m.acquire(principal.UserID) {
		metrics.PassSkippedTotal.Inc()
		m.logger.Info("pass skipped, owner already has a pass in flight", zap.Uint("owner_id", principal.UserID))
		return []domain.TriggeredAlert{}, nil
	}
	defer m.release(principal.UserID)
	return m.evaluator.Evaluate(ctx, principal.UserID), nil
}

func (m *Monitor) acquire(ownerID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[ownerID]; busy {
		return false
	}
	m.inFlight[ownerID] = struct{}{}
	return true
}

func (m *Monitor) release(ownerID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, ownerID)
}

// PassFor builds the PassFunc a session poller runs: evaluate, then render
// results through the dispatcher.
func (m *Monitor) PassFor(principal domain.Principal, toaster domain.Toaster) PassFunc {
	return func(ctx context.Context) {
		triggered, err := m.Check(ctx, principal)
		if err != nil {
			m.logger.Warn("session pass rejected", zap.Error(err))
			return
		}
		m.dispatcher.DispatchTriggered(ctx, principal.UserID, toaster, triggered)
	}
}
