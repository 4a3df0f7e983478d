package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"go.uber.org/zap"
)

const DefaultPollInterval = 30 * time.Second

type PollerState string

const (
	PollerIdle    PollerState = "idle"
	PollerPolling PollerState = "polling"
)

// PassFunc runs one evaluation pass. It receives a context that is not
// cancelled when the poller stops.
type PassFunc func(ctx context.Context)

// Poller drives passes on a fixed interval while a session is active. A tick
// that arrives while the previous pass is still running is skipped.
type Poller struct {
	interval time.Duration
	pass     PassFunc
	logger   *zap.Logger

	mu     sync.Mutex
	state  PollerState
	cancel context.CancelFunc
	done   chan struct{}

	inFlight atomic.Bool
	skipped  atomic.Uint64
}

func NewPoller(interval time.Duration, pass PassFunc, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{interval: interval, pass: pass, logger: logger, state: PollerIdle}
}

// Start moves idle -> polling: one pass runs immediately, then one per
// interval. It reports false if the poller was already polling.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	if p.state == PollerPolling {
		p.mu.Unlock()
		return false
	}
	childCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.state = PollerPolling
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.run(childCtx)
	}()
	return true
}

// Stop moves polling -> idle and disarms the timer. A pass already in flight
// keeps running to completion.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == PollerIdle {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.state = PollerIdle
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		p.logger.Warn("timeout stopping poller")
	}
}

func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Skipped returns how many ticks were dropped by the in-flight guard.
func (p *Poller) Skipped() uint64 {
	return p.skipped.Load()
}

func (p *Poller) run(ctx context.Context) {
	p.fire(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fire(ctx)
		}
	}
}

func (p *Poller) fire(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		metrics.PassSkippedTotal.Inc()
		p.logger.Info("pass skipped, previous pass still in flight")
		return
	}

	passCtx := context.WithoutCancel(ctx)
	go func() {
		defer p.inFlight.Store(false)
		defer func() {
			if rec := recover(); rec != nil {
				p.logger.Error("pass panicked", zap.Any("panic", rec))
			}
		}()
		p.pass(passCtx)
	}()
}
