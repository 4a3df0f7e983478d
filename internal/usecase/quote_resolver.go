package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/NasaVasa/pricewatch/internal/infra/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultQuoteTimeout     = 8 * time.Second
	defaultQuoteConcurrency = 8
)

var errNonPositivePrice = errors.New("non-positive price")

// QuoteResolver resolves a batch of quote keys concurrently. Keys that fail to
// resolve are left out of the result.
type QuoteResolver struct {
	provider    domain.QuoteProvider
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

func NewQuoteResolver(provider domain.QuoteProvider, timeout time.Duration, concurrency int, logger *zap.Logger) *QuoteResolver {
	if timeout <= 0 {
		timeout = defaultQuoteTimeout
	}
	if concurrency <= 0 {
		concurrency = defaultQuoteConcurrency
	}
	return &QuoteResolver{provider: provider, timeout: timeout, concurrency: concurrency, logger: logger}
}

func (r *QuoteResolver) Resolve(ctx context.Context, keys []domain.QuoteKey) map[domain.QuoteKey]decimal.Decimal {
	unique := dedupKeys(keys)
	prices := make(map[domain.QuoteKey]decimal.Decimal, len(unique))
	if len(unique) == 0 {
		return prices
	}

	var mu sync.Mutex
	var group errgroup.Group
	group.SetLimit(r.concurrency)
	for _, key := range unique {
		key := key
		group.Go(func() error {
			price, err := r.lookup(ctx, key)
			if err != nil {
				metrics.QuoteLookupsTotal.WithLabelValues(string(key.Venue), "error").Inc()
				r.logger.Warn("quote lookup failed", zap.String("symbol", key.Symbol), zap.String("venue", string(key.Venue)), zap.Error(err))
				return nil
			}
			metrics.QuoteLookupsTotal.WithLabelValues(string(key.Venue), "ok").Inc()
			mu.Lock()
			prices[key] = price
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return prices
}

func (r *QuoteResolver) lookup(ctx context.Context, key domain.QuoteKey) (price decimal.Decimal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("quote provider panic: %v", rec)
		}
	}()

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	price, err = r.provider.GetQuote(lookupCtx, key.Symbol, key.Venue)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !price.IsPositive() {
		return decimal.Decimal{}, errNonPositivePrice
	}
	return price, nil
}

func dedupKeys(keys []domain.QuoteKey) []domain.QuoteKey {
	seen := make(map[domain.QuoteKey]struct{}, len(keys))
	unique := make([]domain.QuoteKey, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	return unique
}
