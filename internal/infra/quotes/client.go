package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NasaVasa/pricewatch/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrMissingPrice  = errors.New("quote has no price")
)

// Client fetches quotes from GET {base}/quotes/{venue}/{symbol}.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds a client whose transport timeout backs up the per-key
// context deadline set by the resolver.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) GetQuote(ctx context.Context, symbol string, venue domain.Venue) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/quotes/%s/%s", c.baseURL, url.PathEscape(string(venue)), url.PathEscape(symbol))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	request.Header.Set("Accept", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("quote request %s/%s: %w", venue, symbol, err)
	}
	defer response.Body.Close()

	c.logger.Debug(
		"quote request complete",
		zap.String("symbol", symbol),
		zap.String("venue", string(venue)),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode == http.StatusNotFound {
		return decimal.Decimal{}, ErrQuoteNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decimal.Decimal{}, fmt.Errorf("quote error: status %d", response.StatusCode)
	}

	var payload quoteResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode quote: %w", err)
	}
	if !payload.Price.Valid {
		return decimal.Decimal{}, ErrMissingPrice
	}
	return payload.Price.Decimal, nil
}
