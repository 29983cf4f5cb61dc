package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
)

// Rate converts a USD figure into units of Token.
// A negative Places keeps the full precision of the input.
type Rate struct {
	Token  core.Token
	PerUSD decimal.Decimal
	Places int32
}

// Convert returns the token amount for a USD string.
func (r Rate) Convert(usd string) (string, bool) {
	v, err := decimal.NewFromString(usd)
	if err != nil || !v.IsPositive() {
		return "", false
	}
	out := v.Mul(r.PerUSD)
	if r.Places >= 0 {
		return out.StringFixed(r.Places), true
	}
	return out.String(), true
}

// Converter produces the rate used for one resolution pass.
// Snapshot may perform I/O; Resolve itself never does.
type Converter interface {
	Snapshot(ctx context.Context) (Rate, error)
}

// FixedConverter quotes one unit of Token per USD.
type FixedConverter struct {
	Token core.Token
}

// NewFixedConverter returns the 1:1 dollar-to-stablecoin policy.
func NewFixedConverter(token core.Token) *FixedConverter {
	return &FixedConverter{Token: token}
}

func (c *FixedConverter) Snapshot(context.Context) (Rate, error) {
	return Rate{Token: c.Token, PerUSD: decimal.NewFromInt(1), Places: -1}, nil
}

// DefaultPriceURL is the public CoinGecko endpoint for the CELO/USD price.
const DefaultPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=celo&vs_currencies=usd"

const priceCacheKey = "celo-usd"

// LiveConverter quotes CELO per USD from a price feed. Prices are cached
// for TTL; a failed or empty quote falls back to FallbackPrice.
type LiveConverter struct {
	URL           string
	FallbackPrice decimal.Decimal
	TTL           time.Duration

	client *http.Client
	cache  *ristretto.Cache
	logger *zap.Logger
}

// NewLiveConverter creates a price-feed converter.
func NewLiveConverter(url string, fallback decimal.Decimal, ttl time.Duration, logger *zap.Logger) (*LiveConverter, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create price cache")
	}
	if url == "" {
		url = DefaultPriceURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveConverter{
		URL:           url,
		FallbackPrice: fallback,
		TTL:           ttl,
		client:        &http.Client{Timeout: 10 * time.Second},
		cache:         cache,
		logger:        logger,
	}, nil
}

func (c *LiveConverter) Snapshot(ctx context.Context) (Rate, error) {
	price := c.price(ctx)
	if !price.IsPositive() {
		return Rate{}, fmt.Errorf("no usable CELO price")
	}
	return Rate{
		Token:  core.TokenCELO,
		PerUSD: decimal.NewFromInt(1).Div(price),
		Places: 4,
	}, nil
}

func (c *LiveConverter) price(ctx context.Context) decimal.Decimal {
	if v, ok := c.cache.Get(priceCacheKey); ok {
		return v.(decimal.Decimal)
	}

	price, err := c.fetch(ctx)
	if err != nil || !price.IsPositive() {
		c.logger.Warn("price feed unavailable, using fallback",
			zap.Error(err), zap.String("fallback", c.FallbackPrice.String()))
		return c.FallbackPrice
	}

	c.cache.SetWithTTL(priceCacheKey, price, 1, c.TTL)
	c.cache.Wait()
	return price
}

func (c *LiveConverter) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "build price request")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "fetch price")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body struct {
		Celo struct {
			USD decimal.Decimal `json:"usd"`
		} `json:"celo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode price")
	}
	return body.Celo.USD, nil
}
