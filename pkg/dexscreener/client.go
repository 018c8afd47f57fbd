// Package dexscreener fetches pair market data with a short-lived cache.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tokenintel/internal/models"
)

// Client caches the pair snapshot for a TTL and falls back to the last good
// value when a refresh fails.
type Client struct {
	baseURL string
	pair    string
	http    *http.Client
	ttl     time.Duration

	mu     sync.RWMutex
	cached models.PriceContext
	ok     bool
}

// NewClient builds a client for one pair address.
func NewClient(baseURL, pair string, ttl, timeout time.Duration) *Client {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		pair:    pair,
		ttl:     ttl,
		http:    &http.Client{Timeout: timeout},
	}
}

type pairPayload struct {
	Pair *struct {
		PriceNative string `json:"priceNative"`
		PriceUsd    string `json:"priceUsd"`
		Liquidity   struct {
			Usd float64 `json:"usd"`
		} `json:"liquidity"`
		Fdv    float64 `json:"fdv"`
		Volume struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
		PriceChange struct {
			H24 float64 `json:"h24"`
		} `json:"priceChange"`
	} `json:"pair"`
}

// PriceContext returns the cached snapshot when fresh, otherwise refreshes.
// A failed refresh returns the stale snapshot when one exists.
func (c *Client) PriceContext(ctx context.Context) (models.PriceContext, error) {
	c.mu.RLock()
	if c.ok && time.Since(c.cached.FetchedAt) < c.ttl {
		snap := c.cached
		c.mu.RUnlock()
		return snap, nil
	}
	c.mu.RUnlock()

	snap, err := c.fetch(ctx)
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.ok {
			log.Warnf("price refresh failed, using stale snapshot: %v", err)
			return c.cached, nil
		}
		return models.PriceContext{}, err
	}

	c.mu.Lock()
	c.cached = snap
	c.ok = true
	c.mu.Unlock()
	return snap, nil
}

func (c *Client) fetch(ctx context.Context) (models.PriceContext, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.PriceContext{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.PriceContext{}, fmt.Errorf("fetch pair %s: %w", c.pair, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.PriceContext{}, fmt.Errorf("fetch pair %s: status %d", c.pair, resp.StatusCode)
	}

	var payload pairPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.PriceContext{}, fmt.Errorf("decode pair payload: %w", err)
	}
	if payload.Pair == nil {
		return models.PriceContext{}, fmt.Errorf("pair %s not listed", c.pair)
	}

	priceNative, _ := strconv.ParseFloat(payload.Pair.PriceNative, 64)
	priceUsd, _ := strconv.ParseFloat(payload.Pair.PriceUsd, 64)
	return models.PriceContext{
		PriceNative:    priceNative,
		PriceUsd:       priceUsd,
		LiquidityUsd:   payload.Pair.Liquidity.Usd,
		Fdv:            payload.Pair.Fdv,
		Volume24h:      payload.Pair.Volume.H24,
		PriceChange24h: payload.Pair.PriceChange.H24,
		FetchedAt:      time.Now(),
	}, nil
}
