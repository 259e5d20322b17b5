package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

const rateCacheTTL = 12 * time.Hour

// Service fetches and caches exchange rates against a base currency. Rates
// are refreshed lazily on access once the cache TTL passes; fetch failures
// keep serving the last good snapshot.
type Service struct {
	client  *http.Client
	baseURL string

	mu        sync.RWMutex
	base      string
	cached    map[string]float64
	lastFetch time.Time
}

type Option func(*Service)

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.client = c
	}
}

// WithBaseURL overrides the rates API endpoint, used in tests.
func WithBaseURL(url string) Option {
	return func(s *Service) {
		s.baseURL = url
	}
}

// NewService creates a rate service for the given base currency code.
func NewService(base string, opts ...Option) *Service {
	if !IsValidCode(base) {
		base = "USD"
	}
	s := &Service{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://open.er-api.com/v6/latest",
		base:    base,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rates returns the current rate table keyed by currency code, relative to
// the service's base currency. The base currency itself always maps to 1.
func (s *Service) Rates(ctx context.Context) map[string]float64 {
	s.mu.RLock()
	if time.Since(s.lastFetch) < rateCacheTTL && s.cached != nil {
		rates := s.cached
		s.mu.RUnlock()
		return rates
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock.
	if time.Since(s.lastFetch) < rateCacheTTL && s.cached != nil {
		return s.cached
	}

	rates, err := s.fetch(ctx)
	if err != nil {
		// Serve stale rates rather than none.
		if s.cached != nil {
			return s.cached
		}
		return map[string]float64{s.base: 1}
	}

	s.cached = rates
	s.lastFetch = time.Now()
	return s.cached
}

// Base returns the base currency code.
func (s *Service) Base() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

// SetBase changes the base currency and invalidates the cache.
func (s *Service) SetBase(code string) {
	if !IsValidCode(code) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if code != s.base {
		s.base = code
		s.cached = nil
	}
}

type apiResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (s *Service) fetch(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/%s", s.baseURL, s.base)

	var rates map[string]float64
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return retry.RetryableError(fmt.Errorf("rates API returned status %d", resp.StatusCode))
		}

		var apiResp apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("decode rates response: %w", err)
		}
		if apiResp.Result != "success" || len(apiResp.Rates) == 0 {
			return fmt.Errorf("rates API result %q", apiResp.Result)
		}
		rates = apiResp.Rates
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	return rates, nil
}
