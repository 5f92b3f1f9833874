package rit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

const (
	defaultBaseURL = "http://localhost:9999"

	// El cliente RIT local no documenta límites; 50 req/s deja margen para
	// ~10 llamadas por tick a 4 ticks/s.
	defaultRatePerSec = 50
	defaultBurst      = 10

	baseRetryWait = 200 * time.Millisecond
)

// Options configura el Client.
type Options struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond float64
	// MaxRetries = 0 deja que cualquier error de transporte llegue al engine.
	MaxRetries    int
	Timeout       time.Duration
	PriceDecimals int32
}

// Client es el HTTP client del REST API de RIT con rate limiting y retries
// opcionales. Implementa ports.MarketData y ports.OrderGateway.
type Client struct {
	http          *http.Client
	baseURL       string
	apiKey        string
	limiter       *rate.Limiter
	maxRetries    int
	priceDecimals int32
}

// NewClient crea un Client. Los campos vacíos de opts toman defaults.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRatePerSec
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.PriceDecimals <= 0 {
		opts.PriceDecimals = 2
	}
	return &Client{
		http:          &http.Client{Timeout: opts.Timeout},
		baseURL:       opts.BaseURL,
		apiKey:        opts.APIKey,
		limiter:       rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), defaultBurst),
		maxRetries:    max(0, opts.MaxRetries),
		priceDecimals: opts.PriceDecimals,
	}
}

// get hace un GET autenticado y devuelve el body crudo.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return c.http.Do(req)
	})
}

// post hace un POST autenticado. RIT recibe los parámetros en la query string.
func (c *Client) post(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, query), nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return c.http.Do(req)
	})
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
}

// doWithRetry ejecuta la función con backoff exponencial. 401 nunca se
// reintenta: se devuelve domain.ErrAuth.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error)) ([]byte, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == c.maxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: API key rejected by RIT client", domain.ErrAuth)

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if attempt == c.maxRetries {
				return nil, fmt.Errorf("server error %d after %d retries: %s",
					resp.StatusCode, c.maxRetries, string(body))
			}
			slog.Warn("rit: retrying", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue

		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		if readErr != nil {
			return nil, fmt.Errorf("read response: %w", readErr)
		}
		return body, nil
	}
	return nil, fmt.Errorf("exhausted %d retries", c.maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
