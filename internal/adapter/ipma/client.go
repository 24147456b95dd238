// Package ipma is the HTTP client for IPMA's open-data feeds.
package ipma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/meteopt/aviso/internal/domain"
	"github.com/meteopt/aviso/internal/observability"
)

// Fetch error taxonomy. Both are recoverable; callers keep serving the prior
// index on failure.
var (
	// ErrNetwork covers transport failures and non-2xx responses.
	ErrNetwork = errors.New("ipma: network error")
	// ErrDecode covers response bodies that are not valid JSON.
	ErrDecode = errors.New("ipma: decode error")
	// ErrNoForecastID is returned when a forecast is requested without an id;
	// no request is made.
	ErrNoForecastID = errors.New("ipma: no forecast id")
)

// Client fetches the warnings and daily forecast feeds.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an IPMA open-data client. baseURL is the open-data root
// without a trailing slash, e.g. https://api.ipma.pt/open-data.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchWarnings retrieves the countrywide active-warnings feed and decodes it
// into domain records, preserving feed order.
func (c *Client) FetchWarnings(ctx context.Context) ([]domain.Warning, error) {
	u := c.baseURL + "/forecast/warnings/warnings_www.json"

	body, err := c.get(ctx, u, "warnings")
	if err != nil {
		return nil, err
	}

	var feed []domain.FeedWarning
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: warnings feed: %v", ErrDecode, err)
	}

	warnings := make([]domain.Warning, 0, len(feed))
	for _, fw := range feed {
		warnings = append(warnings, fw.Decode())
	}
	return warnings, nil
}

// FetchForecast retrieves the daily forecast payload for one district's
// forecast id. The payload is validated only as being JSON; its schema is
// passed through opaquely. An empty id fails immediately without a request.
func (c *Client) FetchForecast(ctx context.Context, forecastID string) (json.RawMessage, error) {
	if forecastID == "" {
		return nil, ErrNoForecastID
	}

	u := fmt.Sprintf("%s/forecast/meteorology/cities/daily/%s.json", c.baseURL, forecastID)

	body, err := c.get(ctx, u, "forecast")
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: forecast %s: invalid JSON", ErrDecode, forecastID)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, fullURL, feed string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrNetwork, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FeedRequestDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %s request: %v", ErrNetwork, feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrNetwork, feed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s read body: %v", ErrNetwork, feed, err)
	}

	c.logger.Debug("ipma fetch complete", "feed", feed, "bytes", len(body))
	return body, nil
}
