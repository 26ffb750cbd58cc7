package bmkg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/cuacakota/weather-sampler/internal/region"
)

// DefaultBaseURL is the public BMKG forecast endpoint.
const DefaultBaseURL = "https://api.bmkg.go.id/publik/prakiraan-cuaca"

// ErrNoData means upstream was reachable and answered, but has no forecast
// for the region today. This is distinct from a transport failure.
var ErrNoData = errors.New("no forecast data for region")

// FetchError is a per-region transport failure: network error, timeout, or a
// non-success status. It is recoverable; the batch continues without the
// region.
type FetchError struct {
	RegionCode string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch forecast for %s: %v", e.RegionCode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KeyResolver maps a city code to the upstream adm4 query key.
type KeyResolver interface {
	WeatherKey(cityCode string) (string, error)
}

// BackoffConfig controls retry behaviour for upstream calls.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Client fetches forecasts from the BMKG public API. One request per region;
// calls are independent and safe to issue concurrently.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	backoff   BackoffConfig
	circuit   *gobreaker.CircuitBreaker
	keys      KeyResolver
}

// NewClient creates a BMKG client. An empty baseURL uses the public endpoint.
func NewClient(httpClient *http.Client, baseURL string, keys KeyResolver) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bmkg",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		baseURL:   baseURL,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		client:    httpClient,
		backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
		keys:    keys,
	}
}

// Fetch retrieves the raw forecast for a city. The city's code is first
// mapped to the upstream adm4 key via the resolver. Transport problems come
// back as *FetchError; a reachable upstream with an empty forecast comes back
// as ErrNoData.
func (c *Client) Fetch(ctx context.Context, r region.Region) (Forecast, error) {
	key, err := c.keys.WeatherKey(r.Code)
	if err != nil {
		return Forecast{}, &FetchError{RegionCode: r.Code, Err: err}
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("adm4", key)
		req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		return req, nil
	}

	resp, err := c.doWithResilience(ctx, buildRequest)
	if err != nil {
		return Forecast{}, &FetchError{RegionCode: r.Code, Err: err}
	}
	defer resp.Body.Close()

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Forecast{}, &FetchError{RegionCode: r.Code, Err: fmt.Errorf("decode payload: %w", err)}
	}

	if len(payload.Data) == 0 {
		return Forecast{}, fmt.Errorf("%w: %s", ErrNoData, r.Code)
	}

	slots := flattenSlots(payload.Data[0].Cuaca)
	if len(slots) == 0 {
		return Forecast{}, fmt.Errorf("%w: %s (empty cuaca)", ErrNoData, r.Code)
	}

	return Forecast{
		RegionCode:   r.Code,
		QueryKey:     key,
		LocationName: payload.Data[0].Lokasi.Kotkab,
		Slots:        slots,
	}, nil
}

// doWithResilience executes the request with retries, exponential backoff,
// and the circuit breaker.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})

		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}
