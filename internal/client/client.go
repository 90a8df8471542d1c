package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-search/internal/models"
	"github.com/kjstillabower/weather-search/internal/observability"
)

type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, city string, unit models.Unit) (models.WeatherResult, error)
}

var (
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrNoResponse        = errors.New("no response from server")
	ErrRequestSetup      = errors.New("request setup failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned when the upstream answered with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
}

// NewOpenWeatherClient builds a client for the current-weather endpoint at apiURL.
// Each lookup is a single attempt bounded by timeout.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// GetCurrentWeather looks up city under unit. The city is forwarded verbatim.
// Errors wrap ErrRequestSetup, ErrNoResponse, ErrMalformedResponse or are a *StatusError;
// use ClassifyError to map them to an ErrorKind.
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, city string, unit models.Unit) (models.WeatherResult, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, city, unit)
	if err != nil {
		observe(string(ErrorKindRequestSetup), start)
		return models.WeatherResult{}, fmt.Errorf("%w: %v", ErrRequestSetup, err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observe(string(ErrorKindNoResponse), start)
		return models.WeatherResult{}, fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		observe(statusLabel(resp.StatusCode), start)
		return models.WeatherResult{}, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(string(ErrorKindNoResponse), start)
		return models.WeatherResult{}, fmt.Errorf("%w: read response body: %w", ErrNoResponse, err)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		observe(string(ErrorKindAPIError), start)
		return models.WeatherResult{}, fmt.Errorf("%w: parse response: %v", ErrMalformedResponse, err)
	}

	observe("success", start)
	return mapResponse(apiResp, unit), nil
}

func observe(status string, start time.Time) {
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city string, unit models.Unit) (*http.Request, error) {
	if unit != models.UnitMetric && unit != models.UnitImperial {
		return nil, fmt.Errorf("unsupported unit %q", unit)
	}

	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host required", c.apiURL)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: unsupported scheme %q", c.apiURL, baseURL.Scheme)
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("units", string(unit))
	params.Set("appid", c.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func mapResponse(apiResp openWeatherResponse, unit models.Unit) models.WeatherResult {
	condition := ""
	if len(apiResp.Weather) > 0 {
		condition = apiResp.Weather[0].Main
	}

	return models.WeatherResult{
		Location:    apiResp.Name,
		Temperature: apiResp.Main.Temp,
		Condition:   condition,
		WindSpeed:   apiResp.Wind.Speed,
		Unit:        unit,
	}
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode == http.StatusNotFound {
		return string(ErrorKindNotFound)
	}
	return string(ErrorKindAPIError)
}
