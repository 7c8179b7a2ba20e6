// Package weather answers forecast queries against the OpenWeatherMap
// current-weather API and folds the result into a WhatsApp-formatted
// report with a one-line farming advisory.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"

const (
	msgNoKey       = "Error: Weather API key not configured."
	msgFetchFailed = "Sorry, I couldn't fetch the weather right now."

	advisoryRain      = "Rain expected. Ensure proper drainage and protect crops if necessary."
	advisoryHeat      = "High temperatures expected. Ensure adequate irrigation for crops."
	advisoryFavorable = "Weather seems favorable for normal farming activities."
)

// Agent .
type Agent struct {
	logger     *slog.Logger
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New .
func New(logger *slog.Logger, apiKey, baseURL string, httpClient *http.Client) *Agent {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Agent{
		logger:     logger,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type currentWeather struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// ForecastFor returns a formatted weather report for the location. Every
// failure mode comes back as a fixed user-facing string, never an error.
func (a *Agent) ForecastFor(ctx context.Context, location string) string {
	if a.apiKey == "" {
		return msgNoKey
	}

	data, err := a.fetch(ctx, location)
	if err != nil {
		a.logger.Error("weather lookup failed",
			slog.String("location", location),
			slog.String("err", err.Error()))

		if isStatusError(err) {
			return fmt.Sprintf("Could not retrieve weather for '%s'. Please check the city name.", location)
		}

		return msgFetchFailed
	}

	desc := ""
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}

	advisory := advisoryFavorable
	if strings.Contains(strings.ToLower(desc), "rain") {
		advisory = advisoryRain
	} else if data.Main.Temp > 35 {
		advisory = advisoryHeat
	}

	return fmt.Sprintf("🌤️ *Weather in %s*\n\n"+
		"*- Condition:* %s\n"+
		"*- Temp:* *%s°C* (Feels like: %s°C)\n"+
		"*- Humidity:* *%s%%*\n\n"+
		"💡 *Advisory:* %s",
		capitalize(location),
		capitalize(desc),
		formatNumber(data.Main.Temp),
		formatNumber(data.Main.FeelsLike),
		formatNumber(data.Main.Humidity),
		advisory)
}

type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.code)
}

func isStatusError(err error) bool {
	_, ok := err.(statusError)

	return ok
}

func (a *Agent) fetch(ctx context.Context, location string) (*currentWeather, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", a.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?%s", a.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError{code: resp.StatusCode}
	}

	var data currentWeather
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &data, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
