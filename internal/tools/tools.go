// Package tools maps the tool names produced by the intent router onto
// the capability agents. The name set is fixed; anything else gets the
// catch-all reply.
package tools

import (
	"context"
	"log/slog"
)

// Recognized tool names. The router's output is untrusted, so Dispatch
// checks against this set instead of assuming the model behaved.
const (
	ToolWeather  = "get_weather_forecast"
	ToolMarket   = "get_market_price"
	ToolDiagnose = "diagnose_plant_disease"
)

const (
	// MsgUnknownTool is the catch-all for unrecognized tool names.
	MsgUnknownTool = "I'm not sure how to handle that yet. Can you try rephrasing?"
	// MsgSendPhoto asks for the photo; the actual diagnosis runs when a
	// media message arrives later.
	MsgSendPhoto = "Okay, please send me a clear photo of the plant's leaf."
	// MsgNeedLocation is returned when the weather tool was called
	// without a usable location parameter.
	MsgNeedLocation = "Please tell me which city you'd like the weather forecast for."
)

type weatherAgent interface {
	ForecastFor(ctx context.Context, location string) string
}

type marketAgent interface {
	PriceFor(ctx context.Context, commodity, location string) string
}

// Dispatcher .
type Dispatcher struct {
	logger  *slog.Logger
	weather weatherAgent
	market  marketAgent
}

// NewDispatcher .
func NewDispatcher(logger *slog.Logger, weather weatherAgent, market marketAgent) *Dispatcher {
	return &Dispatcher{
		logger:  logger,
		weather: weather,
		market:  market,
	}
}

// Dispatch runs the named tool with its parameters and returns the reply
// text. Every branch returns a string; no error escapes this layer.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, params map[string]string) string {
	switch toolName {
	case ToolWeather:
		location := params["location"]
		if location == "" {
			return MsgNeedLocation
		}

		return d.weather.ForecastFor(ctx, location)

	case ToolMarket:
		return d.market.PriceFor(ctx, params["commodity"], params["location"])

	case ToolDiagnose:
		return MsgSendPhoto

	default:
		d.logger.Info("unrecognized tool name", slog.String("tool", toolName))

		return MsgUnknownTool
	}
}
