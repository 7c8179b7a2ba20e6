// Package market answers commodity price queries. There is no structured
// price API behind it: the agent asks the language model a templated
// question and trusts the formatted answer.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultLocation is assumed when the user did not name a district.
const DefaultLocation = "Khargone"

const (
	msgUnavailable   = "Sorry, the market price service is currently unavailable."
	msgNoCommodity   = "Please specify which crop you'd like the price for."
	msgTroubleConn   = "Sorry, I'm having trouble connecting to the market price service right now."
	minimalReplySize = 10
)

const promptTemplate = "What is the most recent modal price for '%s' in the '%s' district of Madhya Pradesh, India? " +
	"Answer concisely. The final output MUST be formatted for WhatsApp using asterisks for bolding and newlines. " +
	"For example: " +
	"🌾 *Latest Price for %s*\n\n" +
	"*- Location:* %s\n" +
	"*- Price:* Around ₹[Price] per Quintal"

type llm interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Agent .
type Agent struct {
	logger *slog.Logger
	llm    llm
}

// New .
func New(logger *slog.Logger, l llm) *Agent {
	return &Agent{
		logger: logger,
		llm:    l,
	}
}

// PriceFor returns a formatted price answer for the commodity in the
// given location. Empty location falls back to DefaultLocation. Every
// failure mode comes back as a fixed user-facing string.
func (a *Agent) PriceFor(ctx context.Context, commodity, location string) string {
	if a.llm == nil {
		return msgUnavailable
	}
	if commodity == "" {
		return msgNoCommodity
	}
	if location == "" {
		location = DefaultLocation
	}

	prompt := fmt.Sprintf(promptTemplate, commodity, location, capitalize(commodity), capitalize(location))

	reply, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		a.logger.Error("market price call failed",
			slog.String("commodity", commodity),
			slog.String("err", err.Error()))

		return msgTroubleConn
	}

	reply = strings.TrimSpace(reply)
	if len(reply) <= minimalReplySize {
		return fmt.Sprintf("⚠️ Sorry, I couldn't find a specific price for *%s* in *%s* right now.", commodity, location)
	}

	return reply
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
