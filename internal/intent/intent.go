// Package intent classifies a user message by asking the language model
// for a JSON action envelope: either a ready-to-send reply or a tool call
// with parameters and the detected language code.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Fixed user-facing fallbacks. The router never returns an error: a broken
// provider or a malformed envelope degrades to one of these.
const (
	MsgUnavailable = "AI model is not available. Please check the server configuration."
	MsgApology     = "I'm sorry, I had trouble understanding that. Can you please rephrase?"
)

const metaPromptTemplate = `
You are KrishiMitra, a friendly and helpful AI assistant for farmers.
Your primary goal is to understand a farmer's query in their native language and provide an appropriate action or response.
Adopt a conversational and encouraging tone, like a knowledgeable friend ("mitra").
Analyze the user's query and the language it is in.

Your tools:
1. ` + "`get_weather_forecast`" + `: For weather-related queries. Requires a ` + "`location`" + ` (city name).
2. ` + "`get_market_price`" + `: For crop market prices ("mandi bhav"). Requires a ` + "`commodity`" + ` (e.g., "Soyabean", "Gehu") and an optional ` + "`location`" + `.
3. ` + "`diagnose_plant_disease`" + `: If the user mentions a sick plant, pests, leaves with spots, etc., and wants to send a photo.
4. ` + "`general_greeting_or_chat`" + `: For simple greetings, thanks, or general questions that don't fit other tools.

Analyze the query below and respond with a JSON object ONLY. The JSON object must have one of two main keys:

A) "call_tool": If a specific tool is needed. The value MUST be an object containing:
   - "tool_name": One of the tool names from the list above.
   - "parameters": An object with the required parameters extracted from the query (e.g., {"location": "Indore", "commodity": "Wheat"}).
   - "lang_code": The two-letter ISO 639-1 code of the user's language (e.g., "hi" for Hindi, "en" for English, "mr" for Marathi).

B) "final_response": Use this for ` + "`general_greeting_or_chat`" + `. The value MUST be a complete, ready-to-send response.
   IMPORTANT: This final response MUST be in the user's original language, as identified by the lang_code.

---
User Query: %q
---

Respond with ONLY the JSON object. Do not add any extra text or formatting.`

// The provider's output is untrusted input: require the envelope shape
// before unmarshalling. Tool names are checked later, at dispatch.
const envelopeSchema = `{
	"type": "object",
	"properties": {
		"final_response": {"type": "string"},
		"call_tool": {
			"type": "object",
			"properties": {
				"tool_name": {"type": "string"},
				"parameters": {
					"type": "object",
					"additionalProperties": {"type": "string"}
				},
				"lang_code": {"type": "string"}
			},
			"required": ["tool_name"]
		}
	},
	"oneOf": [
		{"required": ["final_response"]},
		{"required": ["call_tool"]}
	]
}`

var schemaLoader = gojsonschema.NewStringLoader(envelopeSchema)

// ToolCall is a named capability invocation requested by the model.
type ToolCall struct {
	ToolName   string            `json:"tool_name"`
	Parameters map[string]string `json:"parameters"`
	LangCode   string            `json:"lang_code"`
}

// Envelope is the parsed routing decision. Exactly one field is set.
type Envelope struct {
	FinalResponse string
	Call          *ToolCall
}

type llm interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Router .
type Router struct {
	logger *slog.Logger
	llm    llm
}

// NewRouter .
func NewRouter(logger *slog.Logger, l llm) *Router {
	return &Router{
		logger: logger,
		llm:    l,
	}
}

// Classify sends the user text to the model and parses the action
// envelope. It fails soft: every provider or parse failure becomes a
// FinalResponse with a fixed apology, never an error.
func (r *Router) Classify(ctx context.Context, userText string) Envelope {
	if r.llm == nil {
		return Envelope{FinalResponse: MsgUnavailable}
	}

	raw, err := r.llm.Generate(ctx, fmt.Sprintf(metaPromptTemplate, userText))
	if err != nil {
		r.logger.Error("intent classification call failed", slog.String("err", err.Error()))

		return Envelope{FinalResponse: MsgApology}
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		r.logger.Error("failed to parse intent envelope",
			slog.String("err", err.Error()),
			slog.String("raw", raw))

		return Envelope{FinalResponse: MsgApology}
	}

	return env
}

func parseEnvelope(raw string) (Envelope, error) {
	cleaned := stripCodeFences(raw)

	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope is not valid JSON: %w", err)
	}
	if !res.Valid() {
		return Envelope{}, fmt.Errorf("envelope failed schema validation: %v", res.Errors())
	}

	var wire struct {
		FinalResponse *string   `json:"final_response"`
		CallTool      *ToolCall `json:"call_tool"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	if wire.FinalResponse != nil {
		return Envelope{FinalResponse: *wire.FinalResponse}, nil
	}

	call := wire.CallTool
	if call.Parameters == nil {
		call.Parameters = make(map[string]string)
	}
	call.LangCode = strings.ToLower(strings.TrimSpace(call.LangCode))
	if len(call.LangCode) != 2 {
		call.LangCode = "en"
	}

	return Envelope{Call: call}, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}
