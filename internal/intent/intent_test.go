package intent

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error

	lastPrompt string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt

	return f.reply, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestClassify_ToolCall(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n{\"call_tool\": {\"tool_name\": \"get_weather_forecast\", \"parameters\": {\"location\": \"Indore\"}, \"lang_code\": \"hi\"}}\n```"}
	r := NewRouter(testLogger(), llm)

	env := r.Classify(context.Background(), "इंदौर में मौसम कैसा है?")

	require.NotNil(t, env.Call)
	assert.Empty(t, env.FinalResponse)
	assert.Equal(t, "get_weather_forecast", env.Call.ToolName)
	assert.Equal(t, "Indore", env.Call.Parameters["location"])
	assert.Equal(t, "hi", env.Call.LangCode)
}

func TestClassify_FinalResponse(t *testing.T) {
	llm := &fakeLLM{reply: `{"final_response": "Namaste! How can I help you today?"}`}
	r := NewRouter(testLogger(), llm)

	env := r.Classify(context.Background(), "hello")

	assert.Nil(t, env.Call)
	assert.Equal(t, "Namaste! How can I help you today?", env.FinalResponse)
}

func TestClassify_EmbedsUserText(t *testing.T) {
	llm := &fakeLLM{reply: `{"final_response": "hi"}`}
	r := NewRouter(testLogger(), llm)

	r.Classify(context.Background(), "mandi bhav of soyabean")

	assert.Contains(t, llm.lastPrompt, "mandi bhav of soyabean")
}

func TestClassify_MalformedAlwaysApologizes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "sure, I can help with the weather!"},
		{"truncated json", `{"call_tool": {"tool_name":`},
		{"missing both keys", `{"something_else": true}`},
		{"both keys set", `{"final_response": "x", "call_tool": {"tool_name": "get_weather_forecast"}}`},
		{"call_tool without tool_name", `{"call_tool": {"parameters": {}}}`},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(testLogger(), &fakeLLM{reply: tt.reply})

			env := r.Classify(context.Background(), "anything")

			assert.Nil(t, env.Call)
			assert.Equal(t, MsgApology, env.FinalResponse)
		})
	}
}

func TestClassify_ProviderError(t *testing.T) {
	r := NewRouter(testLogger(), &fakeLLM{err: errors.New("boom")})

	env := r.Classify(context.Background(), "hello")

	assert.Nil(t, env.Call)
	assert.Equal(t, MsgApology, env.FinalResponse)
}

func TestClassify_NoProvider(t *testing.T) {
	r := NewRouter(testLogger(), nil)

	env := r.Classify(context.Background(), "hello")

	assert.Equal(t, MsgUnavailable, env.FinalResponse)
}

func TestClassify_LangCodeNormalized(t *testing.T) {
	tests := []struct {
		name string
		lang string
		want string
	}{
		{"uppercase", `"HI"`, "hi"},
		{"missing", `""`, "en"},
		{"garbage", `"hindi"`, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{reply: `{"call_tool": {"tool_name": "get_market_price", "lang_code": ` + tt.lang + `}}`}
			r := NewRouter(testLogger(), llm)

			env := r.Classify(context.Background(), "bhav?")

			require.NotNil(t, env.Call)
			assert.Equal(t, tt.want, env.Call.LangCode)
		})
	}
}

func TestClassify_EmptyParametersInitialized(t *testing.T) {
	llm := &fakeLLM{reply: `{"call_tool": {"tool_name": "diagnose_plant_disease", "lang_code": "en"}}`}
	r := NewRouter(testLogger(), llm)

	env := r.Classify(context.Background(), "my plant is sick")

	require.NotNil(t, env.Call)
	assert.NotNil(t, env.Call.Parameters)
}
