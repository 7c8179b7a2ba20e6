package market

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
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

func TestPriceFor_PassesThroughFormattedReply(t *testing.T) {
	reply := "🌾 *Latest Price for Soyabean*\n\n*- Location:* Khargone\n*- Price:* Around ₹4500 per Quintal"
	llm := &fakeLLM{reply: reply}
	a := New(testLogger(), llm)

	res := a.PriceFor(context.Background(), "Soyabean", "Khargone")

	assert.Equal(t, reply, res)
	assert.Contains(t, llm.lastPrompt, "'Soyabean'")
	assert.Contains(t, llm.lastPrompt, "'Khargone'")
	assert.Contains(t, llm.lastPrompt, "Madhya Pradesh")
}

func TestPriceFor_DefaultLocation(t *testing.T) {
	llm := &fakeLLM{reply: "some price text long enough"}
	a := New(testLogger(), llm)

	a.PriceFor(context.Background(), "Wheat", "")

	assert.Contains(t, llm.lastPrompt, "'"+DefaultLocation+"'")
}

func TestPriceFor_ShortReplySubstituted(t *testing.T) {
	for _, reply := range []string{"", "n/a", "  \n  "} {
		a := New(testLogger(), &fakeLLM{reply: reply})

		res := a.PriceFor(context.Background(), "Wheat", "Dewas")

		assert.Contains(t, res, "couldn't find a specific price")
		assert.Contains(t, res, "*Wheat*")
		assert.Contains(t, res, "*Dewas*")
	}
}

func TestPriceFor_ProviderError(t *testing.T) {
	a := New(testLogger(), &fakeLLM{err: errors.New("deadline exceeded")})

	assert.Equal(t, msgTroubleConn, a.PriceFor(context.Background(), "Wheat", ""))
}

func TestPriceFor_MissingCommodity(t *testing.T) {
	a := New(testLogger(), &fakeLLM{reply: "irrelevant but long enough"})

	assert.Equal(t, msgNoCommodity, a.PriceFor(context.Background(), "", "Khargone"))
}

func TestPriceFor_NoProvider(t *testing.T) {
	a := New(testLogger(), nil)

	assert.Equal(t, msgUnavailable, a.PriceFor(context.Background(), "Wheat", ""))
}
