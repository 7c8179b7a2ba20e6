// Package logic is the request handler: one inbound message in, one
// reply out. It decides between the image diagnosis path and the text
// intent path, keeps the per-sender language session up to date, and
// guarantees a non-empty reply no matter what failed underneath.
package logic

import (
	"context"
	"log/slog"

	"krishi-mitra/internal/domain"
	"krishi-mitra/internal/intent"
	"krishi-mitra/internal/tools"
)

const (
	// MsgCriticalError is the last-resort reply when something below the
	// component boundaries still managed to blow up.
	MsgCriticalError = "I'm sorry, a critical error occurred. Please try again in a moment."
	// MsgEmptyReply replaces an empty reply so the outbound message is
	// never blank.
	MsgEmptyReply = "I'm sorry, I couldn't process that request. Please try rephrasing."
)

type intentRouter interface {
	Classify(ctx context.Context, userText string) intent.Envelope
}

type dispatcher interface {
	Dispatch(ctx context.Context, toolName string, params map[string]string) string
}

type diagnoser interface {
	FromURL(ctx context.Context, mediaURL string) string
}

type translator interface {
	Translate(ctx context.Context, text, langCode string) string
}

type sessionStore interface {
	SetLang(sender, langCode string)
	Lang(sender string) string
}

type locator interface {
	Extract(text string) string
}

// Logic .
type Logic struct {
	logger     *slog.Logger
	intents    intentRouter
	tools      dispatcher
	diagnoser  diagnoser
	translator translator
	sessions   sessionStore
	locations  locator
}

// New .
func New(logger *slog.Logger, intents intentRouter, t dispatcher, d diagnoser, tr translator, s sessionStore, loc locator) *Logic {
	return &Logic{
		logger:     logger,
		intents:    intents,
		tools:      t,
		diagnoser:  d,
		translator: tr,
		sessions:   s,
		locations:  loc,
	}
}

// HandleMessage runs the full pipeline for one inbound message. It never
// returns an empty string and never lets a panic escape to the server.
func (l *Logic) HandleMessage(ctx context.Context, msg domain.InboundMessage) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic while handling message", slog.Any("panic", r))
			reply = MsgCriticalError
		}
		if reply == "" {
			reply = MsgEmptyReply
		}
	}()

	if msg.HasMedia() {
		return l.handleMedia(ctx, msg)
	}

	return l.handleText(ctx, msg)
}

func (l *Logic) handleMedia(ctx context.Context, msg domain.InboundMessage) string {
	l.logger.Info("media message received", slog.String("from", msg.From))

	diagnosis := l.diagnoser.FromURL(ctx, msg.MediaURL)

	// The image carries no language of its own; reuse the language of the
	// sender's last text message.
	langCode := l.sessions.Lang(msg.From)

	return l.translator.Translate(ctx, diagnosis, langCode)
}

func (l *Logic) handleText(ctx context.Context, msg domain.InboundMessage) string {
	l.logger.Info("user query received", slog.String("from", msg.From), slog.String("body", msg.Body))

	env := l.intents.Classify(ctx, msg.Body)

	if env.Call == nil {
		// Direct replies are already in the user's language.
		return env.FinalResponse
	}

	call := env.Call
	l.logger.Info("tool call parsed",
		slog.String("tool", call.ToolName),
		slog.String("lang", call.LangCode),
		slog.Any("params", call.Parameters))

	if call.ToolName == tools.ToolWeather && call.Parameters["location"] == "" && l.locations != nil {
		if city := l.locations.Extract(msg.Body); city != "" {
			call.Parameters["location"] = city
		}
	}

	l.sessions.SetLang(msg.From, call.LangCode)

	result := l.tools.Dispatch(ctx, call.ToolName, call.Parameters)

	return l.translator.Translate(ctx, result, call.LangCode)
}
