// Package translate converts a finished reply into the user's language.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// DefaultLang replies are sent as-is.
const DefaultLang = "en"

const promptTemplate = "Translate the following text to the language with the code '%s'. Respond with only the translated text. Text: %q"

type llm interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Translator .
type Translator struct {
	logger *slog.Logger
	llm    llm
}

// New .
func New(logger *slog.Logger, l llm) *Translator {
	return &Translator{
		logger: logger,
		llm:    l,
	}
}

// Translate returns the text in the target language. For the default
// language, an unavailable provider or any provider failure the original
// text comes back unchanged.
func (t *Translator) Translate(ctx context.Context, text, langCode string) string {
	if langCode == DefaultLang || langCode == "" || t.llm == nil {
		return text
	}

	translated, err := t.llm.Generate(ctx, fmt.Sprintf(promptTemplate, langCode, text))
	if err != nil {
		t.logger.Error("translation failed",
			slog.String("lang", langCode),
			slog.String("err", err.Error()))

		return text
	}

	return strings.TrimSpace(translated)
}
