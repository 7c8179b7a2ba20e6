package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"krishi-mitra/internal/agents/diagnose"
	"krishi-mitra/internal/agents/market"
	"krishi-mitra/internal/agents/weather"
	"krishi-mitra/internal/ai/gemini"
	"krishi-mitra/internal/classify"
	"krishi-mitra/internal/intent"
	"krishi-mitra/internal/knowledge"
	"krishi-mitra/internal/location"
	"krishi-mitra/internal/logic"
	"krishi-mitra/internal/server"
	"krishi-mitra/internal/session"
	"krishi-mitra/internal/tools"
	"krishi-mitra/internal/translate"
)

func main() {

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	addr := envOr("ADDR", ":8080")

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		logger.Error("GEMINI_API_KEY is not set")

		return
	}
	geminiModel := envOr("GEMINI_MODEL", "gemini-2.5-flash")
	geminiVisionModel := envOr("GEMINI_VISION_MODEL", geminiModel)

	weatherKey := os.Getenv("WEATHER_API_KEY")
	if weatherKey == "" {
		logger.Warn("WEATHER_API_KEY is not set, weather lookups will fail")
	}

	twilioSID := os.Getenv("TWILIO_ACCOUNT_SID")
	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if twilioSID == "" || twilioToken == "" {
		logger.Warn("Twilio credentials are not set, media downloads will be unauthenticated")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  geminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Error("failed to create genai client", slog.String("err", err.Error()))

		return
	}

	llm := gemini.New(logger, client, geminiModel, geminiVisionModel)

	kb, err := knowledge.Load(envOr("KNOWLEDGE_PATH", "data/knowledge.yaml"))
	if err != nil {
		logger.Error("failed to load knowledge base", slog.String("err", err.Error()))

		return
	}

	gaz, err := location.Load(envOr("CITIES_PATH", "data/cities.json"))
	if err != nil {
		// The gazetteer only backs up missing tool parameters; run
		// without it rather than refusing to start.
		logger.Warn("failed to load city gazetteer", slog.String("err", err.Error()))
		gaz = nil
	}

	classifier := buildClassifier(logger)

	weatherAgent := weather.New(logger, weatherKey, os.Getenv("WEATHER_BASE_URL"), nil)
	marketAgent := market.New(logger, llm)

	mediaAuth := diagnose.MediaAuth{Username: twilioSID, Password: twilioToken}
	var diagnoseAgent *diagnose.Agent
	if classifier != nil {
		diagnoseAgent = diagnose.New(logger, classifier, llm, kb, mediaAuth, os.Getenv("TEMP_DIR"), nil)
	} else {
		diagnoseAgent = diagnose.New(logger, nil, llm, kb, mediaAuth, os.Getenv("TEMP_DIR"), nil)
	}

	intents := intent.NewRouter(logger, llm)
	dispatcher := tools.NewDispatcher(logger, weatherAgent, marketAgent)
	translator := translate.New(logger, llm)
	sessions := session.NewStore()

	handler := logic.New(logger, intents, dispatcher, diagnoseAgent, translator, sessions, gaz)
	srv := server.New(logger, addr, handler)

	go warmUp(logger, intents, classifier)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, os.Kill)
	go func() {
		<-stopCh
		err := srv.Stop(context.Background())
		if err != nil {
			logger.Error("failed to stop server", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server", slog.String("addr", addr))
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", slog.String("err", err.Error()))
	}
}

// buildClassifier wires the remote classifier if it is configured. A
// missing classifier is not fatal: the diagnosis path degrades to its
// fixed "model not loaded" reply.
func buildClassifier(logger *slog.Logger) *classify.Classifier {
	servingURL := os.Getenv("CLASSIFIER_URL")
	if servingURL == "" {
		logger.Warn("CLASSIFIER_URL is not set, plant diagnosis will be unavailable")

		return nil
	}

	names, err := classify.LoadClassNames(envOr("CLASS_NAMES_PATH", "data/class_names.json"))
	if err != nil {
		logger.Error("failed to load class names", slog.String("err", err.Error()))

		return nil
	}

	c, err := classify.New(names, classify.NewServingClient(servingURL, nil))
	if err != nil {
		logger.Error("failed to create classifier", slog.String("err", err.Error()))

		return nil
	}

	return c
}

// warmUp primes the language model and the classifier so the first user
// request does not hit cold starts. Failures are logged, never fatal.
func warmUp(logger *slog.Logger, intents *intent.Router, classifier *classify.Classifier) {
	logger.Info("starting model warm-up")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	intents.Classify(ctx, "Hello")
	logger.Info("language model is warm")

	if classifier == nil {
		logger.Warn("classifier not configured, skipping warm-up")

		return
	}

	if err := classifier.WarmUp(ctx); err != nil {
		logger.Warn("could not warm up classifier", slog.String("err", err.Error()))

		return
	}
	logger.Info("classifier is warm")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
