// Package diagnose implements the plant disease pipeline: download the
// photo from the messaging provider, run the local classifier, and either
// answer from the remedy knowledge base or fall back to the vision model
// when the classifier is unsure.
package diagnose

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"krishi-mitra/internal/classify"
	"krishi-mitra/internal/domain"
	"krishi-mitra/internal/knowledge"
)

const (
	msgModelMissing    = "Error: The primary diagnosis model is not loaded. Please check server logs."
	msgDownloadFailed  = "Could not download the image from the provided URL. Please try again."
	msgUnclearPhoto    = "Could not process the image. Please try sending a clear photo of a single leaf."
	msgVisionMissing   = "AI Vision model is not available. Please check server configuration."
	msgVisionFailed    = "The advanced AI analysis failed. Please ensure the image is clear."
	visionPrompt       = "You are an expert agriculturalist. Analyze this image of a plant leaf. " +
		"Identify any disease or pest. If it's healthy, say so. " +
		"Provide a short, clear diagnosis and a suggested remedy. " +
		"Format the response as: 'Diagnosis: [Your Diagnosis]. Suggested Remedy: [Your Remedy].' " +
		"Disclaimer: This is an AI suggestion. Consult a local expert."
)

type classifier interface {
	Classify(ctx context.Context, imageData []byte) (classify.Prediction, error)
}

type visionLLM interface {
	GenerateVision(ctx context.Context, prompt string, img domain.Image) (string, error)
}

// MediaAuth carries the messaging provider credentials that protect media
// URLs (Twilio uses HTTP basic auth with the account SID and token).
type MediaAuth struct {
	Username string
	Password string
}

// Agent .
type Agent struct {
	logger     *slog.Logger
	classifier classifier
	vision     visionLLM
	kb         *knowledge.Base
	auth       MediaAuth
	tempDir    string
	httpClient *http.Client
}

// New .
func New(logger *slog.Logger, c classifier, vision visionLLM, kb *knowledge.Base, auth MediaAuth, tempDir string, httpClient *http.Client) *Agent {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Agent{
		logger:     logger,
		classifier: c,
		vision:     vision,
		kb:         kb,
		auth:       auth,
		tempDir:    tempDir,
		httpClient: httpClient,
	}
}

// FromURL runs the full pipeline for one media URL and returns a
// user-facing diagnosis string. Every failure mode is folded into a fixed
// message; the method never returns an error.
func (a *Agent) FromURL(ctx context.Context, mediaURL string) string {
	if a.classifier == nil {
		return msgModelMissing
	}

	data, err := a.download(ctx, mediaURL)
	if err != nil {
		a.logger.Error("image download failed",
			slog.String("url", mediaURL),
			slog.String("err", err.Error()))

		return msgDownloadFailed
	}

	// The temp path is bound before anything that can fail so cleanup
	// never references an unset path.
	imagePath := filepath.Join(a.tempDir, fmt.Sprintf("%s.jpg", uuid.NewString()))
	if err := os.WriteFile(imagePath, data, 0644); err != nil {
		a.logger.Error("failed to store downloaded image", slog.String("err", err.Error()))

		return msgDownloadFailed
	}
	defer func() { _ = os.Remove(imagePath) }()

	pred, err := a.classifier.Classify(ctx, data)
	if err != nil {
		a.logger.Error("classification failed", slog.String("err", err.Error()))

		return msgUnclearPhoto
	}

	if pred.Confidence < a.kb.ConfidenceThreshold {
		a.logger.Info("low confidence, falling back to vision model",
			slog.String("class", pred.Class),
			slog.Float64("confidence", pred.Confidence))

		return a.diagnoseWithVision(ctx, data)
	}

	a.logger.Info("high confidence diagnosis from local model",
		slog.String("class", pred.Class),
		slog.Float64("confidence", pred.Confidence))

	diagnosis := strings.ReplaceAll(pred.Class, "_", " ")
	confidence := fmt.Sprintf("%.1f%%", pred.Confidence*100)

	if a.kb.IsHealthy(pred.Class) {
		return fmt.Sprintf("✅ *Diagnosis:* Healthy\n\n"+
			"Looks like a healthy %s.\n\n"+
			"- *Recommendation:* Your plant appears healthy. Continue to monitor for pests and ensure proper watering.\n"+
			"_(Model Confidence: %s)_",
			diagnosis, confidence)
	}

	return fmt.Sprintf("🩺 *Diagnosis:* %s\n\n"+
		"- *Suggested Remedy:* %s\n\n"+
		"_(Model Confidence: %s)_\n\n"+
		"```Disclaimer: This is an AI suggestion. Always consult a local expert.```",
		diagnosis, a.kb.RemedyFor(pred.Class), confidence)
}

func (a *Agent) diagnoseWithVision(ctx context.Context, data []byte) string {
	if a.vision == nil {
		return msgVisionMissing
	}

	img := domain.Image{
		MimeType: http.DetectContentType(data),
		Data:     data,
	}

	result, err := a.vision.GenerateVision(ctx, visionPrompt, img)
	if err != nil {
		a.logger.Error("vision fallback failed", slog.String("err", err.Error()))

		return msgVisionFailed
	}

	return result
}

func (a *Agent) download(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if a.auth.Username != "" {
		req.SetBasicAuth(a.auth.Username, a.auth.Password)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("media endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media body: %w", err)
	}

	return data, nil
}
