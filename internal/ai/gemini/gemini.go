// Package gemini contains the Gemini implementation of the language
// understanding provider used by the router, the market price agent, the
// translation pass and the vision fallback.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"krishi-mitra/internal/domain"
)

// ErrUnavailable is returned when the client was never configured.
var ErrUnavailable = errors.New("gemini client is not available")

// Client .
type Client struct {
	logger *slog.Logger

	client      *genai.Client
	model       string
	visionModel string
}

// New .
func New(logger *slog.Logger, client *genai.Client, model, visionModel string) *Client {
	return &Client{
		logger:      logger,
		client:      client,
		model:       model,
		visionModel: visionModel,
	}
}

// Generate sends a single text prompt and returns the raw response text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrUnavailable
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}

// GenerateVision sends a prompt together with an image and returns the raw
// response text.
func (c *Client) GenerateVision(ctx context.Context, prompt string, img domain.Image) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrUnavailable
	}

	contents := []*genai.Content{
		{
			Role: genai.RoleUser,
			Parts: []*genai.Part{
				{Text: prompt},
				{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: img.Data}},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.visionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate vision content: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
