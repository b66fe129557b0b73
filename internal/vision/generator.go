// Package vision wraps the image generation providers behind a single
// interface so the gallery never touches an SDK type.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrNotConfigured indicates that no generation provider credentials are set.
var ErrNotConfigured = errors.New("image generation not configured")

// Image is a rendered image payload.
type Image struct {
	Data []byte
	MIME string
}

// Generator produces a rendered image for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (Image, error)
}

type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string) (Image, error) {
	return Image{}, ErrNotConfigured
}

// Disabled returns a generator that always signals missing configuration.
func Disabled() Generator {
	return disabledGenerator{}
}

// GeminiGenerator renders images via Gemini inline image outputs.
type GeminiGenerator struct {
	apiKey  string
	model   string
	timeout time.Duration
}

const defaultGeminiModel = "gemini-2.5-flash-image"

// NewGeminiGenerator constructs a generator able to request inline images.
func NewGeminiGenerator(apiKey, model string, timeout time.Duration) *GeminiGenerator {
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiGenerator{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
}

// Generate requests a photorealistic image for the given prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (Image, error) {
	if g == nil || strings.TrimSpace(g.apiKey) == "" {
		return Image{}, ErrNotConfigured
	}
	if strings.TrimSpace(prompt) == "" {
		return Image{}, fmt.Errorf("vision: empty rendering prompt")
	}

	childCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	client, err := genai.NewClient(childCtx, &genai.ClientConfig{
		APIKey: g.apiKey,
	})
	if err != nil {
		return Image{}, fmt.Errorf("vision: create genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(childCtx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return Image{}, fmt.Errorf("vision: render failed: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Image{}, fmt.Errorf("vision: render returned no candidates")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if strings.TrimSpace(mime) == "" {
			mime = "image/png"
		}
		return Image{Data: part.InlineData.Data, MIME: mime}, nil
	}
	return Image{}, fmt.Errorf("vision: render returned no image data")
}
