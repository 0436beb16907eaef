package labeling

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const geminiModel = "gemini-3-flash-preview"

// Gemini 3.0 Flash pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50 // $0.50 per 1M input tokens (text/image/video)
	geminiOutputPricePerMillion = 3.00 // $3.00 per 1M output tokens (including thinking)
)

const geminiPrompt = `Identify the visual content of this product photo.

Respond with a JSON array of detected labels, most prominent first, each with:
- name: a short visual concept (e.g. "cumin seeds", "glass jar", "red packaging")
- confidence: how certain you are that the concept is visible, 0-100

List at most %d labels and omit anything below %.0f confidence. Include the
product type, packaging, colors and any readable brand or product text.

Example response:
[{"name": "basmati rice", "confidence": 97.5}, {"name": "plastic pouch", "confidence": 88.0}]

Respond ONLY with the JSON array, no markdown or other text.`

// GeminiSource labels images with Google's Gemini API.
type GeminiSource struct {
	client *genai.Client
	opts   Options

	mu    sync.Mutex
	usage Usage
}

// NewGeminiSource creates a Gemini-backed label source.
// It uses the GEMINI_API_KEY environment variable for authentication.
func NewGeminiSource(ctx context.Context, opts Options) (*GeminiSource, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiSource{client: client, opts: opts}, nil
}

// DetectLabels implements the Source interface using Gemini.
func (g *GeminiSource) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	prompt := fmt.Sprintf(geminiPrompt, g.opts.MaxLabels, g.opts.MinConfidence)
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{Data: image, MIMEType: sniffMIMEType(image)}},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	text := result.Text()
	log.Debug().Str("response", text).Msg("gemini label response")

	labels, err := parseLabels(text)
	if err != nil {
		return nil, err
	}
	labels = g.opts.apply(labels)

	if result.UsageMetadata != nil {
		g.recordUsage(result.UsageMetadata)
	}

	return labels, nil
}

// Usage returns token usage and cost accumulated across calls.
func (g *GeminiSource) Usage() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

func (g *GeminiSource) recordUsage(meta *genai.GenerateContentResponseUsageMetadata) {
	in := int64(meta.PromptTokenCount)
	out := int64(meta.CandidatesTokenCount)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.usage.InputTokens += in
	g.usage.OutputTokens += out
	g.usage.TotalTokens += int64(meta.TotalTokenCount)
	g.usage.CostUSD += calculateGeminiCost(in, out)
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}

func parseLabels(text string) ([]Label, error) {
	// Clean up the response - remove markdown code blocks if present
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var labels []Label
	if err := json.Unmarshal([]byte(text), &labels); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, text)
	}
	return labels, nil
}

// sniffMIMEType guesses the image MIME type from magic bytes. Gemini needs
// a MIME type with inline image data.
func sniffMIMEType(data []byte) string {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "image/png"
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return "image/jpeg"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
