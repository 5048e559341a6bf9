package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	genai "google.golang.org/genai"
)

// DefaultModel is used when the config leaves the model empty.
const DefaultModel = "gemini-2.0-flash"

// Generation settings shared by every tool. Summaries get a larger budget.
const (
	temperature      = 0.7
	topK             = 40
	topP             = 0.95
	maxTokens        = 2048
	maxSummaryTokens = 3000
)

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Gemini answers requests with Google's Gemini API.
type Gemini struct {
	model    string
	generate generateFunc
	logger   *zap.Logger
}

var _ Assistant = (*Gemini)(nil)

func NewGemini(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return newGemini(c.Models.GenerateContent, model, logger), nil
}

func newGemini(generate generateFunc, model string, logger *zap.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{model: model, generate: generate, logger: logger.Named("gemini")}
}

// Model is the model name requests are sent to.
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Ask(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	start := time.Now()
	res, err := g.generate(ctx, g.model, genai.Text(BuildPrompt(req)), generationConfig(req.Tool))
	if err != nil {
		g.logger.Warn("generate failed", zap.String("tool", string(req.Tool)), zap.Error(err))
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	if res == nil {
		return "", ErrNoContent
	}
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", ErrNoContent
	}
	g.logger.Debug("generated",
		zap.String("tool", string(req.Tool)),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	return text, nil
}

func generationConfig(t Tool) *genai.GenerateContentConfig {
	limit := int32(maxTokens)
	if t == ToolSummary {
		limit = maxSummaryTokens
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](temperature),
		TopK:            genai.Ptr[float32](topK),
		TopP:            genai.Ptr[float32](topP),
		MaxOutputTokens: limit,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
		},
	}
	if t == ToolOutline {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
