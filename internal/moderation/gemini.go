package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kforum/internal/observability"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultTimeout        = 10 * time.Second

	abusiveToken = "ABUSIVE"
	safeToken    = "SAFE"
)

const promptTemplate = `You are an automated content moderator for a student community forum.
Analyze the following text for abusive, hateful, harassment, explicit, or harmful content in ANY language.

Text to analyze: %q

Instructions:
- If the text contains abusive, hateful, or harmful content, return EXACTLY: "ABUSIVE"
- If the text is safe, return EXACTLY: "SAFE"
- Do not provide any explanation, just the single word.`

// GeminiConfig configures the Gemini-backed classifier. An empty APIKey is a
// valid state: the classifier is constructed but every call resolves to
// Unavailable without touching the network.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// GeminiClassifier screens text through the Google Generative Language API.
// It is stateless per call and safe for concurrent use.
type GeminiClassifier struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewGeminiClassifier builds a classifier from explicit configuration. A
// missing API key is logged once here, not on every call.
func NewGeminiClassifier(cfg GeminiConfig, logger *slog.Logger) *GeminiClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.APIKey == "" {
		logger.Warn("content classifier is not configured; submissions will not be screened",
			slog.String("component", "moderation"))
	}
	return &GeminiClassifier{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// Configured reports whether an API key is present.
func (g *GeminiClassifier) Configured() bool {
	return g.apiKey != ""
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Classify sends the text to the oracle with the two-token instruction and
// maps the response. Any transport, timeout or parse failure degrades to
// Unavailable; there are no retries.
func (g *GeminiClassifier) Classify(ctx context.Context, text string) Classification {
	if g.apiKey == "" {
		return Unavailable
	}

	start := time.Now()
	result := g.call(ctx, text)
	observability.ObserveClassifier(result.String(), start)
	return result
}

func (g *GeminiClassifier) call(ctx context.Context, text string) Classification {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: fmt.Sprintf(promptTemplate, text)}},
		}},
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "classifier request encode failed", slog.String("error", err.Error()))
		return Unavailable
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.endpoint, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		g.logger.ErrorContext(ctx, "classifier request build failed", slog.String("error", err.Error()))
		return Unavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.WarnContext(ctx, "classifier call failed", slog.String("error", err.Error()))
		return Unavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.WarnContext(ctx, "classifier returned non-OK status", slog.Int("status", resp.StatusCode))
		return Unavailable
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.logger.WarnContext(ctx, "classifier response decode failed", slog.String("error", err.Error()))
		return Unavailable
	}

	var parts []string
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			parts = append(parts, p.Text)
		}
	}
	if len(parts) == 0 {
		g.logger.WarnContext(ctx, "classifier response contained no text")
		return Unavailable
	}

	answer := strings.ToUpper(strings.TrimSpace(strings.Join(parts, " ")))
	if strings.Contains(answer, abusiveToken) {
		return Abusive
	}
	return Safe
}
