package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/weathersearch/weathersearch/internal/models"
	"github.com/weathersearch/weathersearch/internal/observability"
)

var errInvalidModelKey = errors.New("invalid model API key")

// OpenAIGenerator calls an OpenAI-compatible chat completions endpoint.
// One synchronous call per observation: no retries, no rate limiting. The
// reply content must be a strict JSON object with the four insight fields;
// anything else fails closed into FallbackInsights. The model reply is never
// evaluated or executed, only decoded.
type OpenAIGenerator struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

func NewOpenAIGenerator(apiKey, apiURL, model string, temperature float64, timeout time.Duration, logger *zap.Logger) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", errInvalidModelKey)
	}

	return &OpenAIGenerator{
		apiKey:      apiKey,
		apiURL:      strings.TrimRight(apiURL, "/"),
		model:       model,
		temperature: temperature,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (g *OpenAIGenerator) Enabled() bool { return true }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the constructed prompt and decodes the reply. On any failure
// it returns FallbackInsights together with the cause; callers display the
// fallback and never surface the error to the user.
func (g *OpenAIGenerator) Analyze(ctx context.Context, obs models.Observation) (models.Insights, error) {
	start := time.Now()

	content, err := g.complete(ctx, buildPrompt(obs))
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.InsightCallsTotal.WithLabelValues("error").Inc()
		observability.InsightDuration.Observe(duration)
		observability.InsightFallbacksTotal.WithLabelValues(fallbackReason(err)).Inc()
		if g.logger != nil {
			g.logger.Warn("insight call failed", zap.String("city", obs.City), zap.Error(err))
		}
		return FallbackInsights(), err
	}

	observability.InsightCallsTotal.WithLabelValues("success").Inc()
	observability.InsightDuration.Observe(duration)

	insights, err := parseInsights(content)
	if err != nil {
		observability.InsightFallbacksTotal.WithLabelValues("parse").Inc()
		if g.logger != nil {
			g.logger.Warn("insight reply unparsable", zap.String("city", obs.City), zap.Error(err))
		}
		return FallbackInsights(), err
	}
	return insights, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: g.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model endpoint returned HTTP %d", resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("model reply has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// parseInsights decodes the model's reply content as a strict JSON object.
// Unknown fields, trailing content, and empty values all reject the reply;
// the content is only ever decoded, never evaluated.
func parseInsights(content string) (models.Insights, error) {
	cleaned := stripCodeFence(strings.TrimSpace(content))

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.DisallowUnknownFields()

	var insights models.Insights
	if err := dec.Decode(&insights); err != nil {
		return models.Insights{}, fmt.Errorf("decode insights: %w", err)
	}
	if dec.More() {
		return models.Insights{}, fmt.Errorf("decode insights: trailing content after JSON object")
	}

	if insights.Analysis == "" || insights.Recommendations == "" ||
		insights.HealthAdvice == "" || insights.Activities == "" {
		return models.Insights{}, fmt.Errorf("decode insights: missing required field")
	}
	return insights, nil
}

// stripCodeFence unwraps a ```json fenced block if the model added one.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fallbackReason labels the failure for the insightFallbacksTotal metric.
func fallbackReason(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "HTTP"):
		return "status"
	case strings.Contains(errStr, "decode") || strings.Contains(errStr, "parse"):
		return "parse"
	case strings.Contains(errStr, "request"):
		return "transport"
	default:
		return "unknown"
	}
}
