// Package llm implements ports.RoastGenerator against an OpenRouter-compatible
// chat-completions API. The model is asked for strict JSON; the reply is
// normalized into domain.RoastResult with the risk score clamped to [1,10].
package llm

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

	"github.com/rs/zerolog"

	"github.com/gradeidea/roast-service/internal/core/domain"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
	retryBackoff   = 500 * time.Millisecond
)

// Config controls the generation client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int // extra attempts after the first, on 5xx or transport errors
}

// Client is an HTTP client for the chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReq struct {
	Model    string    `json:"model"`
	Messages []chatMsg `json:"messages"`
}

type chatResp struct {
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// roastPayload is the JSON shape the model is instructed to return.
type roastPayload struct {
	Title     string   `json:"title"`
	Zingers   []string `json:"zingers"`
	Insights  []string `json:"insights"`
	Verdict   string   `json:"verdict"`
	RiskScore float64  `json:"risk_score"`
}

// Generate produces a roast for the idea at the given harshness.
func (c *Client) Generate(ctx context.Context, input string, harshness int) (*domain.RoastResult, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, errors.New("llm: api key is required")
	}
	model := strings.TrimSpace(c.model)
	if model == "" {
		return nil, errors.New("llm: model is required")
	}

	reqBody := chatReq{
		Model: model,
		Messages: []chatMsg{
			{Role: "system", Content: systemPrompt(harshness)},
			{Role: "user", Content: "Startup idea: " + input},
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	content, err := c.complete(ctx, b)
	if err != nil {
		return nil, err
	}
	return parseRoast(content)
}

// complete posts the request, retrying on 5xx and transport errors.
func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	url := c.baseURL + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
			c.log.Debug().Int("attempt", attempt).Msg("retrying generation call")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		content, retryable, err := decodeCompletion(resp)
		if err != nil {
			lastErr = err
			if retryable {
				continue
			}
			return "", err
		}
		return content, nil
	}
	return "", fmt.Errorf("llm: %w", lastErr)
}

func decodeCompletion(resp *http.Response) (content string, retryable bool, err error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", resp.StatusCode >= 500, fmt.Errorf("llm: %s", msg)
	}

	var decoded chatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", false, err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", false, errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", false, errors.New("llm: empty response")
	}
	return decoded.Choices[0].Message.Content, false, nil
}

// systemPrompt sets the critique tone per harshness level.
func systemPrompt(harshness int) string {
	tone := "Be blunt and direct, but fair."
	switch harshness {
	case 1:
		tone = "Be constructive and encouraging while pointing out real weaknesses."
	case 3:
		tone = "Be brutal. Tear the idea apart without mercy, but stay factual."
	}
	return tone + ` You are a startup critic. Respond with a single JSON object, no prose, no code fences, with exactly these fields: ` +
		`"title" (a punchy headline for the critique), ` +
		`"zingers" (array of short cutting one-liners about the idea's flaws), ` +
		`"insights" (array of short concrete suggestions for improvement), ` +
		`"verdict" (one paragraph of overall judgement), ` +
		`"risk_score" (number from 1 to 10, 10 being near-certain failure).`
}

// parseRoast decodes and normalizes the model's reply. This is the single
// adapter between whatever the model emits and the canonical result shape.
func parseRoast(content string) (*domain.RoastResult, error) {
	raw := strings.TrimSpace(content)
	// Some models wrap JSON in fences despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var payload roastPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("llm: malformed roast payload: %w", err)
	}
	if payload.Title == "" || payload.Verdict == "" {
		return nil, errors.New("llm: roast payload missing required fields")
	}

	return &domain.RoastResult{
		Title:     payload.Title,
		Zingers:   payload.Zingers,
		Insights:  payload.Insights,
		Verdict:   payload.Verdict,
		RiskScore: clampScore(payload.RiskScore),
	}, nil
}

// clampScore forces the risk score into the canonical [1,10] range.
func clampScore(score float64) float64 {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}
