// Package fireworks implements llm.Completer against the Fireworks AI
// OpenAI-compatible chat completions endpoint.
package fireworks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/supallama/supallama/internal/debug"
	"github.com/supallama/supallama/internal/llm"
)

// DefaultBaseURL is the Fireworks inference API root.
const DefaultBaseURL = "https://api.fireworks.ai/inference/v1"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 16 * 1024 * 1024

// Config holds connection settings for the Fireworks API.
type Config struct {
	APIKey    string
	BaseURL   string        // defaults to DefaultBaseURL
	Timeout   time.Duration // whole-request bound; zero means none
	MaxTokens int           // omitted from the request when zero

	// HTTPClient overrides the client used for requests (tests).
	HTTPClient *http.Client
}

// Client is a Fireworks chat completion client.
type Client struct {
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

var _ llm.Completer = (*Client)(nil)

// New returns a Client. A missing API key is reported as an llm.ErrAuth
// error here, before any request can be made.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, llm.NewAuthError("no API key configured (set FIREWORKS_AI_KEY)")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		maxTokens:  cfg.MaxTokens,
		httpClient: httpClient,
	}, nil
}

// Complete sends a non-streaming chat completion request and returns the
// content of the first choice.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message) (string, error) {
	body, err := c.requestBody(model, messages)
	if err != nil {
		return "", fmt.Errorf("build request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)

	debug.Log("chat completion request", "model", model, "messages", len(messages), "request_id", requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &llm.Error{Kind: llm.ErrNetwork, Message: "send request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &llm.Error{Kind: llm.ErrNetwork, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	debug.Log("chat completion response", "status", resp.StatusCode, "bytes", len(respBody),
		"elapsed", time.Since(start).Round(time.Millisecond), "request_id", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp, respBody)
	}
	return parseContent(respBody)
}

func (c *Client) requestBody(model string, messages []llm.Message) ([]byte, error) {
	msgs := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, map[string]string{"role": m.Role, "content": m.Content})
	}

	body, err := sjson.SetBytes([]byte(`{}`), "model", model)
	if err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "messages", msgs); err != nil {
		return nil, err
	}
	if c.maxTokens > 0 {
		if body, err = sjson.SetBytes(body, "max_tokens", c.maxTokens); err != nil {
			return nil, err
		}
	}
	return sjson.SetBytes(body, "stream", false)
}

// parseContent extracts choices[0].message.content.
func parseContent(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &llm.Error{Kind: llm.ErrMalformedResponse, Message: "response is not valid JSON"}
	}
	choices := gjson.GetBytes(body, "choices")
	if !choices.IsArray() || len(choices.Array()) == 0 {
		return "", &llm.Error{Kind: llm.ErrMalformedResponse, Message: "response has no completion choices"}
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if content.Type != gjson.String {
		return "", &llm.Error{Kind: llm.ErrMalformedResponse, Message: "first choice has no message content"}
	}
	return content.String(), nil
}

func statusError(resp *http.Response, body []byte) error {
	e := &llm.Error{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Kind = llm.ErrAuth
	case http.StatusTooManyRequests:
		e.Kind = llm.ErrRateLimited
		if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	default:
		e.Kind = llm.ErrAPI
	}
	return e
}

// errorMessage pulls a human-readable message out of an error body.
// Fireworks uses {"error": {"message": ...}}; some gateways send
// {"error": "..."} or plain text.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message"); msg.Type == gjson.String {
			return msg.String()
		}
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
			return msg.String()
		}
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
			return msg.String()
		}
	}
	text := strings.TrimSpace(string(body))
	const maxLen = 512
	if len(text) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}
