package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/averin/ai-chat-api/internal/models"
	"github.com/averin/ai-chat-api/internal/shared"
)

// DefaultTimeout bounds every upstream call. No retries happen here; retry
// policy is a caller concern.
const DefaultTimeout = 30 * time.Second

// CompletionProvider is the capability handlers and the worker depend on.
type CompletionProvider interface {
	Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error)
}

// Client calls an OpenAI-compatible chat completion API, plus the
// HuggingFace inference API as an alternative text generation service.
type Client struct {
	baseURL    string
	apiKey     string
	hfBaseURL  string
	hfAPIKey   string
	httpClient *http.Client
}

// NewClient creates a gateway client. baseURL is the OpenAI-style API root
// ("https://api.openai.com/v1"); hfBaseURL is the HuggingFace inference
// models root and may be empty if that service is unused.
func NewClient(baseURL, apiKey, hfBaseURL, hfAPIKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		hfBaseURL:  hfBaseURL,
		hfAPIKey:   hfAPIKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage models.TokenUsage `json:"usage"`
}

// Complete forwards a chat request to the provider and normalizes the
// response. Provider throttling maps to shared.ErrRateLimited, network and
// deadline failures to shared.ErrTimeout, and anything else non-2xx to
// shared.ErrUpstream, so callers can tell "back off" from "transient" from
// "broken".
func (c *Client) Complete(ctx context.Context, req models.CompletionRequest) (*models.CompletionResult, error) {
	payload := chatCompletionRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Message}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, translateTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", shared.ErrUpstream, err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("%w: response contained no choices", shared.ErrUpstream)
	}

	created := time.Now().UTC()
	if decoded.Created > 0 {
		created = time.Unix(decoded.Created, 0).UTC()
	}

	return &models.CompletionResult{
		ID:        decoded.ID,
		Message:   decoded.Choices[0].Message.Content,
		Model:     decoded.Model,
		Usage:     decoded.Usage,
		CreatedAt: created,
	}, nil
}

// GenerateText calls the HuggingFace inference API for the given model and
// returns the raw provider payload.
func (c *Client) GenerateText(ctx context.Context, prompt, model string) (json.RawMessage, error) {
	if c.hfBaseURL == "" {
		return nil, fmt.Errorf("%w: huggingface service not configured", shared.ErrUpstream)
	}

	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s", c.hfBaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.hfAPIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.hfAPIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, translateTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", shared.ErrUpstream, err)
	}
	return json.RawMessage(raw), nil
}

// checkStatus maps a non-2xx provider response onto the error taxonomy.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: provider returned 429", shared.ErrRateLimited)
	case resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%w: provider returned %d", shared.ErrTimeout, resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", shared.ErrUpstream, resp.StatusCode, bytes.TrimSpace(body))
	}
}

// translateTransportError classifies client-side failures. Context
// cancellation and deadline expiry, plus any net error reporting a timeout,
// become shared.ErrTimeout; everything else is an upstream failure.
func translateTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
}
