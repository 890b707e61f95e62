package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ChatProvider calls an OpenAI-compatible chat-completions endpoint.
//
// Only wired up when a provider endpoint is configured. The client carries no
// timeout of its own; cancellation comes from the request context.
type ChatProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	logger   *zap.Logger
}

// ChatConfig configures the ChatProvider.
type ChatConfig struct {
	Endpoint string // base URL, e.g. "https://api.example.com"
	APIKey   string
	Model    string
	Logger   *zap.Logger
}

// NewChatProvider validates the config and returns a ChatProvider.
func NewChatProvider(cfg ChatConfig) (*ChatProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("NewChatProvider: endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("NewChatProvider: model is required")
	}
	return &ChatProvider{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{},
		logger:   cfg.Logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the redacted message downstream and returns the answer text.
func (p *ChatProvider) Generate(ctx context.Context, req Request) (string, error) {
	messages := []chatMessage{{Role: "user", Content: req.Message}}
	if len(req.Topics) > 0 {
		messages = append([]chatMessage{{
			Role:    "system",
			Content: "The user's message touches sensitive topics: " + strings.Join(req.Topics, ", ") + ". Answer carefully and factually.",
		}}, messages...)
	}

	body, err := json.Marshal(chatRequest{Model: p.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("ChatProvider.Generate: marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ChatProvider.Generate: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ChatProvider.Generate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ChatProvider.Generate: read body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("ChatProvider.Generate: decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := ""
		if parsed.Error != nil {
			detail = ": " + parsed.Error.Message
		}
		return "", fmt.Errorf("ChatProvider.Generate: provider returned %d%s", resp.StatusCode, detail)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("ChatProvider.Generate: provider returned no choices")
	}

	if p.logger != nil {
		p.logger.Debug("provider call completed",
			zap.String("session_id", req.SessionID),
			zap.Int("response_len", len(parsed.Choices[0].Message.Content)),
		)
	}
	return parsed.Choices[0].Message.Content, nil
}
