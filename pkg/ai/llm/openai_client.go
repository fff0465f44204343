package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse is returned when the backend answers without any choice
var ErrEmptyResponse = errors.New("no response from llm")

// OpenAIClient wraps the go-openai client. BaseURL makes it usable against any
// OpenAI-compatible endpoint (Ollama, vLLM, Azure proxies).
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      logger.Logger
}

// Config for the OpenAI client
type Config struct {
	APIKey      string
	BaseURL     string        // default: https://api.openai.com/v1
	Model       string        // default: gpt-4o-mini
	Temperature float32       // default: 0.7
	MaxTokens   int           // default: 2000
	Timeout     time.Duration // 0 means no client-side timeout
	HTTPClient  *http.Client
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg Config, log logger.Logger) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if log == nil {
		log = logger.Default()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      log.With("component", "llm", "model", cfg.Model),
	}
}

// Chat sends a chat completion request
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("llm chat failed", "error", err, "duration", duration)
		return nil, fmt.Errorf("openai chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	c.logger.Debug("llm chat completed", "tokens", resp.Usage.TotalTokens, "duration", duration)

	return &ChatResponse{
		Message:      resp.Choices[0].Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// Complete sends a single prompt with an optional system prompt
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	var messages []ChatMessage
	if len(systemPrompt) > 0 && systemPrompt[0] != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: systemPrompt[0]})
	}
	messages = append(messages, ChatMessage{Role: RoleUser, Content: prompt})

	resp, err := c.Chat(ctx, ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Ping sends a one-token completion
func (c *OpenAIClient) Ping(ctx context.Context) error {
	_, err := c.Chat(ctx, ChatRequest{
		Messages:  []ChatMessage{{Role: RoleUser, Content: PingPrompt}},
		MaxTokens: 1,
	})
	return err
}
