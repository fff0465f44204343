package llm

import "context"

// LLMClient is the interface for chat-completion backends (OpenAI or any compatible endpoint)
type LLMClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error)
	// Ping issues the smallest possible completion to confirm the backend is reachable
	// and the credentials are accepted.
	Ping(ctx context.Context) error
}

// Ensure implementations satisfy the interface
var _ LLMClient = (*OpenAIClient)(nil)

// ChatMessage represents a chat message
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	// JSONMode asks the backend to return a single JSON object
	JSONMode bool `json:"json_mode,omitempty"`
}

// ChatResponse represents a chat completion response
type ChatResponse struct {
	Message      string `json:"message"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason"`
}

// Roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
