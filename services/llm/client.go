package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

type GenerationParams struct {
	// Model overrides the client's default model for this request. Pipeline
	// phases use different models, so this rides on params rather than on
	// client construction.
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition describes one function the model may call. Parameters is a
// JSON Schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is one function invocation returned by the model. Arguments is the
// raw JSON argument object, left undecoded for the caller.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResponse carries both the free-text reply and any tool calls the model
// emitted. Either part may be empty.
type ToolResponse struct {
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls"`
}

// LLMClient defines the standard interface for any LLM backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	GenerateWithTools(ctx context.Context, system string, messages []Message,
		tools []ToolDefinition, params GenerationParams) (*ToolResponse, error)
}

// NewClientFromEnv selects a backend from LLM_BACKEND ("openai" or "ollama",
// default openai).
func NewClientFromEnv() (LLMClient, error) {
	switch backend := os.Getenv("LLM_BACKEND"); backend {
	case "", "openai":
		return NewOpenAIClient()
	case "ollama":
		return NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown LLM_BACKEND %q", backend)
	}
}
