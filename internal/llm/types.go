package llm

import (
	"context"
	"encoding/json"
)

// Provider generates text completions.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Schema names a JSON schema the completion must conform to.
type Schema struct {
	Name       string
	Definition json.Marshaler
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// JSONMode asks for a JSON object without a particular shape. Schema,
	// when set, takes precedence.
	JSONMode bool
	Schema   *Schema
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// schemaInstruction renders a schema as a plain-text instruction for
// providers without native structured output.
func schemaInstruction(s *Schema) (string, error) {
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return "", err
	}
	return "Respond only with a JSON object that validates against this JSON schema (" + s.Name + "):\n" + string(raw), nil
}
