// Package generation wraps the text-generation provider behind a single
// call that always yields a usable StructuredReply.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/ziadkadry99/barback/internal/llm"
)

const (
	DefaultMaxAttempts = 3
	DefaultMaxOptions  = 3
	schemaName         = "bartender_reply"
)

// Options configures a Gateway.
type Options struct {
	Model       string
	MaxAttempts int
	MaxOptions  int
	Temperature float64
	Logger      *slog.Logger
}

// Gateway asks the provider for a StructuredReply, retrying with the same
// input on provider errors or invalid output. It holds no per-call state.
type Gateway struct {
	provider    llm.Provider
	model       string
	maxAttempts int
	maxOptions  int
	temperature float64
	schema      *jsonschema.Definition
	// accept is schema with only "message" required; the request schema
	// lists every field because strict providers demand it.
	accept jsonschema.Definition
	logger *slog.Logger
}

// New creates a Gateway. Zero values in opts select the defaults.
func New(provider llm.Provider, opts Options) (*Gateway, error) {
	schema, err := jsonschema.GenerateSchemaForType(StructuredReply{})
	if err != nil {
		return nil, fmt.Errorf("generating reply schema: %w", err)
	}
	g := &Gateway{
		provider:    provider,
		model:       opts.Model,
		maxAttempts: opts.MaxAttempts,
		maxOptions:  opts.MaxOptions,
		temperature: opts.Temperature,
		schema:      schema,
		accept:      *schema,
		logger:      opts.Logger,
	}
	g.accept.Required = []string{"message"}
	if g.maxAttempts <= 0 {
		g.maxAttempts = DefaultMaxAttempts
	}
	if g.maxOptions <= 0 {
		g.maxOptions = DefaultMaxOptions
	}
	if g.temperature == 0 {
		g.temperature = 0.7
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g, nil
}

// Ask sends the system instruction followed by the transcript. It never
// fails: after MaxAttempts unusable replies it returns FallbackReply.
func (g *Gateway) Ask(ctx context.Context, system string, transcript []llm.Message) StructuredReply {
	msgs := make([]llm.Message, 0, len(transcript)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	msgs = append(msgs, transcript...)

	req := llm.CompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		Temperature: g.temperature,
		Schema:      &llm.Schema{Name: schemaName, Definition: g.schema},
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		reply, err := g.try(ctx, req)
		if err == nil {
			return reply
		}
		g.logger.Warn("generation attempt failed",
			"provider", g.provider.Name(),
			"attempt", attempt,
			"max_attempts", g.maxAttempts,
			"error", err,
		)
	}

	g.logger.Error("generation exhausted, using fallback", "provider", g.provider.Name())
	return FallbackReply()
}

func (g *Gateway) try(ctx context.Context, req llm.CompletionRequest) (StructuredReply, error) {
	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return StructuredReply{}, fmt.Errorf("provider: %w", err)
	}

	body, err := dropNulls(stripFences(resp.Content))
	if err != nil {
		return StructuredReply{}, fmt.Errorf("invalid reply: %w", err)
	}
	var reply StructuredReply
	if err := jsonschema.VerifySchemaAndUnmarshal(g.accept, body, &reply); err != nil {
		return StructuredReply{}, fmt.Errorf("invalid reply: %w", err)
	}
	if err := reply.validate(g.maxOptions); err != nil {
		return StructuredReply{}, fmt.Errorf("invalid reply: %w", err)
	}
	return reply, nil
}

// dropNulls removes null-valued keys so an omitted list and a null list
// both decode as empty.
func dropNulls(s string) ([]byte, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	for k, v := range obj {
		if v == nil {
			delete(obj, k)
		}
	}
	return json.Marshal(obj)
}

// stripFences removes a markdown code fence some providers wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
