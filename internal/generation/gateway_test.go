package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/barback/internal/llm"
)

// scriptedProvider replays responses in order and records every request.
type scriptedProvider struct {
	responses []string
	errs      []error
	requests  []llm.CompletionRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := len(p.requests)
	p.requests = append(p.requests, req)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.responses) {
		return nil, errors.New("script exhausted")
	}
	return &llm.CompletionResponse{Content: p.responses[i]}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGateway(t *testing.T, p llm.Provider) *Gateway {
	t.Helper()
	g, err := New(p, Options{Logger: quietLogger()})
	require.NoError(t, err)
	return g
}

const validReply = `{"message":"What flavors are you into tonight?","options":["Something citrusy","Smoky and strong","I'll pick the ingredients"],"moods":["Relaxed"],"ingredients":["whiskey"]}`

func TestAskReturnsValidatedReply(t *testing.T) {
	p := &scriptedProvider{responses: []string{validReply}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", []llm.Message{{Role: llm.RoleUser, Content: "hi"}})

	assert.False(t, reply.Fallback)
	assert.Equal(t, "What flavors are you into tonight?", reply.Text)
	assert.Len(t, reply.Options, 3)
	assert.Equal(t, []string{"Relaxed"}, reply.Moods)
	assert.Equal(t, []string{"whiskey"}, reply.Ingredients)
	require.Len(t, p.requests, 1)
}

func TestAskAcceptsReplyWithoutSignals(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"message":"Welcome in!","options":[]}`}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)

	assert.False(t, reply.Fallback)
	assert.Equal(t, "Welcome in!", reply.Text)
	assert.Empty(t, reply.Moods)
	assert.Empty(t, reply.Ingredients)
	assert.Len(t, p.requests, 1)
}

func TestAskAcceptsNullLists(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"message":"Welcome in!","options":null,"moods":null,"ingredients":null}`}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)

	assert.False(t, reply.Fallback)
	assert.Equal(t, "Welcome in!", reply.Text)
	assert.Empty(t, reply.Options)
	assert.Len(t, p.requests, 1)
}

func TestAskRejectsMissingMessage(t *testing.T) {
	p := &scriptedProvider{responses: []string{`{"message":null,"options":[]}`, `{"options":[]}`, `{"moods":["calm"]}`}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)

	assert.True(t, reply.Fallback)
	assert.Len(t, p.requests, 3)
}

func TestAskSendsSystemFirstAndSchema(t *testing.T) {
	p := &scriptedProvider{responses: []string{validReply}}
	g := newGateway(t, p)

	g.Ask(context.Background(), "be a bartender", []llm.Message{
		{Role: llm.RoleAssistant, Content: "Welcome!"},
		{Role: llm.RoleUser, Content: "thanks"},
	})

	req := p.requests[0]
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be a bartender", req.Messages[0].Content)
	require.NotNil(t, req.Schema)
	assert.Equal(t, schemaName, req.Schema.Name)

	raw, err := json.Marshal(req.Schema.Definition)
	require.NoError(t, err)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.ElementsMatch(t, []any{"message", "options", "moods", "ingredients"}, schema["required"])
}

func TestAskRetriesOnInvalidOutput(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`not json`,
		`{"message":"","options":[],"moods":[],"ingredients":[]}`,
		validReply,
	}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)

	assert.False(t, reply.Fallback)
	assert.Len(t, p.requests, 3)
	for _, req := range p.requests[1:] {
		assert.Equal(t, p.requests[0].Messages, req.Messages, "retries reuse the same input")
	}
}

func TestAskRejectsTooManyOptions(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"message":"Pick one","options":["a","b","c","d"],"moods":[],"ingredients":[]}`,
		validReply,
	}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)
	assert.Len(t, p.requests, 2)
	assert.LessOrEqual(t, len(reply.Options), DefaultMaxOptions)
}

func TestAskFallsBackAfterMaxAttempts(t *testing.T) {
	boom := errors.New("rate limited")
	p := &scriptedProvider{errs: []error{boom, boom, boom, boom}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)

	assert.True(t, reply.Fallback)
	assert.Equal(t, fallbackText, reply.Text)
	assert.Len(t, reply.Options, 2)
	assert.Len(t, p.requests, DefaultMaxAttempts)
}

func TestAskStopsOnCancelledContext(t *testing.T) {
	p := &scriptedProvider{responses: []string{validReply}}
	g := newGateway(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply := g.Ask(ctx, "system", nil)
	assert.True(t, reply.Fallback)
	assert.Empty(t, p.requests)
}

func TestAskStripsCodeFences(t *testing.T) {
	p := &scriptedProvider{responses: []string{"```json\n" + validReply + "\n```"}}
	g := newGateway(t, p)

	reply := g.Ask(context.Background(), "system", nil)
	assert.False(t, reply.Fallback)
}

func TestFallbackReplyIsACopy(t *testing.T) {
	a := FallbackReply()
	a.Options[0] = "mutated"
	assert.NotEqual(t, "mutated", FallbackReply().Options[0])
}

func TestCustomAttempts(t *testing.T) {
	p := &scriptedProvider{}
	g, err := New(p, Options{MaxAttempts: 5, Logger: quietLogger()})
	require.NoError(t, err)

	g.Ask(context.Background(), "system", nil)
	assert.Len(t, p.requests, 5)
}
