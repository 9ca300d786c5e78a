package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/barback/internal/checkpoint"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/matcher"
)

// handleRankDrinks ranks the catalog against the given signals.
func (s *Server) handleRankDrinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ingredients := splitTags(request.GetString("ingredients", ""))
	moods := splitTags(request.GetString("moods", ""))
	if len(ingredients) == 0 && len(moods) == 0 {
		return mcp.NewToolResultError("give at least one ingredient or mood"), nil
	}

	candidates, err := s.ranker.Rank(ctx, ingredients, moods)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ranking failed: %v", err)), nil
	}
	if len(candidates) == 0 {
		return mcp.NewToolResultText("No drinks indexed yet. Run `barback catalog import <file>` first."), nil
	}

	return mcp.NewToolResultText(matcher.FormatCandidates(candidates)), nil
}

// handleGetDrink returns one catalog entry.
func (s *Server) handleGetDrink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	if s.drinks == nil {
		return mcp.NewToolResultError("catalog not available"), nil
	}

	d, err := s.drinks.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load drink: %v", err)), nil
	}
	if d == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no drink with id %q", id)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	if d.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Description)
	}
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(d.Ingredients, ", "))
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "Moods: %s\n", strings.Join(d.Tags, ", "))
	}
	if d.ReferenceURL != "" {
		fmt.Fprintf(&b, "Recipe: %s\n", d.ReferenceURL)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleStartConversation opens a new session.
func (s *Server) handleStartConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.sessions.Start(ctx, dialogue.Context{
		Location:  request.GetString("location", ""),
		Weather:   request.GetString("weather", ""),
		LocalTime: request.GetString("time", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not start conversation: %v", err)), nil
	}
	return mcp.NewToolResultText(formatTurn(turn)), nil
}

// handleSendMessage advances a session by one patron message.
func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.sessions.Resume(ctx, sessionID, message)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("session %q not found or expired; call start_conversation", sessionID)), nil
	case errors.Is(err, dialogue.ErrInvalidInput):
		return mcp.NewToolResultError(err.Error()), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("the bartender could not answer, try again: %v", err)), nil
	}
	return mcp.NewToolResultText(formatTurn(turn)), nil
}

// formatTurn renders an outbound turn as plain text for the agent.
func formatTurn(turn dialogue.OutboundTurn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "session_id: %s\nphase: %s\n\n%s\n", turn.SessionID, turn.Phase, turn.Message)
	if len(turn.Options) > 0 {
		b.WriteString("\nSuggested answers:\n")
		for _, o := range turn.Options {
			fmt.Fprintf(&b, "- %s\n", o)
		}
	}
	if rec := turn.Recommendation; rec != nil {
		fmt.Fprintf(&b, "\nRecommended: %s (id %s)\n", rec.Name, rec.ItemID)
		if rec.ReferenceURL != "" {
			fmt.Fprintf(&b, "Recipe: %s\n", rec.ReferenceURL)
		}
	}
	return b.String()
}

// splitTags splits a comma-separated list into normalized tags.
func splitTags(s string) []string {
	return dialogue.SignalSet(nil).Add(strings.Split(s, ",")...)
}
