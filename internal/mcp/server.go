// Package mcp exposes the bartender to AI agents over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/barback/internal/catalog"
	"github.com/ziadkadry99/barback/internal/matcher"
	"github.com/ziadkadry99/barback/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Ranker ranks the catalog against gathered signals.
type Ranker interface {
	Rank(ctx context.Context, ingredients, moods []string) ([]matcher.Candidate, error)
}

// Server wraps an MCP server that exposes drink lookup and conversation tools.
type Server struct {
	ranker   Ranker
	drinks   *catalog.Store
	sessions *session.Service
	mcp      *server.MCPServer

	// Conversation tools are serialized; the session service does no
	// per-session locking of its own.
	mu sync.Mutex
}

// NewServer creates a new MCP server. sessions may be nil, in which case
// the conversation tools are not registered.
func NewServer(ranker Ranker, drinks *catalog.Store, sessions *session.Service) *Server {
	s := &Server{
		ranker:   ranker,
		drinks:   drinks,
		sessions: sessions,
	}

	s.mcp = server.NewMCPServer(
		"barback",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(rankDrinksTool, s.handleRankDrinks)
	s.mcp.AddTool(getDrinkTool, s.handleGetDrink)
	if s.sessions != nil {
		s.mcp.AddTool(startConversationTool, s.handleStartConversation)
		s.mcp.AddTool(sendMessageTool, s.handleSendMessage)
	}
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
