// Package session runs the per-request cycle: load the checkpoint, advance
// the dialogue one step, save.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ziadkadry99/barback/internal/checkpoint"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/matcher"
)

// DefaultHistoryLimit caps List when the caller gives no limit.
const DefaultHistoryLimit = 50

// Service composes the engine with a checkpoint store. It does not lock
// sessions; the transport serializes requests per session id.
type Service struct {
	engine *dialogue.Engine
	store  checkpoint.Checkpointer
	logger *slog.Logger
	newID  func() string
}

// NewService creates a Service.
func NewService(engine *dialogue.Engine, store checkpoint.Checkpointer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine: engine,
		store:  store,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}
}

// Start opens a new session and returns its greeting.
func (s *Service) Start(ctx context.Context, c dialogue.Context) (dialogue.OutboundTurn, error) {
	id := s.newID()
	st, out := s.engine.Start(ctx, id, c)
	if err := s.store.Save(ctx, id, st); err != nil {
		return dialogue.OutboundTurn{}, fmt.Errorf("saving new session: %w", err)
	}
	return out, nil
}

// Resume applies one user turn. The checkpoint is written only after the
// turn fully succeeds, so a failed call can be repeated with the same text.
// A finished session restarts under the same id with its original context.
func (s *Service) Resume(ctx context.Context, sessionID, text string) (dialogue.OutboundTurn, error) {
	if strings.TrimSpace(text) == "" {
		return dialogue.OutboundTurn{}, fmt.Errorf("%w: message is empty", dialogue.ErrInvalidInput)
	}
	if sessionID == "" {
		return dialogue.OutboundTurn{}, fmt.Errorf("%w: session id is required", dialogue.ErrInvalidInput)
	}

	prev, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return dialogue.OutboundTurn{}, err
	}

	next, out, err := s.engine.Resume(ctx, prev, text)
	if errors.Is(err, dialogue.ErrConversationDone) {
		s.logger.Info("restarting finished session", "session_id", sessionID)
		next, out = s.engine.Start(ctx, sessionID, prev.Context)
		err = nil
	}
	if err != nil {
		s.logger.Warn("turn failed, checkpoint untouched", "session_id", sessionID, "phase", prev.Phase, "error", err)
		return dialogue.OutboundTurn{}, err
	}

	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return dialogue.OutboundTurn{}, fmt.Errorf("saving session: %w", err)
	}
	return out, nil
}

// History returns the stored state of a session.
func (s *Service) History(ctx context.Context, sessionID string) (*dialogue.State, error) {
	return s.store.Load(ctx, sessionID)
}

// List returns the most recent sessions, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]checkpoint.Summary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.List(ctx, limit)
}

// Explain writes a rationale for a drink the caller picked, without
// touching any session.
func (s *Service) Explain(ctx context.Context, c matcher.Candidate, moods, ingredients []string) (string, error) {
	return s.engine.Explain(ctx, c, moods, ingredients)
}
