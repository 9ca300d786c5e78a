// Package dialogue implements the interview state machine: greet, ask
// questions until enough mood and ingredient signal is gathered, then
// recommend one drink.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/barback/internal/generation"
	"github.com/ziadkadry99/barback/internal/llm"
	"github.com/ziadkadry99/barback/internal/matcher"
)

// Replier produces one structured reply. *generation.Gateway implements it.
type Replier interface {
	Ask(ctx context.Context, system string, transcript []llm.Message) generation.StructuredReply
}

// Ranker ranks catalog drinks for a set of signals. *matcher.Matcher
// implements it.
type Ranker interface {
	Rank(ctx context.Context, ingredients, moods []string) ([]matcher.Candidate, error)
}

// Options configures an Engine.
type Options struct {
	Thresholds Thresholds
	Logger     *slog.Logger
	Now        func() time.Time
}

// Engine advances a session by exactly one transition per call. It keeps
// no per-session state of its own; callers persist the returned State.
type Engine struct {
	replier    Replier
	ranker     Ranker
	thresholds Thresholds
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(replier Replier, ranker Ranker, opts Options) *Engine {
	e := &Engine{
		replier:    replier,
		ranker:     ranker,
		thresholds: opts.Thresholds,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Thresholds returns the convergence thresholds in use.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Start creates a fresh session and greets the patron. It never fails: a
// canned greeting replaces any unusable generated one.
func (e *Engine) Start(ctx context.Context, sessionID string, c Context) (*State, OutboundTurn) {
	now := e.now().UTC()
	st := &State{
		SessionID:   sessionID,
		Transcript:  []Turn{},
		Moods:       SignalSet{},
		Ingredients: SignalSet{},
		Phase:       PhaseGreeting,
		Context:     c,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	f, ok := pickFact(sessionID, c)
	reply := e.replier.Ask(ctx, greetingPrompt(f, ok), []llm.Message{{Role: llm.RoleUser, Content: "Hello"}})

	greeting := reply.Text
	if reply.Fallback || !greetingAllowed(greeting, f, ok, c) {
		e.logger.Warn("using canned greeting", "session_id", sessionID, "fallback", reply.Fallback)
		greeting = cannedGreeting(f, ok)
	}

	// Greetings never carry options; the first question does.
	st.Transcript = append(st.Transcript, Turn{Speaker: SpeakerAssistant, Text: greeting})
	st.Phase = PhaseInterviewing

	e.logger.Info("session started", "session_id", sessionID, "phase", st.Phase)
	return st, e.outbound(st)
}

// greetingAllowed rejects greetings that talk about drinks or moods, that
// leave out the chosen context fact, or that mention any other one.
func greetingAllowed(text string, chosen fact, hasFact bool, c Context) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if hasFact && !strings.Contains(lower, strings.ToLower(chosen.value)) {
		return false
	}
	for _, w := range drinkTalk {
		if strings.Contains(lower, w) {
			return false
		}
	}
	for _, f := range c.facts() {
		if f == chosen {
			continue
		}
		if strings.Contains(lower, strings.ToLower(f.value)) {
			return false
		}
	}
	return true
}

// Resume applies one user turn to prev and returns the next state. prev is
// never modified, so a failed call leaves the caller's copy reusable.
func (e *Engine) Resume(ctx context.Context, prev *State, userText string) (*State, OutboundTurn, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, OutboundTurn{}, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if prev == nil {
		return nil, OutboundTurn{}, fmt.Errorf("%w: no session state", ErrInvalidInput)
	}
	if prev.Phase == PhaseDone {
		return nil, OutboundTurn{}, ErrConversationDone
	}
	if err := ctx.Err(); err != nil {
		return nil, OutboundTurn{}, err
	}

	st := prev.Clone()
	st.Phase = PhaseInterviewing
	st.Transcript = append(st.Transcript, Turn{Speaker: SpeakerUser, Text: text})

	var question generation.StructuredReply
	if !e.thresholds.Met(st.Moods, st.Ingredients) {
		question = e.nextQuestion(ctx, st)
	}
	if err := ctx.Err(); err != nil {
		return nil, OutboundTurn{}, err
	}

	if e.thresholds.Met(st.Moods, st.Ingredients) {
		if err := e.recommend(ctx, st); err != nil {
			return nil, OutboundTurn{}, err
		}
	} else {
		st.Transcript = append(st.Transcript, Turn{
			Speaker: SpeakerAssistant,
			Text:    question.Text,
			Options: question.Options,
		})
	}

	st.UpdatedAt = e.now().UTC()
	e.logger.Info("turn processed",
		"session_id", st.SessionID,
		"phase", st.Phase,
		"moods", []string(st.Moods),
		"ingredients", []string(st.Ingredients),
	)
	return st, e.outbound(st), nil
}

// nextQuestion asks for the next interview question and merges any signals
// it carries into st. A reply repeating either of the last two transcript
// entries is discarded and asked for once more; a second repeat is
// replaced by a generic nudge.
func (e *Engine) nextQuestion(ctx context.Context, st *State) generation.StructuredReply {
	system := questionPrompt()
	msgs := toMessages(st.Transcript)

	reply := e.replier.Ask(ctx, system, msgs)
	mergeSignals(st, reply)
	if !isDuplicate(st.Transcript, reply.Text) {
		return reply
	}

	e.logger.Warn("duplicate reply, asking again", "session_id", st.SessionID)
	reply = e.replier.Ask(ctx, system, msgs)
	mergeSignals(st, reply)
	if !isDuplicate(st.Transcript, reply.Text) {
		return reply
	}

	e.logger.Warn("duplicate reply again, using nudge", "session_id", st.SessionID)
	return generation.StructuredReply{
		Text:    nudge(st.Transcript),
		Options: append([]string(nil), nudgeOptions...),
	}
}

// recommend runs the Recommending step and leaves st in Done.
func (e *Engine) recommend(ctx context.Context, st *State) error {
	st.Phase = PhaseRecommending

	candidates, err := e.ranker.Rank(ctx, st.Ingredients, st.Moods)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMatcherUnavailable, err)
	}
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	top := candidates[0]

	rationale, err := e.rationale(ctx, top, st.Moods, st.Ingredients)
	if err != nil {
		return err
	}

	st.Recommendation = &Recommendation{
		ItemID:       top.ID,
		Name:         top.Name,
		Rationale:    rationale,
		ReferenceURL: top.ReferenceURL,
		Candidates:   candidates,
	}
	st.Transcript = append(st.Transcript, Turn{Speaker: SpeakerAssistant, Text: rationale})
	st.Phase = PhaseDone

	e.logger.Info("recommendation made", "session_id", st.SessionID, "item_id", top.ID, "similarity", top.Similarity)
	return nil
}

// Explain writes a rationale for any drink against the given moods and
// ingredient preferences, outside of a session. Both lists must carry at
// least one usable tag.
func (e *Engine) Explain(ctx context.Context, c matcher.Candidate, moods, ingredients []string) (string, error) {
	m := SignalSet(nil).Add(moods...)
	ing := SignalSet(nil).Add(ingredients...)
	if len(m) == 0 || len(ing) == 0 {
		return "", fmt.Errorf("%w: moods and preferences are required", ErrInvalidInput)
	}
	return e.rationale(ctx, c, m, ing)
}

func (e *Engine) rationale(ctx context.Context, c matcher.Candidate, moods, ingredients SignalSet) (string, error) {
	reply := e.replier.Ask(ctx, rationalePrompt(c, moods, ingredients), nil)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reply.Fallback {
		return cannedRationale(c, moods, ingredients), nil
	}
	return reply.Text, nil
}

func (e *Engine) outbound(st *State) OutboundTurn {
	out := OutboundTurn{
		SessionID:      st.SessionID,
		Options:        []string{},
		Phase:          st.Phase,
		Recommendation: st.Recommendation,
	}
	if last, ok := st.LastAssistantTurn(); ok {
		out.Message = last.Text
		if len(last.Options) > 0 {
			out.Options = append(out.Options, last.Options...)
		}
	}
	return out
}

func mergeSignals(st *State, reply generation.StructuredReply) {
	if reply.Fallback {
		return
	}
	st.Moods = st.Moods.Add(reply.Moods...)
	st.Ingredients = st.Ingredients.Add(reply.Ingredients...)
}

func isDuplicate(transcript []Turn, text string) bool {
	text = strings.TrimSpace(text)
	for i := len(transcript) - 1; i >= 0 && i >= len(transcript)-2; i-- {
		if transcript[i].Text == text {
			return true
		}
	}
	return false
}

// nudge picks a generic prompt that differs from the last two entries.
func nudge(transcript []Turn) string {
	for _, n := range nudges {
		if !isDuplicate(transcript, n) {
			return n
		}
	}
	return nudges[0]
}

func toMessages(transcript []Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(transcript))
	for _, t := range transcript {
		role := llm.RoleUser
		if t.Speaker == SpeakerAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	return msgs
}
