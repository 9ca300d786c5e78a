package dialogue

import (
	"time"

	"github.com/ziadkadry99/barback/internal/matcher"
)

// Phase is a step of the interview. Phases only move forward, except
// that Interviewing may repeat.
type Phase string

const (
	PhaseGreeting     Phase = "greeting"
	PhaseInterviewing Phase = "interviewing"
	PhaseRecommending Phase = "recommending"
	PhaseDone         Phase = "done"
)

// Speaker identifies who produced a transcript turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one transcript entry.
type Turn struct {
	Speaker Speaker  `json:"speaker"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
}

// Context is the snapshot of the patron's surroundings captured at start.
type Context struct {
	Weather   string `json:"weather,omitempty"`
	Location  string `json:"location,omitempty"`
	LocalTime string `json:"local_time,omitempty"`
}

// Recommendation is the final pick, set once when the session reaches Done.
type Recommendation struct {
	ItemID       string              `json:"item_id"`
	Name         string              `json:"name"`
	Rationale    string              `json:"rationale"`
	ReferenceURL string              `json:"reference_url,omitempty"`
	Candidates   []matcher.Candidate `json:"candidates,omitempty"`
}

// State is everything needed to resume a session.
type State struct {
	SessionID      string          `json:"session_id"`
	Transcript     []Turn          `json:"transcript"`
	Moods          SignalSet       `json:"moods"`
	Ingredients    SignalSet       `json:"ingredients"`
	Phase          Phase           `json:"phase"`
	Context        Context         `json:"context"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Clone returns a deep copy; transitions work on a clone so a failed step
// never touches the caller's state.
func (s *State) Clone() *State {
	c := *s
	c.Transcript = cloneSlice(s.Transcript)
	for i := range c.Transcript {
		c.Transcript[i].Options = cloneSlice(c.Transcript[i].Options)
	}
	c.Moods = cloneSlice(s.Moods)
	c.Ingredients = cloneSlice(s.Ingredients)
	if s.Recommendation != nil {
		r := *s.Recommendation
		r.Candidates = cloneSlice(s.Recommendation.Candidates)
		c.Recommendation = &r
	}
	return &c
}

// cloneSlice copies s, keeping nil and empty distinct.
func cloneSlice[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	out := make(S, len(s))
	copy(out, s)
	return out
}

// LastAssistantTurn returns the most recent assistant turn, if any.
func (s *State) LastAssistantTurn() (Turn, bool) {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Speaker == SpeakerAssistant {
			return s.Transcript[i], true
		}
	}
	return Turn{}, false
}

// OutboundTurn is what the patron sees after a transition.
type OutboundTurn struct {
	SessionID      string          `json:"session_id"`
	Message        string          `json:"message"`
	Options        []string        `json:"options"`
	Phase          Phase           `json:"phase"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}
