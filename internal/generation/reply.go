package generation

import (
	"fmt"
	"strings"
)

// StructuredReply is the validated shape of every generated turn.
type StructuredReply struct {
	Text        string   `json:"message" description:"Conversational response to the patron"`
	Options     []string `json:"options" description:"Short declarative replies the patron can pick from"`
	Moods       []string `json:"moods" description:"One-word mood descriptors read from the patron's latest replies"`
	Ingredients []string `json:"ingredients" description:"Ingredients the patron explicitly mentioned"`

	// Fallback is set when the reply is the deterministic fallback rather
	// than provider output.
	Fallback bool `json:"-"`
}

const (
	fallbackText = "Sorry, I lost my train of thought for a second there. Could you tell me that again?"
)

var fallbackOptions = []string{"Let me try again", "Surprise me"}

// FallbackReply is returned when no valid reply could be produced.
func FallbackReply() StructuredReply {
	return StructuredReply{
		Text:     fallbackText,
		Options:  append([]string(nil), fallbackOptions...),
		Fallback: true,
	}
}

// validate applies the constraints the JSON schema cannot express.
func (r *StructuredReply) validate(maxOptions int) error {
	r.Text = strings.TrimSpace(r.Text)
	if r.Text == "" {
		return fmt.Errorf("empty message")
	}
	if len(r.Options) > maxOptions {
		return fmt.Errorf("%d options, at most %d allowed", len(r.Options), maxOptions)
	}
	opts := r.Options[:0]
	for _, o := range r.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	r.Options = opts
	return nil
}
