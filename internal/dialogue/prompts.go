package dialogue

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/ziadkadry99/barback/internal/matcher"
)

const persona = `You are a friendly and knowledgeable virtual bartender talking with a patron.
You help the patron find the perfect cocktail based on your conversation and the context you have.

Respond with a JSON object with the fields "message", "options", "moods" and "ingredients".
When you ask a straightforward question, give exactly 3 options the patron can reply with:
declarative (never questions), under 30 characters, no punctuation.`

// fact is one piece of the start context a greeting may allude to.
type fact struct {
	kind  string
	value string
}

// facts lists the non-empty context values in a fixed order.
func (c Context) facts() []fact {
	var out []fact
	if c.Location != "" {
		out = append(out, fact{"location", c.Location})
	}
	if c.Weather != "" {
		out = append(out, fact{"weather", c.Weather})
	}
	if c.LocalTime != "" {
		out = append(out, fact{"local time", c.LocalTime})
	}
	return out
}

// pickFact chooses the single fact a session's greeting refers to. The
// choice depends only on the session id so a retried start greets alike.
func pickFact(sessionID string, c Context) (fact, bool) {
	facts := c.facts()
	if len(facts) == 0 {
		return fact{}, false
	}
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return facts[h.Sum32()%uint32(len(facts))], true
}

func greetingPrompt(f fact, ok bool) string {
	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\nPHASE 1:\nWelcome the patron warmly with a sentence or two of small talk.\n")
	if ok {
		fmt.Fprintf(&sb, "The patron's %s is: %s.\n", f.kind, f.value)
	}
	sb.WriteString(`
CRITICAL RULES (MUST FOLLOW):
* Make one passing, natural reference to the fact above, using its exact wording; do not simply state it.
* Do not mention any other detail about the patron's location, weather or time.
* Do not ask about their mood or anything related to drinks yet.
* Do not pretend you are in the same physical place or live in their city; you are a virtual bartender.
* Return an empty options list.`)
	return sb.String()
}

const questionRules = `

PHASE 2:
Ask questions that reveal the patron's mood, target vibe and taste preferences, always aiming at the perfect cocktail.
Read between the lines of their tone to assess mood.

Fill "ingredients" only with ingredients the patron specifically mentioned in their latest reply.
Fill "moods" with one-word descriptors you interpret from their replies and demeanor (e.g. "morose", "relaxed", "energetic").

CRITICAL RULES (MUST FOLLOW):
* Always end your message with a question.
* Keep the conversation on cocktails and the patron's mood and preferences.
* Options are never questions, only declarative answers to the question in your message.
* If and only if your question is about ingredients, include the option "I'll pick the ingredients".
* Never say or suggest that you have enough information to suggest a drink.
* Do not ask about preparation or serving (shaken or stirred, glassware).
* Do not ask about allergies or dietary restrictions.
* Do not offer non-alcoholic drinks; if asked, explain you are a bartender specializing in cocktails.`

func questionPrompt() string {
	return persona + questionRules
}

func rationalePrompt(c matcher.Candidate, moods, ingredients SignalSet) string {
	return fmt.Sprintf(`You are a knowledgeable bartender presenting a personalized drink recommendation.

THE DRINK:
Name: %s
Details: %s

THE PATRON:
Current mood/vibe: %s
Drink preferences: %s

In at most three sentences, explain why this exact drink suits this patron.
Reference their moods and preferences and connect them to the drink's ingredients and character.
Keep it natural and conversational.
Put the explanation in "message"; leave "options", "moods" and "ingredients" empty.`,
		c.Name, c.Description, strings.Join(moods, ", "), strings.Join(ingredients, ", "))
}

// cannedGreeting is used when generation fails or breaks the greeting rules.
func cannedGreeting(f fact, ok bool) string {
	if !ok {
		return "Hi there, welcome in! Glad you stopped by."
	}
	switch f.kind {
	case "location":
		return fmt.Sprintf("Hi there, welcome in! Hope all is well over in %s.", f.value)
	case "weather":
		return fmt.Sprintf("Hi there, welcome in! Hope you're making the most of the %s weather.", strings.ToLower(f.value))
	default:
		return fmt.Sprintf("Hi there, welcome in! Thanks for stopping by at %s.", f.value)
	}
}

// cannedRationale names the drink and the signals when no generated
// rationale is available.
func cannedRationale(c matcher.Candidate, moods, ingredients SignalSet) string {
	return fmt.Sprintf("I'd pour you a %s. It plays to your taste for %s and suits a %s mood.",
		c.Name, joinList(ingredients), joinList(moods))
}

var nudges = []string{
	"Interesting! Tell me more...",
	"I'd love to hear a bit more about that.",
	"Go on, what else is on your mind tonight?",
}

var nudgeOptions = []string{"Something refreshing", "Something strong", "Surprise me"}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return "something new"
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// drinkTalk are words a greeting must not contain.
var drinkTalk = []string{"drink", "cocktail", "mood", "thirsty", "what can i get", "what'll it be"}
