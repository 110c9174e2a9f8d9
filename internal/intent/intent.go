// Package intent routes a question to the exploration strategy that should
// answer it.
package intent

import "strings"

// Kind identifies an exploration strategy.
type Kind string

const (
	Navigation  Kind = "navigation"
	Interaction Kind = "interaction"
	Form        Kind = "form"
	Search      Kind = "search"
	// Ambiguous questions try navigation first and fall back to interaction.
	Ambiguous Kind = "ambiguous"
)

type rule struct {
	kind Kind
	cues []string
}

// Navigation cues come first: most generated questions are navigation-shaped.
var rules = []rule{
	{Navigation, []string{"where", "navigation", "access", "located", "find", "locate"}},
	{Navigation, []string{"menu", "dropdown", "select", "choose"}},
	{Interaction, []string{"button", "click", "interact", "press", "tap"}},
	{Form, []string{"form", "field", "input", "required", "enter", "type", "fill"}},
	{Search, []string{"search", "query", "lookup"}},
}

// Classify returns the strategy for question. Cues are matched as substrings of
// the lower-cased question and the first matching rule wins.
func Classify(question string) Kind {
	q := strings.ToLower(question)
	for _, r := range rules {
		for _, cue := range r.cues {
			if strings.Contains(q, cue) {
				return r.kind
			}
		}
	}
	return Ambiguous
}
