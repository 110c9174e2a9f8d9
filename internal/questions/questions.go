// Package questions produces the questions that drive exploration.
//
// Two Generator implementations exist: RuleBased, which picks questions from a
// fixed table keyed on goal vocabulary, and Generative, which asks a
// text-generation backend and falls back to the rule table whenever the backend
// fails or returns nothing usable. Both own a bounded ConversationMemory fed
// through UpdateContext.
package questions

import (
	"context"
	"time"
)

// Source records where a question came from.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Question is one candidate question.
type Question struct {
	Text      string
	Source    Source
	CreatedAt time.Time
}

// Texts returns the question strings in order.
func Texts(qs []Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Text
	}
	return out
}

// Generator produces candidate next questions for a goal.
type Generator interface {
	// Generate returns between 1 and maxQuestions questions. prior is the
	// summary of the most recent UI state, empty for the first batch.
	Generate(ctx context.Context, goal, prior string, maxQuestions int) []Question
	// UpdateContext records a consumed question and what was learned from it.
	UpdateContext(question, summary string)
}

func limit(qs []Question, n int) []Question {
	if n > 0 && len(qs) > n {
		return qs[:n]
	}
	return qs
}
