package questions

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

type category struct {
	name      string
	triggers  []string
	questions []string
}

// categories is ordered; the first category whose trigger occurs in the goal wins.
var categories = []category{
	{
		name:     "application",
		triggers: []string{"apply", "application", "admission", "enroll"},
		questions: []string{
			"Where can I find the admissions or application section?",
			"How do I navigate to the application portal or form?",
			"Where are the step-by-step application instructions?",
			"What is the direct link to start the application process?",
		},
	},
	{
		name:     "program",
		triggers: []string{"program", "degree", "course", "major"},
		questions: []string{
			"Where can I find detailed information about specific programs?",
			"How do I navigate to the academic programs section?",
			"Where are the degree requirements and curriculum details?",
			"How do I find contact information for the department?",
		},
	},
	{
		name:     "search",
		triggers: []string{"search", "find", "look"},
		questions: []string{
			"Where is the search interface located on the page?",
			"What search options or filters are available?",
			"How do I refine or modify search results?",
			"What information can I search for in this application?",
		},
	},
	{
		name:     "create",
		triggers: []string{"create", "add", "new", "make"},
		questions: []string{
			"How do I access the creation interface or button?",
			"What information is required to create a new item?",
			"Where can I find the form or modal for creation?",
			"What happens after successfully creating an item?",
		},
	},
	{
		name:     "edit",
		triggers: []string{"edit", "update", "modify", "change"},
		questions: []string{
			"How do I access editing functionality for existing items?",
			"What fields can be modified during editing?",
			"Where are the edit buttons or options located?",
			"How do I save changes after editing?",
		},
	},
	{
		name:     "delete",
		triggers: []string{"delete", "remove", "archive"},
		questions: []string{
			"How do I access deletion options?",
			"What confirmation steps are required for deletion?",
			"Where are delete buttons typically located?",
			"What happens to deleted items?",
		},
	},
	{
		name:     "filter",
		triggers: []string{"filter", "sort", "organize"},
		questions: []string{
			"Where is the filtering interface located?",
			"What filtering criteria are available?",
			"How do I apply and clear filters?",
			"Can filter settings be saved or customized?",
		},
	},
}

var genericQuestions = []string{
	"How do I access the main functionality for this task?",
	"What are the primary navigation paths in the application?",
	"Where are the key interactive elements located?",
	"What is the typical workflow from start to finish?",
}

// RuleQuestions returns the fixed question list for goal. It is deterministic.
func RuleQuestions(goal string) []string {
	g := strings.ToLower(goal)
	for _, c := range categories {
		for _, t := range c.triggers {
			if strings.Contains(g, t) {
				return append([]string(nil), c.questions...)
			}
		}
	}
	return append([]string(nil), genericQuestions...)
}

// RuleBased is the Generator used when no text-generation backend is available.
type RuleBased struct {
	memory *ConversationMemory
	now    func() time.Time
	logger *zap.Logger
}

// NewRuleBased creates a rule-based generator.
func NewRuleBased(logger *zap.Logger) *RuleBased {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleBased{
		memory: newMemory(time.Now),
		now:    time.Now,
		logger: logger.Named("questions"),
	}
}

// Generate ignores prior context; the rule table is keyed on the goal only.
func (r *RuleBased) Generate(_ context.Context, goal, _ string, maxQuestions int) []Question {
	return limit(r.fallback(goal), maxQuestions)
}

func (r *RuleBased) fallback(goal string) []Question {
	texts := RuleQuestions(goal)
	at := r.now()
	out := make([]Question, len(texts))
	for i, t := range texts {
		out[i] = Question{Text: t, Source: SourceFallback, CreatedAt: at}
	}
	return out
}

// UpdateContext records an exchange in conversation memory.
func (r *RuleBased) UpdateContext(question, summary string) {
	if !r.memory.Add(question, summary) {
		r.logger.Debug("Skipping conversation update, missing question or summary")
	}
}

// Memory exposes the conversation memory for inspection.
func (r *RuleBased) Memory() *ConversationMemory {
	return r.memory
}
