package questions

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/ai"
)

const initialPrompt = `I need to explore a website to find specific information about: "%[1]s"

As an AI assistant helping someone navigate a website to accomplish a specific task, generate ONE specific, actionable question that will help find the exact information or functionality needed.

The question should focus on:
- Navigation to find specific sections/pages
- Locating application forms or procedures
- Finding detailed information about processes
- Discovering where specific actions can be performed

Goal: %[1]s

Generate exactly ONE specific navigation-focused question that will help accomplish this goal:`

const followUpPrompt = `We're exploring a website to: "%s"

Based on our previous exploration:
%s

Now generate exactly ONE follow-up question that will help us dig deeper to find the specific information or functionality we need. Focus on:

- Navigating to more specific sections based on what we've learned
- Finding the exact information needed for our goal
- Locating forms, procedures, or detailed content
- Discovering where the actual task can be completed

Generate exactly ONE specific follow-up navigation question:`

const (
	minQuestionLen = 15
	maxQuestionLen = 150
	promptHistory  = 2
)

var (
	candidateMarkers = []string{"how", "what", "where", "when", "why", "which", "find", "locate", "navigate"}
	keepMarkers      = []string{"how", "what", "where", "find", "locate", "navigate"}

	numberingPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletPrefix    = regexp.MustCompile(`^[-*]\s*`)
	echoPrefix      = regexp.MustCompile(`(?i)^(question|follow.up|generate|goal).*?:`)
)

// GenerationRecord is the provenance of one successful backend call.
type GenerationRecord struct {
	Goal      string
	Prompt    string
	Output    string
	Questions []string
	At        time.Time
}

// Generative asks a text-generation backend for questions and falls back to
// the rule table when the backend fails or yields nothing usable.
type Generative struct {
	backend  ai.Backend
	opts     ai.Options
	fallback *RuleBased
	memory   *ConversationMemory
	log      []GenerationRecord
	now      func() time.Time
	logger   *zap.Logger
}

// NewGenerative creates a generator backed by backend.
func NewGenerative(backend ai.Backend, logger *zap.Logger) *Generative {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := NewRuleBased(logger)
	return &Generative{
		backend:  backend,
		opts:     ai.DefaultOptions(),
		fallback: fallback,
		memory:   fallback.memory,
		now:      time.Now,
		logger:   logger.Named("questions"),
	}
}

// Generate calls the backend once. Any backend error, empty output or output
// without usable question lines yields the rule-based questions instead.
func (g *Generative) Generate(ctx context.Context, goal, prior string, maxQuestions int) []Question {
	prompt := g.buildPrompt(goal, prior)

	output, err := g.backend.Generate(ctx, prompt, g.opts)
	if err != nil {
		g.logger.Warn("Question generation failed, using rule-based questions", zap.Error(err))
		return g.fallback.Generate(ctx, goal, prior, maxQuestions)
	}

	texts := ExtractQuestions(output, prompt)
	if len(texts) == 0 {
		g.logger.Warn("Backend output had no usable questions, using rule-based questions",
			zap.Int("output_len", len(output)))
		return g.fallback.Generate(ctx, goal, prior, maxQuestions)
	}

	at := g.now()
	g.log = append(g.log, GenerationRecord{
		Goal:      goal,
		Prompt:    prompt,
		Output:    output,
		Questions: texts,
		At:        at,
	})
	g.logger.Debug("Generated questions", zap.Int("count", len(texts)))

	out := make([]Question, len(texts))
	for i, t := range texts {
		out[i] = Question{Text: t, Source: SourceGenerated, CreatedAt: at}
	}
	return limit(out, maxQuestions)
}

// UpdateContext records an exchange in conversation memory.
func (g *Generative) UpdateContext(question, summary string) {
	g.fallback.UpdateContext(question, summary)
}

// Memory exposes the conversation memory for inspection.
func (g *Generative) Memory() *ConversationMemory {
	return g.memory
}

// Log returns the provenance records of successful generations.
func (g *Generative) Log() []GenerationRecord {
	return append([]GenerationRecord(nil), g.log...)
}

func (g *Generative) buildPrompt(goal, prior string) string {
	recent := g.memory.Recent(promptHistory)
	if prior == "" || len(recent) == 0 {
		return fmt.Sprintf(initialPrompt, goal)
	}
	lines := make([]string, len(recent))
	for i, ex := range recent {
		lines[i] = fmt.Sprintf("Previous Question: %s\nWhat we learned: %s", ex.Question, ex.Summary)
	}
	return fmt.Sprintf(followUpPrompt, goal, strings.Join(lines, "\n"))
}

// ExtractQuestions pulls question-like lines out of backend output, stripping
// numbering, bullets and echoed prompt prefixes. Lines that restate the prompt
// are dropped.
func ExtractQuestions(output, prompt string) []string {
	var out []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if !strings.Contains(line, "?") && !containsAny(lower, candidateMarkers) {
			continue
		}

		line = numberingPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		line = echoPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		lower = strings.ToLower(line)

		if n := utf8.RuneCountInString(line); n < minQuestionLen || n > maxQuestionLen {
			continue
		}
		if !strings.Contains(line, "?") && !containsAny(lower, keepMarkers) {
			continue
		}
		if strings.HasPrefix(lower, "goal:") || strings.HasPrefix(lower, "generate") {
			continue
		}
		if prompt != "" && strings.Contains(prompt, line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
