package strategy

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/uistate"
)

var commonPhrases = []string{
	"search", "find", "explore", "discover", "learn more", "get started",
	"view", "see", "browse", "filter", "sort", "create", "add", "new",
	"edit", "update", "manage", "settings", "options", "preferences",
}

var clickableSelectors = []string{"button", "a", `[role="button"]`, "[onclick]"}

const clicksPerPhrase = 3

// Interaction clicks elements whose text contains a common action phrase or a
// request keyword, and returns the first state reached at a new URL.
func (e *Explorer) Interaction(ctx context.Context, req Request) *uistate.UIState {
	before, ok := e.currentURL(ctx)
	if !ok {
		return nil
	}
	phrases := interactionPhrases(req.Keywords())

	for _, sel := range clickableSelectors {
		for _, phrase := range phrases {
			if ctx.Err() != nil {
				return nil
			}
			for _, el := range e.matchText(ctx, sel, phrase) {
				text := e.elementText(ctx, el)
				if text == "" {
					continue
				}
				desc := fmt.Sprintf("Interaction: clicked '%s'", text)
				state := e.clickAndCapture(ctx, el, before, desc, uistate.KindInteraction, e.opts.InteractionSettle)
				if state != nil {
					return state
				}
			}
		}
	}
	e.logger.Debug("Interaction found no page change", zap.String("question", req.Question))
	return nil
}

// matchText looks up by exact case first, then case-insensitively.
func (e *Explorer) matchText(ctx context.Context, selector, phrase string) []Element {
	els, err := e.session.QueryText(ctx, selector, phrase, false)
	if err != nil || len(els) == 0 {
		els, err = e.session.QueryText(ctx, selector, phrase, true)
		if err != nil {
			e.logger.Debug("Text query failed", zap.String("selector", selector), zap.String("phrase", phrase), zap.Error(err))
			return nil
		}
	}
	if len(els) > clicksPerPhrase {
		els = els[:clicksPerPhrase]
	}
	return els
}

// interactionPhrases returns the common phrases followed by the keywords,
// without duplicates or words of two letters or fewer.
func interactionPhrases(kw []string) []string {
	seen := make(map[string]bool, len(commonPhrases)+len(kw))
	out := make([]string, 0, len(commonPhrases)+len(kw))
	for _, list := range [][]string{commonPhrases, kw} {
		for _, p := range list {
			if utf8.RuneCountInString(p) <= 2 || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
