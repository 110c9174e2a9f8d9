package strategy

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/keywords"
	"github.com/v0xg/uiscout/internal/uistate"
)

// navSelectors are structural link locations, most specific first.
var navSelectors = []string{
	"nav a", `[role="navigation"] a`, ".navbar a", ".menu a", "header a",
	".main-nav a", ".primary-nav a", ".site-nav a", "#main-nav a",
	".navigation a", ".nav-menu a", ".menu-item a", ".nav-link",
	".header a", ".top-nav a", ".main-menu a", ".primary-menu a",
	`[class*="nav"] a`, `[class*="menu"] a`, `[class*="header"] a`,
}

var (
	callToAction    = []string{"learn more", "get started", "explore", "view", "see", "discover"}
	boilerplateNav  = []string{"home", "login", "sign in", "contact"}
	boilerplateLink = []string{"skip to content", "privacy policy", "terms of service"}
	boilerplateBtn  = []string{"submit", "cancel", "close"}
)

const (
	navScanLimit        = 10
	fallbackLinkLimit   = 20
	fallbackButtonLimit = 15
)

// Navigation follows a structural navigation link whose text matches the goal
// or question, then falls back to any relevant page link or button.
func (e *Explorer) Navigation(ctx context.Context, req Request) *uistate.UIState {
	before, ok := e.currentURL(ctx)
	if !ok {
		return nil
	}
	kw := req.Keywords()
	e.logger.Debug("Looking for navigation", zap.Strings("keywords", kw))

	stages := make([]stage, 0, len(navSelectors)+2)
	for _, sel := range navSelectors {
		stages = append(stages, stage{
			selector: sel,
			limit:    navScanLimit,
			accept: func(text string) bool {
				lower := strings.ToLower(text)
				relevant := keywords.Matches(lower, kw) || uistate.ContainsAny(lower, callToAction)
				return relevant && meaningfulNav(text)
			},
			describe: func(text string) string { return fmt.Sprintf("Navigation: clicked '%s'", text) },
			kind:     uistate.KindNavigation,
			settle:   e.opts.NavigationSettle,
		})
	}
	stages = append(stages,
		stage{
			selector: "a",
			limit:    fallbackLinkLimit,
			accept: func(text string) bool {
				n := utf8.RuneCountInString(text)
				return n > 3 && n < 100 &&
					keywords.Matches(text, kw) &&
					!inList(strings.ToLower(text), boilerplateLink)
			},
			describe: func(text string) string { return fmt.Sprintf("Fallback navigation: clicked '%s'", text) },
			kind:     uistate.KindNavigation,
			settle:   e.opts.NavigationSettle,
		},
		stage{
			selector: "button",
			limit:    fallbackButtonLimit,
			accept: func(text string) bool {
				return utf8.RuneCountInString(text) < 30 &&
					keywords.Matches(text, kw) &&
					!inList(strings.ToLower(text), boilerplateBtn)
			},
			describe: func(text string) string { return fmt.Sprintf("Fallback button: clicked '%s'", text) },
			kind:     uistate.KindNavigation,
			settle:   e.opts.NavigationSettle,
		},
	)

	state := e.firstAccepted(ctx, before, stages)
	if state == nil {
		e.logger.Debug("Navigation found no page change", zap.String("question", req.Question))
	}
	return state
}

// meaningfulNav rejects empty, overlong and boilerplate labels.
func meaningfulNav(text string) bool {
	if n := utf8.RuneCountInString(text); n <= 2 || n >= 50 {
		return false
	}
	if inList(strings.ToLower(text), boilerplateNav) {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
