// Package summary compresses a captured UI state into the short digest used to
// seed follow-up questions and as conversation memory.
package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/v0xg/uiscout/internal/uistate"
)

// NoState is returned when there is nothing to summarize.
const NoState = "No UI state captured yet."

const (
	scanElements = 10
	maxNotable   = 6
)

type domainHint struct {
	marker string
	text   string
}

var domainHints = []domainHint{
	{"admission", "We are in an admissions-related section."},
	{"graduate", "We are in a graduate programs section."},
	{"program", "We are in a programs section."},
}

// Summarize describes state in one paragraph: page identity, element counts,
// forms and modals, notable labelled controls and a domain hint.
func Summarize(state *uistate.UIState) string {
	if state == nil {
		return NoState
	}

	title := state.Title
	if title == "" {
		title = "Unknown page"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Currently on page: '%s'. ", title)
	fmt.Fprintf(&b, "Found %d interactive elements (%d buttons, %d inputs, %d links).",
		len(state.Elements), state.CountTag("button"), state.CountTag("input"), state.CountTag("a"))

	if state.FormCount > 0 {
		b.WriteString(" There are forms available.")
	}
	if state.HasModals {
		b.WriteString(" Modal dialogs are present.")
	}

	if notable := notableElements(state.Elements); len(notable) > 0 {
		b.WriteString(" Notable elements: " + strings.Join(notable, ", "))
	}

	url := strings.ToLower(state.URL)
	page := strings.ToLower(state.Title)
	for _, h := range domainHints {
		if strings.Contains(url, h.marker) || strings.Contains(page, h.marker) {
			b.WriteString(" " + h.text)
			break
		}
	}

	return b.String()
}

// notableElements picks descriptors from the first elements, preferring short
// text labels, then placeholders, then input types, then bare button/anchor tags.
func notableElements(elements []uistate.InteractiveElement) []string {
	if len(elements) > scanElements {
		elements = elements[:scanElements]
	}
	var out []string
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		n := utf8.RuneCountInString(text)
		switch {
		case n > 2 && n < 50:
			out = append(out, "'"+text+"'")
		case el.Placeholder != "":
			out = append(out, fmt.Sprintf("%s[%s]", el.Tag, el.Placeholder))
		case el.Type != "":
			out = append(out, fmt.Sprintf("%s[%s]", el.Tag, el.Type))
		case el.Tag == "button" || el.Tag == "a":
			out = append(out, el.Tag)
		}
	}
	if len(out) > maxNotable {
		out = out[:maxNotable]
	}
	return out
}
