// Package uistate holds the captured snapshot model shared by the explorer,
// the browsing session and the artifact store.
package uistate

import (
	"strings"
	"time"
)

// Kind tags the action that produced a UIState.
type Kind string

const (
	KindInitial        Kind = "initial"
	KindNavigation     Kind = "navigation"
	KindInteraction    Kind = "interaction"
	KindSearchAnalysis Kind = "search_analysis"
	KindSearchScan     Kind = "search_scan"
	KindFormAnalysis   Kind = "form_analysis"
	KindAutonomous     Kind = "autonomous"
	KindError          Kind = "error"
	KindPostLogin      Kind = "post_login"
)

// BoundingBox is an element's rectangle in CSS pixels relative to the viewport.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// InteractiveElement describes one interactive DOM node at capture time.
type InteractiveElement struct {
	Tag         string      `json:"tag"`
	Text        string      `json:"text"`
	Type        string      `json:"type"`
	Placeholder string      `json:"placeholder"`
	ID          string      `json:"id"`
	Classes     string      `json:"classes"`
	Visible     bool        `json:"visible"`
	Position    BoundingBox `json:"position"`
}

// UIState is one captured snapshot of the application. It is produced once per
// accepted action and never mutated afterwards.
type UIState struct {
	URL         string
	Title       string
	CapturedAt  time.Time
	Description string
	Kind        Kind
	Elements    []InteractiveElement
	HasModals   bool
	FormCount   int
	Screenshot  []byte // PNG

	// Trigger is the box of the element whose click produced this state, when
	// the state came from a click.
	Trigger *BoundingBox
}

// CountTag returns how many captured elements have the given tag name.
func (s *UIState) CountTag(tag string) int {
	n := 0
	for _, el := range s.Elements {
		if el.Tag == tag {
			n++
		}
	}
	return n
}

// WithTrigger returns a copy of s that records box as the clicked element.
func (s *UIState) WithTrigger(box BoundingBox) *UIState {
	c := *s
	c.Trigger = &box
	return &c
}

var successIndicators = []string{"success", "created", "added", "complete", "thankyou"}

// LooksSuccessful reports whether the URL, the title or any element text
// carries a completion indicator.
func (s *UIState) LooksSuccessful() bool {
	if s == nil {
		return false
	}
	if containsAny(strings.ToLower(s.URL), successIndicators) ||
		containsAny(strings.ToLower(s.Title), successIndicators) {
		return true
	}
	for _, el := range s.Elements {
		if containsAny(strings.ToLower(el.Text), successIndicators) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs []string) bool {
	return containsAny(s, subs)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
