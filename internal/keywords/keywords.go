// Package keywords pulls meaningful tokens out of free text and decides whether
// a piece of UI text is relevant to them.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
}

// stemGroup maps a canonical term to its accepted morphological variants.
type stemGroup struct {
	base     string
	variants []string
}

var stemGroups = []stemGroup{
	{"apply", []string{"apply", "application", "applying"}},
	{"create", []string{"create", "creating", "creation"}},
	{"search", []string{"search", "searching", "searches"}},
	{"find", []string{"find", "finding", "found"}},
	{"program", []string{"program", "programs", "programming"}},
	{"project", []string{"project", "projects"}},
	{"task", []string{"task", "tasks"}},
	{"manage", []string{"manage", "managing", "management"}},
	{"setting", []string{"setting", "settings"}},
	{"profile", []string{"profile", "profiles"}},
	{"account", []string{"account", "accounts"}},
	{"user", []string{"user", "users"}},
	{"admin", []string{"admin", "administrator"}},
	{"help", []string{"help", "support"}},
	{"guide", []string{"guide", "guides", "guidance"}},
}

// Extract returns the lower-cased alphabetic tokens of at least three letters
// in text, stop-words removed and de-duplicated. The result is sorted so that
// callers iterating it behave deterministically; treat it as a set.
func Extract(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]struct{})
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		seen[w] = struct{}{}
	}
	return sorted(seen)
}

// Union merges keyword sets.
func Union(sets ...[]string) []string {
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, w := range set {
			seen[w] = struct{}{}
		}
	}
	return sorted(seen)
}

// Matches reports whether text is relevant to any of the keywords: the keyword
// occurs in the text, occurs inside one of its words, or shares a stem group
// with a variant that occurs in the text.
func Matches(text string, keywords []string) bool {
	if text == "" || len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
		for _, w := range words {
			if strings.Contains(w, kw) {
				return true
			}
		}
		if StemMatch(kw, lower) {
			return true
		}
	}
	return false
}

// StemMatch reports whether keyword belongs to a stem group (as the base or a
// variant) and any variant of that group occurs in text.
func StemMatch(keyword, text string) bool {
	keyword = strings.ToLower(keyword)
	text = strings.ToLower(text)
	for _, g := range stemGroups {
		if keyword != g.base && !contains(g.variants, keyword) {
			continue
		}
		for _, v := range g.variants {
			if strings.Contains(text, v) {
				return true
			}
		}
		return false
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
