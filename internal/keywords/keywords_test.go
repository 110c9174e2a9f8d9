package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"goal", "Apply for the MS program", []string{"apply", "program"}},
		{"stop words and short tokens dropped", "Go to the top of it", []string{"top"}},
		{"dedupe", "search Search SEARCH results", []string{"results", "search"}},
		{"digits break tokens", "page2 Settings", []string{"settings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtractIgnoresCasingAndStopWords(t *testing.T) {
	base := Extract("create project dashboard")
	varied := Extract("CREATE the Project, and WITH a Dashboard for")
	assert.ElementsMatch(t, base, varied)
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"apply", "find", "program"}, Union([]string{"program", "apply"}, []string{"find", "apply"}))
	assert.Nil(t, Union())
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"substring", "Graduate Admissions", []string{"admission"}, true},
		{"inside a word", "Reapply now", []string{"apply"}, true},
		{"stem variant", "Start your application", []string{"apply"}, true},
		{"stem from variant keyword", "Help center", []string{"support"}, true},
		{"no match", "Contact us", []string{"apply", "program"}, false},
		{"no keywords", "Anything", nil, false},
		{"empty text", "", []string{"apply"}, false},
		{"case insensitive", "PROJECTS", []string{"project"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.text, tt.keywords))
		})
	}
}

func TestStemMatchIsSymmetricWithinGroups(t *testing.T) {
	for _, g := range stemGroups {
		members := append([]string{g.base}, g.variants...)
		for _, kw := range members {
			for _, text := range members {
				assert.True(t, StemMatch(kw, text), "keyword %q vs text %q", kw, text)
				assert.True(t, Matches(text, []string{kw}), "keyword %q vs text %q", kw, text)
			}
		}
	}
}

func TestStemMatchUnknownKeyword(t *testing.T) {
	assert.False(t, StemMatch("banana", "bananas and apples"))
}
