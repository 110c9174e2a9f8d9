// Package store writes finished workflows to disk: one PNG per captured state,
// a workflow.json manifest, and optionally an animated walkthrough.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/uistate"
	"github.com/v0xg/uiscout/internal/workflow"
)

const (
	ManifestFile    = "workflow.json"
	WalkthroughFile = "walkthrough.gif"

	dirTimeLayout  = "20060102_150405"
	isoLayout      = "2006-01-02T15:04:05.000000"
	sampleElements = 5
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Manifest is the workflow.json document. Its field names are a contract with
// consumers of saved workflows.
type Manifest struct {
	Goal                 string       `json:"goal"`
	AppURL               string       `json:"app_url"`
	CapturedAt           string       `json:"captured_at"`
	TotalStates          int          `json:"total_states"`
	AIGeneratedQuestions []string     `json:"ai_generated_questions"`
	States               []StateEntry `json:"states"`
}

// StateEntry is the per-state record of the manifest.
type StateEntry struct {
	Step                     int                          `json:"step"`
	Action                   string                       `json:"action"`
	Description              string                       `json:"description"`
	Question                 string                       `json:"question"`
	Timestamp                string                       `json:"timestamp"`
	URL                      string                       `json:"url"`
	Title                    string                       `json:"title"`
	ScreenshotFile           string                       `json:"screenshot_file"`
	InteractiveElementsCount int                          `json:"interactive_elements_count"`
	HasModals                bool                         `json:"has_modals"`
	SampleElements           []uistate.InteractiveElement `json:"sample_elements"`
}

// Options configures a Store.
type Options struct {
	// Root is the parent directory of workflow directories.
	Root string
	// Walkthrough enables walkthrough.gif.
	Walkthrough bool
	// OnFrame reports walkthrough encoding progress.
	OnFrame func(done, total int)
}

// Store persists workflows under a root directory.
type Store struct {
	opts   Options
	now    func() time.Time
	logger *zap.Logger
}

var _ workflow.Persister = (*Store)(nil)

// New creates a store.
func New(opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Root == "" {
		opts.Root = "workflows"
	}
	return &Store{opts: opts, now: time.Now, logger: logger.Named("store")}
}

// Slug turns a goal into a directory-name prefix.
func Slug(goal string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(goal), "_")
}

// ScreenshotName is the file name of the i-th state.
func ScreenshotName(i int) string {
	return fmt.Sprintf("state_%02d.png", i)
}

// Save writes wf into <root>/<slug>_<timestamp>/ and returns that directory.
func (s *Store) Save(ctx context.Context, wf *workflow.Workflow) (string, error) {
	now := s.now()
	dir := filepath.Join(s.opts.Root, Slug(wf.Goal)+"_"+now.Format(dirTimeLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating workflow directory: %w", err)
	}

	manifest := Manifest{
		Goal:                 wf.Goal,
		AppURL:               wf.EntryURL,
		CapturedAt:           now.Format(isoLayout),
		TotalStates:          len(wf.Turns),
		AIGeneratedQuestions: wf.ExecutedTexts(),
		States:               make([]StateEntry, 0, len(wf.Turns)),
	}

	for i, turn := range wf.Turns {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		state := turn.State
		name := ScreenshotName(i)
		if err := os.WriteFile(filepath.Join(dir, name), state.Screenshot, 0o644); err != nil {
			return "", fmt.Errorf("writing %s: %w", name, err)
		}

		samples := state.Elements
		if len(samples) > sampleElements {
			samples = samples[:sampleElements]
		}
		if samples == nil {
			samples = []uistate.InteractiveElement{}
		}
		manifest.States = append(manifest.States, StateEntry{
			Step:                     turn.Step,
			Action:                   string(turn.Action),
			Description:              turn.Description,
			Question:                 turn.QuestionText(),
			Timestamp:                state.CapturedAt.Format(isoLayout),
			URL:                      state.URL,
			Title:                    state.Title,
			ScreenshotFile:           name,
			InteractiveElementsCount: len(state.Elements),
			HasModals:                state.HasModals,
			SampleElements:           samples,
		})
	}

	if err := writeManifest(filepath.Join(dir, ManifestFile), &manifest); err != nil {
		return "", err
	}
	s.logger.Info("Saved workflow", zap.String("dir", dir), zap.Int("states", len(wf.Turns)))

	if s.opts.Walkthrough {
		size, err := s.writeWalkthrough(filepath.Join(dir, WalkthroughFile), wf.Turns)
		if err != nil {
			s.logger.Warn("Walkthrough not written", zap.Error(err))
		} else {
			s.logger.Info("Saved walkthrough", zap.Int64("bytes", size))
		}
	}
	return dir, nil
}

func writeManifest(path string, m *Manifest) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest of a saved workflow directory.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
