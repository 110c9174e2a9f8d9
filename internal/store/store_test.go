package store

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/uiscout/internal/questions"
	"github.com/v0xg/uiscout/internal/uistate"
	"github.com/v0xg/uiscout/internal/workflow"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func elements(n int) []uistate.InteractiveElement {
	out := make([]uistate.InteractiveElement, n)
	for i := range out {
		out[i] = uistate.InteractiveElement{Tag: "a", Text: "Link", Visible: true}
	}
	return out
}

func threeTurnWorkflow(t *testing.T) *workflow.Workflow {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	q1 := questions.Question{Text: "Where are the projects?"}
	q2 := questions.Question{Text: "Which button creates a project?"}
	return &workflow.Workflow{
		Goal:     "Create project in Linear",
		EntryURL: "https://linear.app/",
		Executed: []questions.Question{q1, q2, {Text: "Where are <settings> & options?"}},
		Turns: []workflow.Turn{
			{Step: 0, Action: workflow.ActionNavigate, Description: "Initial navigation to https://linear.app/", State: &uistate.UIState{
				URL: "https://linear.app/", Title: "Linear", CapturedAt: at, Kind: uistate.KindInitial,
				Elements: elements(8), Screenshot: pngBytes(t, 64, 48, color.White),
			}},
			{Step: 1, Action: workflow.ActionExplore, Question: &q1, Description: "Navigation: clicked 'Projects'", State: &uistate.UIState{
				URL: "https://linear.app/projects", Title: "Projects", CapturedAt: at.Add(time.Minute), Kind: uistate.KindNavigation,
				Elements: elements(2), Screenshot: pngBytes(t, 64, 120, color.Black),
				Trigger: &uistate.BoundingBox{X: 4, Y: 4, Width: 20, Height: 8},
			}},
			{Step: 2, Action: workflow.ActionExplore, Question: &q2, Description: "Interaction: clicked 'New project'", State: &uistate.UIState{
				URL: "https://linear.app/projects/new", Title: "New project", CapturedAt: at.Add(2 * time.Minute), Kind: uistate.KindInteraction,
				HasModals: true, Screenshot: pngBytes(t, 64, 48, color.Gray{Y: 128}),
			}},
		},
	}
}

func newTestStore(t *testing.T, walkthrough bool) (*Store, string) {
	root := t.TempDir()
	s := New(Options{Root: root, Walkthrough: walkthrough}, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	return s, root
}

func TestSaveManifestShape(t *testing.T) {
	s, root := newTestStore(t, false)

	dir, err := s.Save(context.Background(), threeTurnWorkflow(t))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "create_project_in_linear_20240501_103000"), dir)

	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalStates)
	assert.Equal(t, "https://linear.app/", m.AppURL)
	assert.Len(t, m.AIGeneratedQuestions, 3)
	require.Len(t, m.States, 3)

	pngs, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, pngs, 3)

	for _, st := range m.States {
		require.NotEmpty(t, st.ScreenshotFile)
		assert.FileExists(t, filepath.Join(dir, st.ScreenshotFile))
	}

	first := m.States[0]
	assert.Equal(t, "navigate", first.Action)
	assert.Equal(t, "", first.Question)
	assert.Equal(t, 8, first.InteractiveElementsCount)
	assert.Len(t, first.SampleElements, 5)

	assert.Equal(t, "Where are the projects?", m.States[1].Question)
	assert.Equal(t, "2024-05-01T10:01:00.000000", m.States[1].Timestamp)
	assert.True(t, m.States[2].HasModals)
	assert.NotNil(t, m.States[2].SampleElements)

	assert.NoFileExists(t, filepath.Join(dir, WalkthroughFile))
}

func TestSaveDoesNotEscapeHTML(t *testing.T) {
	s, _ := newTestStore(t, false)

	dir, err := s.Save(context.Background(), threeTurnWorkflow(t))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Where are <settings> & options?")
}

func TestSaveWritesWalkthrough(t *testing.T) {
	s, _ := newTestStore(t, true)
	var frames int
	s.opts.OnFrame = func(done, _ int) { frames = done }

	dir, err := s.Save(context.Background(), threeTurnWorkflow(t))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, WalkthroughFile))
	// Three states plus one click frame before the triggered state.
	assert.Equal(t, 4, frames)
}

func TestWalkthroughFrames(t *testing.T) {
	frames, err := walkthroughFrames(threeTurnWorkflow(t).Turns)

	require.NoError(t, err)
	require.Len(t, frames, 4)
	assert.Equal(t, clickHold, frames[1].Delay)
	assert.Equal(t, stateHold, frames[2].Delay)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "apply_for_the_ms_program", Slug("Apply for the MS program"))
	assert.Equal(t, "filter___sort_", Slug("Filter & sort!"))
}
