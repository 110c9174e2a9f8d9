package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/v0xg/uiscout/internal/auth"
	"github.com/v0xg/uiscout/internal/questions"
	"github.com/v0xg/uiscout/internal/strategy"
	"github.com/v0xg/uiscout/internal/uistate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeElement struct {
	browser *fakeBrowser
	text    string
	href    string
	// hang makes Click wait for its context, like a click on a covered element.
	hang bool
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.text, nil }
func (e *fakeElement) Box(context.Context) (uistate.BoundingBox, error) {
	return uistate.BoundingBox{X: 1, Y: 2, Width: 30, Height: 10}, nil
}
func (e *fakeElement) ScrollIntoView(context.Context) error { return nil }
func (e *fakeElement) Click(ctx context.Context) error {
	if e.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if e.href != "" {
		e.browser.url = e.href
	}
	return nil
}

type fakeBrowser struct {
	url         string
	navigateErr error
	titles      map[string]string
	elements    map[string][]*fakeElement
	captures    []string
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{titles: map[string]string{}, elements: map[string][]*fakeElement{}}
}

func (b *fakeBrowser) add(selector, text, href string) *fakeElement {
	el := &fakeElement{browser: b, text: text, href: href}
	b.elements[selector] = append(b.elements[selector], el)
	return el
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	if b.navigateErr != nil {
		return b.navigateErr
	}
	b.url = url
	return nil
}

func (b *fakeBrowser) Query(_ context.Context, selector string) ([]strategy.Element, error) {
	var out []strategy.Element
	for _, el := range b.elements[selector] {
		out = append(out, el)
	}
	return out, nil
}

func (b *fakeBrowser) QueryText(_ context.Context, selector, text string, ignoreCase bool) ([]strategy.Element, error) {
	var out []strategy.Element
	for _, el := range b.elements[selector] {
		hay, needle := el.text, text
		if ignoreCase {
			hay, needle = strings.ToLower(hay), strings.ToLower(needle)
		}
		if strings.Contains(hay, needle) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (b *fakeBrowser) CurrentURL(context.Context) (string, error) { return b.url, nil }

func (b *fakeBrowser) Wait(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func (b *fakeBrowser) Capture(_ context.Context, description string, kind uistate.Kind) (*uistate.UIState, error) {
	b.captures = append(b.captures, description)
	return &uistate.UIState{
		URL:         b.url,
		Title:       b.titles[b.url],
		Description: description,
		Kind:        kind,
		CapturedAt:  time.Now(),
	}, nil
}

// fakeGenerator returns the initial batch for the first call and one
// scripted follow-up per later call.
type fakeGenerator struct {
	initial   []string
	followUps []string
	calls     []int
	updates   []string
}

func (g *fakeGenerator) Generate(_ context.Context, _, prior string, maxQuestions int) []questions.Question {
	g.calls = append(g.calls, maxQuestions)
	var texts []string
	if prior == "" {
		texts = g.initial
	} else if len(g.followUps) > 0 {
		texts = g.followUps[:1]
		if len(g.followUps) > 1 {
			g.followUps = g.followUps[1:]
		}
	}
	if len(texts) > maxQuestions {
		texts = texts[:maxQuestions]
	}
	out := make([]questions.Question, len(texts))
	for i, t := range texts {
		out[i] = questions.Question{Text: t, Source: questions.SourceGenerated}
	}
	return out
}

func (g *fakeGenerator) UpdateContext(question, _ string) {
	g.updates = append(g.updates, question)
}

type fakePersister struct {
	saved *Workflow
	err   error
}

func (p *fakePersister) Save(ctx context.Context, wf *Workflow) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.saved = wf
	return "workflows/test", p.err
}

type fakeSignIn struct {
	detect bool
	err    error
	awaits int
}

func (s *fakeSignIn) Detect(context.Context) bool { return s.detect }
func (s *fakeSignIn) AwaitCompletion(context.Context) error {
	s.awaits++
	return s.err
}

func testConfig(budget int) Config {
	return Config{StepBudget: budget}
}

func TestRunFullFlow(t *testing.T) {
	b := newFakeBrowser()
	b.add("nav a", "Projects", "https://app.test/projects")
	b.add("nav a", "Project settings", "https://app.test/settings")
	gen := &fakeGenerator{
		initial:   []string{"Where are the projects?", "Where are project settings?"},
		followUps: []string{"Where is the create button?"},
	}
	persister := &fakePersister{}
	var phases []Phase

	cfg := testConfig(4)
	cfg.OnPhase = func(p Phase) { phases = append(phases, p) }
	wf, err := New(Deps{Browser: b, Generator: gen, Persister: persister}, cfg, nil).
		Run(context.Background(), "Create project", "https://app.test/")

	require.NoError(t, err)
	require.NoError(t, wf.Err)
	require.Len(t, wf.Turns, 4)

	var actions []Action
	var steps []int
	for _, turn := range wf.Turns {
		actions = append(actions, turn.Action)
		steps = append(steps, turn.Step)
	}
	assert.Equal(t, []Action{ActionNavigate, ActionExplore, ActionExplore, ActionFollowUp}, actions)
	assert.Equal(t, []int{0, 1, 2, 3}, steps)
	assert.Equal(t, "https://app.test/projects", wf.Turns[1].State.URL)
	assert.Equal(t, "https://app.test/settings", wf.Turns[2].State.URL)
	assert.Equal(t, "Where is the create button?", wf.Turns[3].QuestionText())
	assert.Equal(t, []string{"Where are the projects?", "Where are project settings?", "Where is the create button?"}, wf.ExecutedTexts())

	// Batch of 2, then one follow-up request per state in the questioning phase.
	assert.Equal(t, []int{2, 1, 1}, gen.calls)
	assert.Len(t, gen.updates, 3)

	assert.Same(t, wf, persister.saved)
	assert.Equal(t, "workflows/test", wf.Dir)
	assert.Equal(t, []Phase{PhaseNavigating, PhaseQuestioning, PhaseFollowUp, PhaseAutonomousProbe, PhasePersisting, PhaseDone}, phases)

	stats := wf.Stats()
	assert.Equal(t, Stats{States: 4, DistinctPages: 3, Questions: 3, FollowUps: 1}, stats)
}

func TestRunRespectsStepBudget(t *testing.T) {
	for _, budget := range []int{1, 2, 3, 6, 9} {
		t.Run(fmt.Sprint(budget), func(t *testing.T) {
			b := newFakeBrowser()
			// Every click lands on a new page so every question yields a state.
			for i := range 20 {
				b.add("nav a", fmt.Sprintf("Projects %d", i), fmt.Sprintf("https://app.test/p%d", i))
			}
			gen := &fakeGenerator{}
			for i := range 20 {
				gen.initial = append(gen.initial, fmt.Sprintf("Where are projects number %d?", i))
				gen.followUps = append(gen.followUps, fmt.Sprintf("Where are the projects for team %d?", i))
			}

			wf, err := New(Deps{Browser: b, Generator: gen}, testConfig(budget), nil).
				Run(context.Background(), "Browse projects", "https://app.test/")

			require.NoError(t, err)
			assert.LessOrEqual(t, len(wf.Executed), budget)
		})
	}
}

func TestRunZeroBatchSkipsGenerator(t *testing.T) {
	b := newFakeBrowser()
	b.add("button", "New issue", "")
	b.add(`nav a, header a, [role="navigation"] a`, "Tasks", "https://app.test/tasks")
	gen := &fakeGenerator{initial: []string{"Where are tasks?"}}

	wf, err := New(Deps{Browser: b, Generator: gen}, testConfig(1), nil).
		Run(context.Background(), "Create issue", "https://app.test/")

	require.NoError(t, err)
	assert.Empty(t, gen.calls)
	assert.Empty(t, wf.Executed)
	require.Len(t, wf.Turns, 3)
	assert.Equal(t, "Autonomous: clicked New button", wf.Turns[1].State.Description)
	assert.Equal(t, uistate.KindAutonomous, wf.Turns[1].State.Kind)
	assert.Equal(t, "Autonomous exploration 1", wf.Turns[1].Description)
	assert.Equal(t, "Autonomous: clicked Tasks link", wf.Turns[2].State.Description)
	assert.NotNil(t, wf.Turns[2].State.Trigger)
}

func TestProbePrefersScopedLinks(t *testing.T) {
	tests := []struct {
		name   string
		scoped bool
		want   string
	}{
		{"navigation scope first", true, "https://app.test/nav-tasks"},
		{"any link when no scope matches", false, "https://app.test/page-tasks"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBrowser()
			b.add("a", "Tasks", "https://app.test/page-tasks")
			if tt.scoped {
				b.add(`nav a, header a, [role="navigation"] a`, "Tasks", "https://app.test/nav-tasks")
			}

			wf, err := New(Deps{Browser: b, Generator: &fakeGenerator{}}, testConfig(1), nil).
				Run(context.Background(), "Browse tasks", "https://app.test/")

			require.NoError(t, err)
			require.Len(t, wf.Turns, 2)
			assert.Equal(t, tt.want, wf.Turns[1].State.URL)
		})
	}
}

func TestProbeSkipsHangingClick(t *testing.T) {
	b := newFakeBrowser()
	b.add("button", "Create", "").hang = true
	b.add("button", "New issue", "")
	cfg := testConfig(1)
	cfg.Strategy.ActionTimeout = 20 * time.Millisecond

	wf, err := New(Deps{Browser: b, Generator: &fakeGenerator{}}, cfg, nil).
		Run(context.Background(), "Create issue", "https://app.test/")

	require.NoError(t, err)
	require.Len(t, wf.Turns, 2)
	assert.Equal(t, "Autonomous: clicked New button", wf.Turns[1].State.Description)
}

func TestRunPersistsAfterCancellation(t *testing.T) {
	b := newFakeBrowser()
	b.add("nav a", "Projects", "https://app.test/projects")
	gen := &fakeGenerator{initial: []string{"Where are the projects?"}}
	persister := &fakePersister{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wf, err := New(Deps{Browser: b, Generator: gen, Persister: persister}, testConfig(6), nil).
		Run(ctx, "Create project", "https://app.test/")

	require.NoError(t, err)
	require.Len(t, wf.Turns, 1)
	assert.Same(t, wf, persister.saved)
	assert.Equal(t, "workflows/test", wf.Dir)
}

func TestRunSuppressesNoOpActions(t *testing.T) {
	b := newFakeBrowser()
	b.add("nav a", "Projects", "") // clicking never changes the URL
	gen := &fakeGenerator{
		initial:   []string{"Where are the projects?", "Where is the projects list?", "Where can I locate projects?"},
		followUps: []string{"Where is anything else?"},
	}
	persister := &fakePersister{}

	wf, err := New(Deps{Browser: b, Generator: gen, Persister: persister}, testConfig(6), nil).
		Run(context.Background(), "Create project", "https://app.test/")

	require.NoError(t, err)
	require.Len(t, wf.Turns, 1)
	assert.Equal(t, ActionNavigate, wf.Turns[0].Action)
	assert.Len(t, wf.Executed, 3)
	assert.Equal(t, []int{3}, gen.calls)
	assert.Empty(t, gen.updates)
	assert.Equal(t, []string{"Initial navigation to https://app.test/"}, b.captures)
	require.NotNil(t, persister.saved)
}

func TestRunDropsDuplicateQuestions(t *testing.T) {
	b := newFakeBrowser()
	b.add("nav a", "Projects", "https://app.test/projects")
	gen := &fakeGenerator{
		initial:   []string{"Where are the projects?", "where are the projects? "},
		followUps: []string{"Where are the projects?"},
	}

	wf, err := New(Deps{Browser: b, Generator: gen}, testConfig(4), nil).
		Run(context.Background(), "Create project", "https://app.test/")

	require.NoError(t, err)
	assert.Equal(t, []string{"Where are the projects?"}, wf.ExecutedTexts())
}

func TestRunEntryFailure(t *testing.T) {
	b := newFakeBrowser()
	b.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	gen := &fakeGenerator{initial: []string{"Where are the projects?"}}
	persister := &fakePersister{}

	wf, err := New(Deps{Browser: b, Generator: gen, Persister: persister}, testConfig(6), nil).
		Run(context.Background(), "Create project", "https://nowhere.invalid/")

	require.NoError(t, err)
	assert.Empty(t, wf.Turns)
	assert.Empty(t, wf.Executed)
	assert.ErrorIs(t, wf.Err, ErrEntryNavigation)
	require.NotNil(t, wf.Failure)
	assert.Equal(t, uistate.KindError, wf.Failure.Kind)
	assert.Contains(t, wf.Failure.Description, "ERR_NAME_NOT_RESOLVED")
	assert.Nil(t, persister.saved)
	assert.Empty(t, gen.calls)
}

func TestRunReturnsPersistenceError(t *testing.T) {
	b := newFakeBrowser()
	persister := &fakePersister{err: errors.New("disk full")}

	_, err := New(Deps{Browser: b, Generator: &fakeGenerator{}, Persister: persister}, testConfig(2), nil).
		Run(context.Background(), "Create project", "https://app.test/")

	assert.ErrorContains(t, err, "disk full")
}

func TestRunHandlesSignIn(t *testing.T) {
	tests := []struct {
		name     string
		signIn   *fakeSignIn
		wantKind uistate.Kind
		awaits   int
	}{
		{"completed", &fakeSignIn{detect: true}, uistate.KindPostLogin, 1},
		{"timed out", &fakeSignIn{detect: true, err: auth.ErrTimeout}, uistate.KindInitial, 1},
		{"no google option", &fakeSignIn{}, uistate.KindInitial, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBrowser()
			b.titles["https://app.test/login"] = "Sign in"

			wf, err := New(Deps{Browser: b, Generator: &fakeGenerator{}, SignIn: tt.signIn}, testConfig(0), nil).
				Run(context.Background(), "Create project", "https://app.test/login")

			require.NoError(t, err)
			require.Len(t, wf.Turns, 1)
			assert.Equal(t, tt.wantKind, wf.Turns[0].State.Kind)
			assert.Equal(t, tt.awaits, tt.signIn.awaits)
		})
	}
}

func TestRunReportsGoalReached(t *testing.T) {
	b := newFakeBrowser()
	b.add("nav a", "Projects", "https://app.test/projects/created")
	gen := &fakeGenerator{initial: []string{"Where are the projects?"}}

	wf, err := New(Deps{Browser: b, Generator: gen}, testConfig(2), nil).
		Run(context.Background(), "Create project", "https://app.test/")

	require.NoError(t, err)
	assert.True(t, wf.GoalReached)
}
