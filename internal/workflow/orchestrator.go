package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/auth"
	"github.com/v0xg/uiscout/internal/intent"
	"github.com/v0xg/uiscout/internal/questions"
	"github.com/v0xg/uiscout/internal/strategy"
	"github.com/v0xg/uiscout/internal/summary"
	"github.com/v0xg/uiscout/internal/uistate"
)

// Browser is the browsing session the orchestrator owns for a run.
type Browser interface {
	strategy.Session
	Navigate(ctx context.Context, url string) error
}

// SignIn handles manual third-party sign-in.
type SignIn interface {
	Detect(ctx context.Context) bool
	AwaitCompletion(ctx context.Context) error
}

// Persister saves a finished workflow and returns where it went.
type Persister interface {
	Save(ctx context.Context, wf *Workflow) (string, error)
}

// Config tunes a run.
type Config struct {
	StepBudget int
	Strategy   strategy.Options
	// ProbeSettle is the pause after each autonomous probe click.
	ProbeSettle time.Duration

	// OnPhase and OnTurn observe progress. Both are optional.
	OnPhase func(Phase)
	OnTurn  func(Turn)
}

// DefaultConfig returns the settings used against live sites.
func DefaultConfig() Config {
	return Config{
		StepBudget:  6,
		Strategy:    strategy.DefaultOptions(),
		ProbeSettle: 2 * time.Second,
	}
}

// Deps are the collaborators of an Orchestrator. SignIn and Persister may be
// nil.
type Deps struct {
	Browser   Browser
	Generator questions.Generator
	SignIn    SignIn
	Persister Persister
}

// Orchestrator drives the exploration state machine.
type Orchestrator struct {
	deps     Deps
	cfg      Config
	explorer *strategy.Explorer
	now      func() time.Time
	logger   *zap.Logger
}

// New creates an orchestrator.
func New(deps Deps, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		deps:     deps,
		cfg:      cfg,
		explorer: strategy.NewExplorer(deps.Browser, cfg.Strategy, logger),
		now:      time.Now,
		logger:   logger.Named("workflow"),
	}
}

// run is the mutable state of one Run call.
type run struct {
	*Orchestrator
	wf     *Workflow
	phase  Phase
	queue  []questions.Question
	seen   map[string]bool
	logger *zap.Logger
}

// Run explores url toward goal. A failed entry navigation yields a workflow
// with no turns, Err wrapping ErrEntryNavigation, and a nil error. Only
// persistence failures are returned.
func (o *Orchestrator) Run(ctx context.Context, goal, url string) (*Workflow, error) {
	wf := &Workflow{
		ID:         uuid.New(),
		Goal:       goal,
		EntryURL:   url,
		StepBudget: o.cfg.StepBudget,
		StartedAt:  o.now(),
	}
	r := &run{
		Orchestrator: o,
		wf:           wf,
		phase:        PhaseInit,
		seen:         make(map[string]bool),
		logger:       o.logger.With(zap.String("run_id", wf.ID.String())),
	}
	defer func() { wf.FinishedAt = o.now() }()

	r.enter(PhaseNavigating)
	if !r.navigateEntry(ctx) {
		r.enter(PhaseDone)
		return wf, nil
	}

	r.enter(PhaseQuestioning)
	r.question(ctx)

	r.enter(PhaseFollowUp)
	r.followUp(ctx)

	if len(wf.Turns) > 0 {
		r.enter(PhaseAutonomousProbe)
		r.probe(ctx)
	}

	wf.GoalReached = r.goalReached()
	if lg, ok := o.deps.Generator.(interface {
		Log() []questions.GenerationRecord
	}); ok {
		wf.Generations = len(lg.Log())
	}

	if len(wf.Turns) > 0 && o.deps.Persister != nil {
		r.enter(PhasePersisting)
		// An interrupted run still keeps what it captured.
		dir, err := o.deps.Persister.Save(context.WithoutCancel(ctx), wf)
		if err != nil {
			r.enter(PhaseDone)
			return wf, fmt.Errorf("persisting workflow: %w", err)
		}
		wf.Dir = dir
		r.logger.Info("Workflow saved", zap.String("dir", dir), zap.Int("states", len(wf.Turns)))
	}

	r.enter(PhaseDone)
	return wf, nil
}

func (r *run) enter(p Phase) {
	r.logger.Debug("Phase", zap.String("from", string(r.phase)), zap.String("to", string(p)))
	r.phase = p
	if r.cfg.OnPhase != nil {
		r.cfg.OnPhase(p)
	}
}

func (r *run) record(t Turn) {
	r.wf.Turns = append(r.wf.Turns, t)
	if r.cfg.OnTurn != nil {
		r.cfg.OnTurn(t)
	}
}

// navigateEntry loads the entry page and records the initial turn.
func (r *run) navigateEntry(ctx context.Context) bool {
	url := r.wf.EntryURL
	browser := r.deps.Browser

	if err := browser.Navigate(ctx, url); err != nil {
		r.fail(ctx, err)
		return false
	}
	description := "Initial navigation to " + url
	state, err := browser.Capture(ctx, description, uistate.KindInitial)
	if err != nil {
		r.fail(ctx, err)
		return false
	}
	state = r.handleSignIn(ctx, state)

	r.record(Turn{Step: 0, Action: ActionNavigate, Description: description, State: state})
	r.logger.Info("Entry page loaded", zap.String("url", state.URL), zap.String("title", state.Title))
	return true
}

func (r *run) fail(ctx context.Context, cause error) {
	r.wf.Err = fmt.Errorf("%w: %w", ErrEntryNavigation, cause)
	r.logger.Error("Entry navigation failed", zap.String("url", r.wf.EntryURL), zap.Error(cause))

	state, err := r.deps.Browser.Capture(ctx, "Navigation failed: "+cause.Error(), uistate.KindError)
	if err != nil {
		r.logger.Debug("Error state capture failed", zap.Error(err))
		return
	}
	r.wf.Failure = state
}

// question runs the initial batch, generating a follow-up after each state.
func (r *run) question(ctx context.Context) {
	batch := r.wf.StepBudget / 2
	if batch <= 0 {
		return
	}
	for _, q := range r.deps.Generator.Generate(ctx, r.wf.Goal, "", batch) {
		r.enqueue(q)
	}
	initial := min(len(r.queue), batch)
	r.logger.Info("Initial questions", zap.Strings("questions", questions.Texts(r.queue[:initial])))

	for i := 0; i < initial; i++ {
		if ctx.Err() != nil || !r.hasBudget() {
			return
		}
		q := r.queue[i]
		state := r.execute(ctx, q, ActionExplore)
		if state == nil || !r.hasBudget() {
			continue
		}
		digest := summary.Summarize(state)
		for _, fq := range r.deps.Generator.Generate(ctx, r.wf.Goal, digest, 1) {
			if r.enqueue(fq) {
				r.logger.Info("Queued follow-up", zap.String("question", fq.Text))
			}
		}
	}
	r.queue = r.queue[initial:]
}

// followUp drains queued follow-ups within the remaining budget.
func (r *run) followUp(ctx context.Context) {
	for _, q := range r.queue {
		if ctx.Err() != nil || !r.hasBudget() {
			break
		}
		r.execute(ctx, q, ActionFollowUp)
	}
	r.queue = nil
}

func (r *run) hasBudget() bool {
	return len(r.wf.Executed) < r.wf.StepBudget
}

// enqueue adds q unless an identical question was already queued or executed.
func (r *run) enqueue(q questions.Question) bool {
	key := strings.ToLower(strings.TrimSpace(q.Text))
	if key == "" || r.seen[key] {
		return false
	}
	r.seen[key] = true
	r.queue = append(r.queue, q)
	return true
}

// execute consumes q. The question counts toward the budget whether or not
// it changes the page.
func (r *run) execute(ctx context.Context, q questions.Question, action Action) *uistate.UIState {
	r.wf.Executed = append(r.wf.Executed, q)
	step := len(r.wf.Executed)

	kind := intent.Classify(q.Text)
	r.logger.Info("Exploring",
		zap.Int("step", step),
		zap.String("question", q.Text),
		zap.String("intent", string(kind)))

	state := r.explorer.Explore(ctx, kind, strategy.Request{Question: q.Text, Goal: r.wf.Goal})
	if state == nil {
		r.logger.Info("No state captured for question, continuing", zap.Int("step", step))
		return nil
	}
	state = r.handleSignIn(ctx, state)

	r.deps.Generator.UpdateContext(q.Text, summary.Summarize(state))
	r.record(Turn{
		Step:        step,
		Question:    &q,
		Action:      action,
		Description: state.Description,
		State:       state,
	})
	return state
}

// handleSignIn waits for manual sign-in when state shows a sign-in wall with a
// Google option. On success the post-login state replaces state.
func (r *run) handleSignIn(ctx context.Context, state *uistate.UIState) *uistate.UIState {
	if r.deps.SignIn == nil || !auth.LooksLikeSignIn(state.Title, state.URL) {
		return state
	}
	if !r.deps.SignIn.Detect(ctx) {
		return state
	}
	if err := r.deps.SignIn.AwaitCompletion(ctx); err != nil {
		if errors.Is(err, auth.ErrTimeout) {
			r.logger.Warn("Manual sign-in timed out, continuing with current state")
		} else {
			r.logger.Warn("Manual sign-in failed, continuing with current state", zap.Error(err))
		}
		return state
	}

	post, err := r.deps.Browser.Capture(ctx, "After manual Google sign-in", uistate.KindPostLogin)
	if err != nil {
		r.logger.Debug("Post-login capture failed", zap.Error(err))
		return state
	}
	r.logger.Info("Manual sign-in completed", zap.String("url", post.URL))
	return post
}

func (r *run) goalReached() bool {
	for _, t := range r.wf.Turns {
		if t.State.LooksSuccessful() {
			return true
		}
	}
	return false
}
