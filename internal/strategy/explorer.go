package strategy

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/intent"
	"github.com/v0xg/uiscout/internal/keywords"
	"github.com/v0xg/uiscout/internal/uistate"
)

// Request is the input every strategy receives.
type Request struct {
	Question string
	Goal     string
}

// Keywords returns the union of goal and question keywords.
func (r Request) Keywords() []string {
	return keywords.Union(keywords.Extract(r.Goal), keywords.Extract(r.Question))
}

// Options tunes how long the explorer lets the page settle after acting.
type Options struct {
	NavigationSettle  time.Duration
	InteractionSettle time.Duration
	SearchSettle      time.Duration

	// ActionTimeout bounds each element action. Zero leaves actions bounded
	// only by the caller's context.
	ActionTimeout time.Duration
}

// DefaultOptions returns the settle times used against live sites.
func DefaultOptions() Options {
	return Options{
		NavigationSettle:  3 * time.Second,
		InteractionSettle: 2 * time.Second,
		SearchSettle:      time.Second,
		ActionTimeout:     10 * time.Second,
	}
}

// Explorer runs strategies against one browsing session.
type Explorer struct {
	session Session
	opts    Options
	logger  *zap.Logger
}

// NewExplorer creates an explorer that acts through session.
func NewExplorer(session Session, opts Options, logger *zap.Logger) *Explorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Explorer{
		session: session,
		opts:    opts,
		logger:  logger.Named("strategy"),
	}
}

// Explore dispatches req to the strategy for kind. Ambiguous requests try
// navigation and fall back to interaction when navigation changes nothing.
// A nil result means the page did not observably change.
func (e *Explorer) Explore(ctx context.Context, kind intent.Kind, req Request) *uistate.UIState {
	switch kind {
	case intent.Navigation:
		return e.Navigation(ctx, req)
	case intent.Interaction:
		return e.Interaction(ctx, req)
	case intent.Form:
		return e.Form(ctx, req)
	case intent.Search:
		return e.Search(ctx, req)
	default:
		if state := e.Navigation(ctx, req); state != nil {
			return state
		}
		return e.Interaction(ctx, req)
	}
}

// stage is one selector scan in a first-accepted-match search.
type stage struct {
	selector string
	limit    int
	accept   func(text string) bool
	// describe labels the captured state for the accepted element text.
	describe func(text string) string
	kind     uistate.Kind
	settle   time.Duration
}

// firstAccepted scans the stages in order and clicks every accepted element
// until one of them changes the URL away from before.
func (e *Explorer) firstAccepted(ctx context.Context, before string, stages []stage) *uistate.UIState {
	for _, st := range stages {
		elements, err := e.session.Query(ctx, st.selector)
		if err != nil {
			e.logger.Debug("Selector query failed", zap.String("selector", st.selector), zap.Error(err))
			continue
		}
		if len(elements) > st.limit {
			elements = elements[:st.limit]
		}
		for _, el := range elements {
			if ctx.Err() != nil {
				return nil
			}
			text := e.elementText(ctx, el)
			if text == "" || !st.accept(text) {
				continue
			}
			e.logger.Debug("Clicking candidate", zap.String("selector", st.selector), zap.String("text", text))
			if state := e.clickAndCapture(ctx, el, before, st.describe(text), st.kind, st.settle); state != nil {
				return state
			}
		}
	}
	return nil
}

// clickAndCapture clicks el and captures a state only if the URL changed.
func (e *Explorer) clickAndCapture(ctx context.Context, el Element, before, description string, kind uistate.Kind, settle time.Duration) *uistate.UIState {
	box, boxErr := e.box(ctx, el)

	if err := e.act(ctx, el.ScrollIntoView); err != nil {
		e.logger.Debug("Scroll into view failed", zap.Error(err))
		return nil
	}
	if err := e.act(ctx, el.Click); err != nil {
		e.logger.Debug("Click failed", zap.Error(err))
		return nil
	}
	if err := e.session.Wait(ctx, settle); err != nil {
		return nil
	}

	after, err := e.session.CurrentURL(ctx)
	if err != nil {
		e.logger.Debug("Reading URL failed", zap.Error(err))
		return nil
	}
	if after == before {
		e.logger.Debug("No page change after click", zap.String("url", after))
		return nil
	}
	e.logger.Info("Page changed", zap.String("from", before), zap.String("to", after))

	state, err := e.session.Capture(ctx, description, kind)
	if err != nil {
		e.logger.Debug("Capture failed", zap.Error(err))
		return nil
	}
	if boxErr == nil {
		state = state.WithTrigger(box)
	}
	return state
}

func (e *Explorer) currentURL(ctx context.Context) (string, bool) {
	url, err := e.session.CurrentURL(ctx)
	if err != nil {
		e.logger.Debug("Reading URL failed", zap.Error(err))
		return "", false
	}
	return url, true
}

// act runs one element action under ActionTimeout.
func (e *Explorer) act(ctx context.Context, action func(context.Context) error) error {
	if e.opts.ActionTimeout <= 0 {
		return action(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, e.opts.ActionTimeout)
	defer cancel()
	return action(actx)
}

func (e *Explorer) box(ctx context.Context, el Element) (uistate.BoundingBox, error) {
	var box uistate.BoundingBox
	err := e.act(ctx, func(ctx context.Context) error {
		var err error
		box, err = el.Box(ctx)
		return err
	})
	return box, err
}

func (e *Explorer) elementText(ctx context.Context, el Element) string {
	var text string
	err := e.act(ctx, func(ctx context.Context) error {
		var err error
		text, err = el.Text(ctx)
		return err
	})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func inList(s string, list []string) bool {
	for _, v := range list {
		if s == v {
			return true
		}
	}
	return false
}
