package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/strategy"
	"github.com/v0xg/uiscout/internal/uistate"
)

type probeCategory struct {
	// selectors are queried one at a time; the first scope with a match wins.
	selectors []string
	noun      string
	labels    []string
}

var probeCategories = []probeCategory{
	{selectors: []string{"button"}, noun: "button", labels: []string{"Create", "Add", "New", "Filter", "Search"}},
	{selectors: []string{`nav a, header a, [role="navigation"] a`, "a"}, noun: "link", labels: []string{"Projects", "Tasks", "Issues", "Database"}},
}

// probe clicks the first available label of each category and captures the
// result regardless of URL change, since these controls usually open in-page
// dialogs.
func (r *run) probe(ctx context.Context) {
	n := 0
	for _, cat := range probeCategories {
		for _, label := range cat.labels {
			if ctx.Err() != nil {
				return
			}
			state := r.probeOne(ctx, cat, label)
			if state == nil {
				continue
			}
			n++
			r.record(Turn{
				Step:        len(r.wf.Executed) + n,
				Action:      ActionAutonomous,
				Description: fmt.Sprintf("Autonomous exploration %d", n),
				State:       state,
			})
			_ = r.deps.Browser.Wait(ctx, r.cfg.ProbeSettle)
			break
		}
	}
}

func (r *run) probeOne(ctx context.Context, cat probeCategory, label string) *uistate.UIState {
	browser := r.deps.Browser
	el := r.firstLabelled(ctx, cat.selectors, label)
	if el == nil {
		return nil
	}

	var box uistate.BoundingBox
	boxErr := r.act(ctx, func(ctx context.Context) error {
		var err error
		box, err = el.Box(ctx)
		return err
	})
	if err := r.act(ctx, el.ScrollIntoView); err != nil {
		r.logger.Debug("Probe scroll failed", zap.String("label", label), zap.Error(err))
		return nil
	}
	if err := r.act(ctx, el.Click); err != nil {
		r.logger.Debug("Probe click failed", zap.String("label", label), zap.Error(err))
		return nil
	}
	state, err := browser.Capture(ctx, fmt.Sprintf("Autonomous: clicked %s %s", label, cat.noun), uistate.KindAutonomous)
	if err != nil {
		r.logger.Debug("Probe capture failed", zap.String("label", label), zap.Error(err))
		return nil
	}
	if boxErr == nil {
		state = state.WithTrigger(box)
	}
	r.logger.Info("Autonomous probe captured state", zap.String("label", label))
	return state
}

func (r *run) firstLabelled(ctx context.Context, selectors []string, label string) strategy.Element {
	for _, sel := range selectors {
		els, err := r.deps.Browser.QueryText(ctx, sel, label, false)
		if err == nil && len(els) > 0 {
			return els[0]
		}
	}
	return nil
}

// act runs one element action under the strategy action timeout.
func (r *run) act(ctx context.Context, action func(context.Context) error) error {
	if d := r.cfg.Strategy.ActionTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return action(ctx)
}
