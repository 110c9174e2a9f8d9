package strategy

import (
	"context"

	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/uistate"
)

var searchSelectors = []string{
	`input[type="search"]`,
	`input[placeholder*="search" i]`,
	`[aria-label*="search" i]`,
}

// Form captures the current page for form analysis without acting on it.
func (e *Explorer) Form(ctx context.Context, req Request) *uistate.UIState {
	return e.capture(ctx, "Form analysis: "+req.Question, uistate.KindFormAnalysis)
}

// Search focuses the first search input it finds. When the page has none it
// captures the page as a search scan.
func (e *Explorer) Search(ctx context.Context, req Request) *uistate.UIState {
	for _, sel := range searchSelectors {
		els, err := e.session.Query(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		el := els[0]
		box, boxErr := e.box(ctx, el)
		if err := e.act(ctx, el.Click); err != nil {
			e.logger.Debug("Search input click failed", zap.String("selector", sel), zap.Error(err))
			continue
		}
		if err := e.session.Wait(ctx, e.opts.SearchSettle); err != nil {
			return nil
		}
		state := e.capture(ctx, "Search interface: found search input", uistate.KindSearchAnalysis)
		if state != nil && boxErr == nil {
			state = state.WithTrigger(box)
		}
		return state
	}
	return e.capture(ctx, "Search exploration: "+req.Question, uistate.KindSearchScan)
}

func (e *Explorer) capture(ctx context.Context, description string, kind uistate.Kind) *uistate.UIState {
	state, err := e.session.Capture(ctx, description, kind)
	if err != nil {
		e.logger.Debug("Capture failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil
	}
	return state
}
