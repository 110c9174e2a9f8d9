package crawler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/uistate"
)

// perSelectorLimit caps how many nodes of each selector are inspected.
const perSelectorLimit = 50

const snapshotJS = `(limit) => {
	const elements = [];
	const selectors = ['button', 'a', 'input', 'select', 'textarea', '[role="button"]', '[onclick]'];
	selectors.forEach(selector => {
		const found = document.querySelectorAll(selector);
		for (let i = 0; i < Math.min(found.length, limit); i++) {
			const el = found[i];
			if (!(el.offsetWidth > 0 && el.offsetHeight > 0)) continue;
			const rect = el.getBoundingClientRect();
			elements.push({
				tag: el.tagName.toLowerCase(),
				text: el.textContent ? el.textContent.slice(0, 100).trim() : '',
				type: typeof el.type === 'string' ? el.type : '',
				placeholder: el.placeholder || '',
				id: el.id || '',
				classes: typeof el.className === 'string' ? el.className : '',
				visible: el.checkVisibility ? el.checkVisibility() : true,
				position: {
					x: Math.round(rect.x),
					y: Math.round(rect.y),
					width: Math.round(rect.width),
					height: Math.round(rect.height)
				}
			});
		}
	});
	return {
		elements: elements,
		hasModals: document.querySelectorAll('[role="dialog"], .modal, .popup').length > 0,
		formCount: document.querySelectorAll('form').length
	};
}`

// pageMap is the DOM part of a capture.
type pageMap struct {
	Elements  []uistate.InteractiveElement `json:"elements"`
	HasModals bool                         `json:"hasModals"`
	FormCount int                          `json:"formCount"`
}

func decodePageMap(raw []byte) (*pageMap, error) {
	var m pageMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding page map: %w", err)
	}
	return &m, nil
}

// Capture snapshots the page: identity, interactive elements, modal and form
// presence, and a full-page PNG screenshot.
func (b *Browser) Capture(ctx context.Context, description string, kind uistate.Kind) (*uistate.UIState, error) {
	if err := sleep(ctx, b.pacer.BeforeCapture()); err != nil {
		return nil, err
	}
	page := b.page.Context(ctx)

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("reading page info: %w", err)
	}

	res, err := page.Eval(snapshotJS, perSelectorLimit)
	if err != nil {
		return nil, fmt.Errorf("extracting elements: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("extracting elements: %w", err)
	}
	m, err := decodePageMap(raw)
	if err != nil {
		return nil, err
	}

	shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("taking screenshot: %w", err)
	}

	b.logger.Debug("Captured state",
		zap.String("kind", string(kind)),
		zap.String("url", info.URL),
		zap.Int("elements", len(m.Elements)))

	return &uistate.UIState{
		URL:         info.URL,
		Title:       info.Title,
		CapturedAt:  b.now(),
		Description: description,
		Kind:        kind,
		Elements:    m.Elements,
		HasModals:   m.HasModals,
		FormCount:   m.FormCount,
		Screenshot:  shot,
	}, nil
}
