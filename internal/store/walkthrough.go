package store

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/v0xg/uiscout/internal/gifgen"
	"github.com/v0xg/uiscout/internal/overlay"
	"github.com/v0xg/uiscout/internal/workflow"
)

const (
	stateHold = 2 * time.Second
	clickHold = 800 * time.Millisecond
)

// walkthroughFrames holds each screenshot on screen. A state produced by a
// click is preceded by the previous screenshot with the click marked.
func walkthroughFrames(turns []workflow.Turn) ([]gifgen.Frame, error) {
	var frames []gifgen.Frame
	var prev image.Image
	for i, turn := range turns {
		if len(turn.State.Screenshot) == 0 {
			continue
		}
		img, err := png.Decode(bytes.NewReader(turn.State.Screenshot))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", ScreenshotName(i), err)
		}
		if prev != nil && turn.State.Trigger != nil {
			frames = append(frames, gifgen.Frame{
				Image: overlay.MarkClick(prev, *turn.State.Trigger),
				Delay: clickHold,
			})
		}
		frames = append(frames, gifgen.Frame{Image: img, Delay: stateHold})
		prev = img
	}
	return frames, nil
}

func (s *Store) writeWalkthrough(path string, turns []workflow.Turn) (int64, error) {
	frames, err := walkthroughFrames(turns)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("no screenshots to animate")
	}
	return gifgen.WriteFile(path, frames, gifgen.Options{OnFrame: s.opts.OnFrame})
}
