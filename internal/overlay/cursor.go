// Package overlay draws click markers on walkthrough frames.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/uiscout/internal/uistate"
)

var (
	outlineColor = color.RGBA{0, 0, 0, 255}
	fillColor    = color.RGBA{255, 255, 255, 255}
	rippleColor  = color.RGBA{66, 133, 244, 255}
	boxColor     = color.RGBA{234, 67, 53, 255}
)

const (
	rippleRadius = 18
	rippleRings  = 3
	boxStroke    = 3
)

// MarkClick returns a copy of frame with the clicked element outlined and a
// cursor with a click ripple at its center.
func MarkClick(frame image.Image, box uistate.BoundingBox) *image.RGBA {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	x, y := box.Center()
	x += bounds.Min.X
	y += bounds.Min.Y

	drawRect(result, bounds.Min.X+box.X, bounds.Min.Y+box.Y, box.Width, box.Height, boxColor)
	drawClickRipple(result, x, y)
	drawCursor(result, x, y)
	return result
}

// drawRect strokes a rectangle outline.
func drawRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	for s := 0; s < boxStroke; s++ {
		drawLine(img, x-s, y-s, x+w+s, y-s, c)
		drawLine(img, x-s, y+h+s, x+w+s, y+h+s, c)
		drawLine(img, x-s, y-s, x-s, y+h+s, c)
		drawLine(img, x+w+s, y-s, x+w+s, y+h+s, c)
	}
}

// drawCursor draws an arrow cursor with its tip at (x, y).
func drawCursor(img *image.RGBA, x, y int) {
	cursorPoints := []struct{ dx, dy int }{
		{0, 0},
		{0, 16},
		{4, 12},
		{7, 18},
		{10, 17},
		{7, 11},
		{12, 11},
	}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if isInsideCursor(dx, dy) {
				setPixelSafe(img, x+dx, y+dy, fillColor)
			}
		}
	}
	for i := range cursorPoints {
		p1 := cursorPoints[i]
		p2 := cursorPoints[(i+1)%len(cursorPoints)]
		drawLine(img, x+p1.dx, y+p1.dy, x+p2.dx, y+p2.dy, outlineColor)
	}
}

// isInsideCursor approximates the arrow as a triangle over a shaft.
func isInsideCursor(dx, dy int) bool {
	if dy < 0 || dy > 16 || dx < 0 {
		return false
	}
	if dy <= 11 {
		return dx <= dy*12/16
	}
	return dx <= 4
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawClickRipple draws concentric rings around (x, y).
func drawClickRipple(img *image.RGBA, x, y int) {
	for ring := 0; ring < rippleRings; ring++ {
		radius := float64(rippleRadius - ring*5)
		for angle := 0.0; angle < 360; angle++ {
			rad := angle * math.Pi / 180
			px := x + int(radius*math.Cos(rad))
			py := y + int(radius*math.Sin(rad))
			setPixelSafe(img, px, py, rippleColor)
			setPixelSafe(img, px+1, py, rippleColor)
			setPixelSafe(img, px, py+1, rippleColor)
		}
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
