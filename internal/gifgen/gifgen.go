// Package gifgen encodes captured screenshots into an animated walkthrough.
package gifgen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"
	"time"

	"github.com/nfnt/resize"
)

// Frame is one image and how long it stays on screen.
type Frame struct {
	Image image.Image
	Delay time.Duration
}

// Options configures GIF generation.
type Options struct {
	// Width and Height are the output canvas. Frames are cropped from the top
	// to the canvas aspect ratio, then scaled.
	Width  uint
	Height uint
	// OnFrame is called after each frame has been quantized.
	OnFrame func(done, total int)
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 800
	}
	if o.Height == 0 {
		o.Height = o.Width * 9 / 16
	}
	return o
}

// Encode writes frames as a looping GIF to w.
func Encode(w io.Writer, frames []Frame, opts Options) error {
	if len(frames) == 0 {
		return fmt.Errorf("gifgen: no frames")
	}
	opts = opts.withDefaults()

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0, // Infinite loop
	}

	for i, frame := range frames {
		fitted := fit(frame.Image, opts.Width, opts.Height)

		// Pages differ a lot, so each frame gets its own palette.
		paletted := image.NewPaletted(fitted.Bounds(), generatePalette(fitted))
		draw.FloydSteinberg.Draw(paletted, fitted.Bounds(), fitted, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = centiseconds(frame.Delay)
		if opts.OnFrame != nil {
			opts.OnFrame(i+1, len(frames))
		}
	}

	return gif.EncodeAll(w, g)
}

// WriteFile encodes frames into path and returns the file size.
func WriteFile(path string, frames []Frame, opts Options) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := Encode(f, frames, opts); err != nil {
		return 0, err
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// fit crops img from the top to the canvas aspect ratio, padding short
// images with white, and scales the result onto the canvas.
func fit(img image.Image, width, height uint) image.Image {
	b := img.Bounds()
	cropH := b.Dx() * int(height) / int(width)
	if cropH <= 0 {
		cropH = 1
	}

	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), cropH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)

	return resize.Resize(width, height, canvas, resize.Lanczos3)
}

func centiseconds(d time.Duration) int {
	cs := int(d / (10 * time.Millisecond))
	if cs <= 0 {
		cs = 1
	}
	return cs
}

// generatePalette builds a 256-color palette from the most frequent colors.
func generatePalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	colorMap := make(map[color.RGBA]int)

	step := 4 // Sample every 4th pixel for performance
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			c := color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: 255,
			}
			colorMap[c]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(colorMap))
	for c, count := range colorMap {
		colors = append(colors, colorCount{c, count})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		return rgbKey(colors[i].c) < rgbKey(colors[j].c)
	})

	palette := make(color.Palette, 0, 256)
	for i := 0; i < len(colors) && len(palette) < 256; i++ {
		palette = append(palette, colors[i].c)
	}

	// Pad with grayscale so small images still get a full palette.
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}

	return palette
}

func rgbKey(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
