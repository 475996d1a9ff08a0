package scene

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"

	"github.com/backmassage/wallrender/internal/config"
)

// barPeriod is the simulated time for the test card bar to sweep a wall.
const barPeriod = 60.0

// TestCard is a deterministic synthetic [Source]: each wall shows a
// horizontal gradient tinted by wall index with a vertical bar whose
// position follows simulation time. Equal instants give equal images.
type TestCard struct {
	walls []config.Wall
	t     float64
}

// NewTestCard returns a test card for walls.
func NewTestCard(walls []config.Wall) *TestCard {
	return &TestCard{walls: walls}
}

// Advance records t; the card is drawn lazily at capture.
func (c *TestCard) Advance(ctx context.Context, _ *Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.t = t
	return nil
}

// Capture draws and JPEG-encodes the named wall at the current instant.
func (c *TestCard) Capture(ctx context.Context, sc *Context, wall string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := -1
	for i, w := range c.walls {
		if w.Name == wall {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown wall %q", wall)
	}
	w := c.walls[idx]
	img := drawCard(w.Width, w.Height, idx, c.t)

	q := int(math.Round(sc.Quality * 100))
	if q < 1 {
		q = 1
	} else if q > 100 {
		q = 100
	}
	var buf bytes.Buffer
	buf.Grow(w.Width * w.Height / 4)
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode %q: %w", wall, err)
	}
	return buf.Bytes(), nil
}

// Close is a no-op.
func (c *TestCard) Close() error { return nil }

func drawCard(width, height, wallIdx int, t float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	phase := math.Mod(t, barPeriod) / barPeriod
	barX := int(phase * float64(width))
	barW := width / 40
	if barW < 2 {
		barW = 2
	}
	tint := uint8(60 * (wallIdx % 4))

	for x := 0; x < width; x++ {
		g := uint8(x * 255 / width)
		col := color.RGBA{R: g, G: tint, B: 255 - g, A: 255}
		if x >= barX && x < barX+barW {
			col = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, col)
		}
	}
	return img
}
