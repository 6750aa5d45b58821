package stream

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledkey/util"
)

// Renderer draws the actor onto an LED strip frame.
type Renderer struct {
	config     LedConfig
	background colorful.Color
	glow       []float64
}

// NewRenderer creates a Renderer for the strip described by config.
func NewRenderer(config LedConfig) (*Renderer, error) {
	background, err := colorful.Hex(config.Background)
	if err != nil {
		return nil, fmt.Errorf("led background %q: %w", config.Background, err)
	}

	r := new(Renderer)
	r.config = config
	r.background = background
	r.glow = util.GenerateGlowLut(config.GlowRadius)
	return r, nil
}

// PixelAt maps a position onto a strip index. The result may fall off
// either end of the strip when the timeline extrapolates.
func (r *Renderer) PixelAt(position float64) int {
	t := (position - r.config.PositionMin) / (r.config.PositionMax - r.config.PositionMin)
	return int(math.Round(t * float64(r.config.Pixels-1)))
}

// Colour picks the actor colour from the gradient by where position sits in
// the configured range.
func (r *Renderer) Colour(position float64) colorful.Color {
	t := (position - r.config.PositionMin) / (r.config.PositionMax - r.config.PositionMin)
	t = math.Max(0, math.Min(1, t))
	return r.config.Gradient.GetColor(t, r.config.Chroma, r.config.Luminance)
}

// Render creates a frame with the actor lit at position and a halo fading
// out either side.
func (r *Renderer) Render(position float64) *Frame {
	f := NewFrame(r.config.Pixels, r.background)
	centre := r.PixelAt(position)
	colour := r.Colour(position)

	f.Blend(centre, colour, r.glow[0])
	for d := 1; d < len(r.glow); d++ {
		f.Blend(centre-d, colour, r.glow[d])
		f.Blend(centre+d, colour, r.glow[d])
	}

	return f
}
