package raster

import (
	"image"
	"image/color"
	"math"

	"slgp-tracks/internal/track"
	"slgp-tracks/internal/viewmatrix"
)

// Style controls how particles are drawn.
type Style struct {
	Radius   float64      // splat radius in output pixels
	Sprite   *image.NRGBA // nil draws shaded spheres
	Additive bool         // blend sprites additively instead of depth-testing
	Palette  func(id uint32) color.NRGBA
	Light    Light
}

// DefaultStyle draws shaded spheres colored by particle id.
func DefaultStyle(radius float64) Style {
	return Style{Radius: radius, Palette: IDColor, Light: DefaultLight()}
}

// RenderPoints rasterizes one snapshot at cam.Size × cam.Size. The camera
// already includes any supersampling factor; ss scales the splat radius
// to match.
func RenderPoints(points []track.Point, cam *viewmatrix.Camera, st Style, ss int) *image.NRGBA {
	fb := NewFrameBuffer(cam.Size, cam.Size)
	palette := st.Palette
	if palette == nil {
		palette = IDColor
	}
	base := st.Radius * float64(max(ss, 1))

	for _, p := range points {
		x, y, z := cam.Project(p.Position)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		r := cam.PixelRadius(base, z)
		col := palette(p.ID)
		switch {
		case st.Sprite == nil:
			SplatSphere(fb, x, y, z, r, col, &st.Light)
		case st.Additive:
			SplatSpriteAdditive(fb, x, y, r, st.Sprite, col)
		default:
			SplatSprite(fb, x, y, z, r, st.Sprite, col)
		}
	}
	return fb.Image()
}

// IDColor spreads ids around the hue wheel by the golden ratio so that
// neighboring ids get distinct colors.
func IDColor(id uint32) color.NRGBA {
	h := math.Mod(float64(id)*0.618033988749895, 1)
	return hsv(h, 0.65, 0.95)
}

func hsv(h, s, v float64) color.NRGBA {
	i := int(h * 6)
	f := h*6 - float64(i)
	p, q, t := v*(1-s), v*(1-f*s), v*(1-(1-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.NRGBA{R: clamp255(r * 255), G: clamp255(g * 255), B: clamp255(b * 255), A: 255}
}
