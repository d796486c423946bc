package raster

import (
	"image"
	"image/color"
	"math"

	"slgp-tracks/internal/mathutil"
)

// SplatSphere draws a depth-tested disc of radius r centered at (cx, cy)
// and shaded as a sphere facing the camera. Pixel centers inside the disc
// are covered; z is the depth of the sphere center.
func SplatSphere(fb *FrameBuffer, cx, cy, z, r float64, col color.NRGBA, l *Light) {
	if r <= 0 {
		return
	}
	minX, maxX, minY, maxY, ok := bounds(fb, cx, cy, r)
	if !ok {
		return
	}
	invR := 1 / r

	// Pixel loop, zero allocations
	for sy := minY; sy <= maxY; sy++ {
		ny := (cy - (float64(sy) + 0.5)) * invR
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			nx := (float64(sx) + 0.5 - cx) * invR
			d2 := nx*nx + ny*ny
			if d2 > 1 {
				continue
			}
			nz := math.Sqrt(1 - d2)
			depth := z + nz*r
			zIdx := rowOff + sx
			if depth <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = depth

			shade := l.Shade(mathutil.Vec3{nx, ny, nz})
			pxIdx := zIdx * 4
			fb.Color[pxIdx] = l.apply(col.R, shade)
			fb.Color[pxIdx+1] = l.apply(col.G, shade)
			fb.Color[pxIdx+2] = l.apply(col.B, shade)
			fb.Color[pxIdx+3] = col.A
		}
	}
}

// SplatSprite draws tex scaled to a 2r square centered at (cx, cy),
// tinted by col. Texels with little alpha are skipped and leave the depth
// buffer untouched.
func SplatSprite(fb *FrameBuffer, cx, cy, z, r float64, tex *image.NRGBA, col color.NRGBA) {
	if r <= 0 {
		return
	}
	minX, maxX, minY, maxY, ok := bounds(fb, cx, cy, r)
	if !ok {
		return
	}
	inv := 1 / (2 * r)

	for sy := minY; sy <= maxY; sy++ {
		v := (float64(sy) + 0.5 - (cy - r)) * inv
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			u := (float64(sx) + 0.5 - (cx - r)) * inv
			tr, tg, tb, ta := SampleTexture(tex, u, v)
			a := uint8(uint16(ta) * uint16(col.A) / 255)
			if a < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = uint8(uint16(tr) * uint16(col.R) / 255)
			fb.Color[pxIdx+1] = uint8(uint16(tg) * uint16(col.G) / 255)
			fb.Color[pxIdx+2] = uint8(uint16(tb) * uint16(col.B) / 255)
			fb.Color[pxIdx+3] = a
		}
	}
}

// SplatSpriteAdditive adds tex, tinted by col and weighted by its alpha,
// onto whatever is already in the buffer. No depth test or depth write.
func SplatSpriteAdditive(fb *FrameBuffer, cx, cy, r float64, tex *image.NRGBA, col color.NRGBA) {
	if r <= 0 {
		return
	}
	minX, maxX, minY, maxY, ok := bounds(fb, cx, cy, r)
	if !ok {
		return
	}
	inv := 1 / (2 * r)

	for sy := minY; sy <= maxY; sy++ {
		v := (float64(sy) + 0.5 - (cy - r)) * inv
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			u := (float64(sx) + 0.5 - (cx - r)) * inv
			tr, tg, tb, ta := SampleTexture(tex, u, v)
			w := float64(ta) / 255 * float64(col.A) / 255
			if w <= 0 {
				continue
			}

			pxIdx := (rowOff + sx) * 4
			fb.Color[pxIdx] = clamp255(float64(fb.Color[pxIdx]) + float64(tr)*float64(col.R)/255*w)
			fb.Color[pxIdx+1] = clamp255(float64(fb.Color[pxIdx+1]) + float64(tg)*float64(col.G)/255*w)
			fb.Color[pxIdx+2] = clamp255(float64(fb.Color[pxIdx+2]) + float64(tb)*float64(col.B)/255*w)
			if addAlpha := clamp255(w * 255); addAlpha > fb.Color[pxIdx+3] {
				fb.Color[pxIdx+3] = addAlpha
			}
		}
	}
}

// bounds clips the square around a splat to the buffer.
func bounds(fb *FrameBuffer, cx, cy, r float64) (minX, maxX, minY, maxY int, ok bool) {
	minX = max(int(math.Floor(cx-r)), 0)
	maxX = min(int(math.Ceil(cx+r)), fb.Width-1)
	minY = max(int(math.Floor(cy-r)), 0)
	maxY = min(int(math.Ceil(cy+r)), fb.Height-1)
	return minX, maxX, minY, maxY, minX <= maxX && minY <= maxY
}
