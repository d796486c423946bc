package mathutil

import "math"

// Vec3 is a 3-component vector in float64 working precision. Positions are
// stored as [3]float32 and widened on the way in.
type Vec3 [3]float64

// FromF32 widens a stored position.
func FromF32(p [3]float32) Vec3 {
	return Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (a Vec3) Dot(b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Min and Max are componentwise.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}

// Lerp returns a + f*(b-a) per component. The arithmetic runs in float64
// and is rounded once, so for f in [0,1] each component stays between the
// corresponding components of a and b.
func Lerp(a, b [3]float32, f float64) [3]float32 {
	var out [3]float32
	for i := range out {
		x, y := float64(a[i]), float64(b[i])
		out[i] = float32(x + f*(y-x))
	}
	return out
}
