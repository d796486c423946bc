package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLerpEndpoints(t *testing.T) {
	a := [3]float32{0, -1, 3}
	b := [3]float32{10, 1, 3}
	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))
	assert.Equal(t, [3]float32{5, 0, 3}, Lerp(a, b, 0.5))
}

func TestLerpStaysInBox(t *testing.T) {
	a := [3]float32{0.1, 1e7, -3.3}
	b := [3]float32{0.1000001, 1e7 + 1, 7.7}
	for i := 0; i <= 1000; i++ {
		p := Lerp(a, b, float64(i)/1000)
		for k := range p {
			lo, hi := min(a[k], b[k]), max(a[k], b[k])
			assert.True(t, p[k] >= lo && p[k] <= hi, "component %d = %v outside [%v, %v]", k, p[k], lo, hi)
		}
	}
}

func TestVec3(t *testing.T) {
	v := FromF32([3]float32{3, 4, 0})
	assert.InDelta(t, 5, v.Len(), 1e-12)
	assert.Equal(t, Vec3{6, 8, 0}, v.Add(v))
	assert.Equal(t, Vec3{1.5, 2, 0}, v.Scale(0.5))
	assert.Equal(t, Vec3{}, v.Sub(v))
	assert.Equal(t, Vec3{1, 2, -1}, Vec3{1, 5, -1}.Min(Vec3{2, 2, 0}))
	assert.Equal(t, Vec3{2, 5, 0}, Vec3{1, 5, -1}.Max(Vec3{2, 2, 0}))
	assert.Equal(t, 11.0, Vec3{1, 2, 3}.Dot(Vec3{3, 1, 2}))
}

func TestRotationsAreOrthonormal(t *testing.T) {
	for _, m := range []Mat3{ZUpToYUp, ViewFront, ViewThreeQuarter, ViewTop, Orbit(30, 10)} {
		assert.InDelta(t, 1, m.Det(), 1e-9)
		id := Mat3Mul(m, m.Transpose())
		for i, want := range Mat3Identity() {
			assert.InDelta(t, want, id[i], 1e-9)
		}
	}
	up := ZUpToYUp.MulVec3(Vec3{0, 0, 1})
	assert.InDelta(t, 1, up[1], 1e-9)
}

func TestAngles(t *testing.T) {
	assert.Equal(t, 350.0, NormalizeDeg(-10))
	assert.InDelta(t, math.Pi, Deg2Rad(180), 1e-12)
}
