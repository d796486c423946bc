package mathutil

import "math"

// Camera presets for preview renders. Caches are authored Y-up.
var (
	// ZUpToYUp reorients Z-up caches: Rx(-90°)
	ZUpToYUp = RotX(math.Pi / -2)

	// ViewFront looks down -Z with a slight downward tilt: Rx(-15°)
	ViewFront = RotX(Deg2Rad(-15))

	// ViewThreeQuarter is the default preview angle: Rx(-20°) @ Ry(35°)
	ViewThreeQuarter = Mat3Mul(RotX(Deg2Rad(-20)), RotY(Deg2Rad(35)))

	// ViewTop looks straight down the Y axis.
	ViewTop = RotX(Deg2Rad(-90))
)

// Orbit returns the view rotation for a camera at yaw/pitch degrees:
// Rx(-pitch) @ Ry(yaw).
func Orbit(yaw, pitch float64) Mat3 {
	return Mat3Mul(RotX(Deg2Rad(-pitch)), RotY(Deg2Rad(yaw)))
}

// NormalizeDeg maps an angle in degrees into [0, 360).
func NormalizeDeg(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
