package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/fuzzyflock/spatial"
)

// clamp clamps v between minVal and maxVal.
func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// unitOr normalises v, or returns fallback when v has no length.
func unitOr(v, fallback r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < 1e-12 || math.IsNaN(n) {
		return fallback
	}
	return r3.Scale(1/n, v)
}

// Turn rotates dir by angle radians inside its own forward/side plane.
// Positive angles turn toward the frame's Side, the same way positive
// bearings point.
func Turn(dir r3.Vec, angle float64) r3.Vec {
	fr := spatial.Basis(dir)
	s, c := math.Sincos(angle)
	return unitOr(r3.Add(r3.Scale(c, fr.Forward), r3.Scale(s, fr.Side)), fr.Forward)
}

// Pitch tilts dir by angle radians toward the frame's Up.
func Pitch(dir r3.Vec, angle float64) r3.Vec {
	fr := spatial.Basis(dir)
	s, c := math.Sincos(angle)
	return unitOr(r3.Add(r3.Scale(c, fr.Forward), r3.Scale(s, fr.Up)), fr.Forward)
}
