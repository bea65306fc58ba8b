package capture

import "math"

// smoothingRate scales the frame time into the blend factor.
const smoothingRate = 30.0

// lerp blends a toward b by x. x is not clamped.
func lerp(a, b, x float64) float64 {
	return (1-x)*a + x*b
}

// blend returns round(lerp(target, current, factor)). Ties round toward
// target; rounding them away from zero would park a field one unit short of
// target whenever factor is exactly 0.5, as it is at 60 fps.
func blend(target, current, factor float64) float64 {
	v := lerp(target, current, factor)
	if v-math.Floor(v) != 0.5 {
		return math.Round(v)
	}
	if target < v {
		return math.Floor(v)
	}
	return math.Ceil(v)
}

// Smooth moves current toward target for a frame of the given duration.
// The blend factor is seconds*30 and is not clamped, so long frames can
// extrapolate past either end.
func Smooth(current, target Region, seconds float64) Region {
	if current == target {
		return current
	}
	factor := seconds * smoothingRate
	return Region{
		X:      int32(blend(float64(target.X), float64(current.X), factor)),
		Y:      int32(blend(float64(target.Y), float64(current.Y), factor)),
		Width:  uint32(int64(blend(float64(target.Width), float64(current.Width), factor))),
		Height: uint32(int64(blend(float64(target.Height), float64(current.Height), factor))),
	}
}
