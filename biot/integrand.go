/*package biot evaluates the Biot-Savart law for a filamentary current by
adaptive quadrature along the filament.
*/
package biot

import (
	"math"

	"github.com/phil-mansfield/bsfield/geom"
)

// Mu0Over4Pi is the magnetic constant divided by 4 pi, in T m / A.
const Mu0Over4Pi = 1e-7

// Integrand returns component axis of the Biot-Savart kernel
// I dl(t) x r(t) / |r(t)|^3 as a function of the curve parameter, where
// r(t) = point - c.Parametrize(t).
//
// Where the perpendicular distance d from point to the local wire axis is
// less than the wire radius a, the kernel is scaled by (d/a)^2 so that the
// field falls to zero inside the conductor instead of diverging. If point
// lies on the filament, or close enough that |r|^3 underflows, the kernel is
// zero.
func Integrand(c *geom.Curve, point geom.Vec, axis int) func(t float64) float64 {
	if axis < 0 || axis > 2 {
		panic("Integrand axis must be 0, 1, or 2.")
	}
	current, a := c.Current(), c.WireRadius()

	return func(t float64) float64 {
		r := point.Sub(c.Parametrize(t))
		dl := c.Tangent(t)

		rLen := r.Norm()
		r3 := rLen * rLen * rLen
		if r3 == 0 {
			return 0
		}
		raw := current * dl.CrossAxis(axis, r) / r3
		if math.IsInf(raw, 0) || math.IsNaN(raw) {
			return 0
		}

		if a > 0 {
			if d := perpDistance(r, dl, rLen); d < a {
				return raw * (d / a) * (d / a)
			}
		}
		return raw
	}
}

// perpDistance returns the distance from the tip of r to the line through
// the origin along dl.
func perpDistance(r, dl geom.Vec, rLen float64) float64 {
	dlLen := dl.Norm()
	if dlLen == 0 {
		return rLen
	}
	cos := r.Dot(dl) / (rLen * dlLen)
	sin2 := 1 - cos*cos
	if sin2 < 0 {
		sin2 = 0
	}
	return rLen * math.Sqrt(sin2)
}
