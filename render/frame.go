/*package render draws the x-z projection of a computed field as a set of
arrows together with the wire that produced it.
*/
package render

import (
	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
)

const (
	// windowScale is the half-width of the plot in units of the curve
	// extent.
	windowScale = 3

	fieldColor = "darkgreen"
	curveColor = "#FF763A"
	xLabel     = "x[m]"
	zLabel     = "z[m]"
)

// Frame holds the scaling shared by every plot of a field.
type Frame struct {
	// MaxField is the largest |B| of any sample.
	MaxField float64
	// MaxLen is the length of the arrow for a sample with |B| = MaxField.
	MaxLen float64
	// Extent is the characteristic size of the curve.
	Extent float64
}

// NewFrame returns the Frame for a curve and the largest field drawn.
func NewFrame(c *geom.Curve, maxField, maxLen float64) Frame {
	return Frame{MaxField: maxField, MaxLen: maxLen, Extent: c.Extent()}
}

// Scale returns the arrow length per Tesla.
func (f *Frame) Scale() float64 {
	if f.MaxField == 0 {
		return 0
	}
	return f.MaxLen / f.MaxField
}

// Window returns the range of both plot axes.
func (f *Frame) Window() (lo, hi float64) {
	return -windowScale * f.Extent, windowScale * f.Extent
}

// Arrow returns the start and end of the arrow drawn for s in the x-z
// plane.
func (f *Frame) Arrow(s *grid.Sample) (x0, z0, x1, z1 float64) {
	scale := f.Scale()
	x0, z0 = s.Point[0], s.Point[2]
	return x0, z0, x0 + scale*s.Field[0], z0 + scale*s.Field[2]
}

// projectCurve returns the x and z coordinates of pts.
func projectCurve(pts []geom.Vec) (xs, zs []float64) {
	xs, zs = make([]float64, len(pts)), make([]float64, len(pts))
	for i := range pts {
		xs[i], zs[i] = pts[i][0], pts[i][2]
	}
	return xs, zs
}
