/*package geom contains the vector type and the wire geometries whose
fields are computed by bsfield.
*/
package geom

import (
	"fmt"
	"math"
)

// Vec is a three dimensional vector. Component i of v is v[i].
type Vec [3]float64

// Add returns v + w.
func (v Vec) Add(w Vec) Vec {
	return Vec{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec {
	return Vec{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Dot returns the standard inner product of v and w.
func (v Vec) Dot(w Vec) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Scale returns c * v.
func (v Vec) Scale(c float64) Vec {
	return Vec{c * v[0], c * v[1], c * v[2]}
}

// Norm returns the length of v in the standard L2 metric.
func (v Vec) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// CrossAxis returns component i of v cross w. It panics if i is not 0, 1,
// or 2.
func (v Vec) CrossAxis(i int, w Vec) float64 {
	switch i {
	case 0:
		return v[1]*w[2] - v[2]*w[1]
	case 1:
		return v[2]*w[0] - v[0]*w[2]
	case 2:
		return v[0]*w[1] - v[1]*w[0]
	}
	panic(fmt.Sprintf("Cross product axis %d is not in [0, 3).", i))
}

// Cross returns v cross w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{v.CrossAxis(0, w), v.CrossAxis(1, w), v.CrossAxis(2, w)}
}

// String prints the components as tab-separated columns.
func (v Vec) String() string {
	return fmt.Sprintf("%g\t%g\t%g", v[0], v[1], v[2])
}
