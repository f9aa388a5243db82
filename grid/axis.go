/*package grid sweeps a rectangular lattice of observation points and
computes the magnetic field at each one.
*/
package grid

import (
	"fmt"
	"math"
)

// Axis is the range of one coordinate. Exactly one of Steps or Step is
// used: Steps is the number of points between Min and Max, inclusive, and
// Step is the spacing of points starting at Min.
type Axis struct {
	Min, Max float64
	Steps    int
	Step     float64
}

// Check returns an error if a cannot produce any points. name is used in the
// error message.
func (a *Axis) Check(name string) error {
	switch {
	case math.IsNaN(a.Min) || math.IsNaN(a.Max) ||
		math.IsInf(a.Min, 0) || math.IsInf(a.Max, 0):
		return fmt.Errorf("%s range [%g, %g] is not finite.", name, a.Min, a.Max)
	case a.Max < a.Min:
		return fmt.Errorf(
			"%s range has maximum %g below minimum %g.", name, a.Max, a.Min,
		)
	case a.Steps != 0 && a.Step != 0:
		return fmt.Errorf("Only one of %sSteps and %sStep may be set.", name, name)
	case a.Steps < 0:
		return fmt.Errorf("%sSteps must be positive, but is %d.", name, a.Steps)
	case a.Step < 0 || math.IsNaN(a.Step) || math.IsInf(a.Step, 0):
		return fmt.Errorf("%sStep must be positive, but is %g.", name, a.Step)
	case a.Steps == 0 && a.Step == 0:
		return fmt.Errorf("One of %sSteps or %sStep must be set.", name, name)
	case a.Steps > 1 && a.Min == a.Max:
		return fmt.Errorf(
			"%s range is a single point, but %sSteps is %d.", name, name, a.Steps,
		)
	}
	return nil
}

// Len returns the number of points along a. a must pass Check.
func (a *Axis) Len() int {
	if a.Steps > 0 {
		return a.Steps
	}
	return int(math.Floor((a.Max-a.Min)/a.Step+1e-9)) + 1
}

// At returns the coordinate of the i-th point along a. Points are computed
// from their index so that no rounding error accumulates.
func (a *Axis) At(i int) float64 {
	if a.Steps > 0 {
		if a.Steps == 1 {
			return a.Min
		} else if i == a.Steps-1 {
			return a.Max
		}
		return a.Min + float64(i)*(a.Max-a.Min)/float64(a.Steps-1)
	}
	return a.Min + float64(i)*a.Step
}

// Points returns every coordinate along a in ascending order.
func (a *Axis) Points() []float64 {
	xs := make([]float64, a.Len())
	for i := range xs {
		xs[i] = a.At(i)
	}
	return xs
}

// Grid is the Cartesian product of three axes.
type Grid struct {
	X, Y, Z Axis
}

// Check returns the first error found in any of g's axes.
func (g *Grid) Check() error {
	if err := g.X.Check("X"); err != nil {
		return err
	} else if err := g.Y.Check("Y"); err != nil {
		return err
	}
	return g.Z.Check("Z")
}

// Dims returns the number of points along each axis.
func (g *Grid) Dims() [3]int {
	return [3]int{g.X.Len(), g.Y.Len(), g.Z.Len()}
}

// Len returns the total number of points in g.
func (g *Grid) Len() int {
	d := g.Dims()
	return d[0] * d[1] * d[2]
}

// Idx returns the sweep-order index of the point with the given axis
// indices. x varies slowest and z fastest.
func (g *Grid) Idx(ix, iy, iz int) int {
	d := g.Dims()
	return iz + d[2]*(iy+d[1]*ix)
}

// Coords returns the axis indices of the point with sweep-order index idx.
func (g *Grid) Coords(idx int) (ix, iy, iz int) {
	d := g.Dims()
	iz = idx % d[2]
	iy = (idx / d[2]) % d[1]
	ix = idx / (d[1] * d[2])
	return ix, iy, iz
}
