/*package io reads configuration files and reads and writes the text files
produced by a field calculation.
*/
package io

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
)

// ReadField reads a file written by FieldWriter. Sample indices are the
// line order of the file.
func ReadField(fname string) ([]grid.Sample, error) {
	cols, err := table.ReadTable(
		fname, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("Could not read field file %s: %w", fname, err)
	}

	samples := make([]grid.Sample, len(cols[0]))
	for i := range samples {
		s := &samples[i]
		s.Index = i
		s.Point = geom.Vec{cols[0][i], cols[1][i], cols[2][i]}
		for j := 0; j < 3; j++ {
			s.Field[j] = cols[3+2*j][i]
			s.Error[j] = cols[4+2*j][i]
		}
		s.Magnitude = cols[9][i]
	}
	return samples, nil
}

// ReadCurve reads a file written by WriteCurve.
func ReadCurve(fname string) ([]geom.Vec, error) {
	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not read curve file %s: %w", fname, err)
	}

	pts := make([]geom.Vec, len(cols[0]))
	for i := range pts {
		pts[i] = geom.Vec{cols[0][i], cols[1][i], cols[2][i]}
	}
	return pts, nil
}

// MaxMagnitude returns the largest |B| in samples.
func MaxMagnitude(samples []grid.Sample) float64 {
	peak := 0.0
	for i := range samples {
		peak = math.Max(peak, samples[i].Magnitude)
	}
	return peak
}
