package grid

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/bsfield/biot"
	"github.com/phil-mansfield/bsfield/geom"
)

type recorder struct {
	samples []Sample
	slices  []int
	failAt  int
}

func (r *recorder) WriteSample(s *Sample) error {
	if r.failAt > 0 && len(r.samples)+1 == r.failAt {
		return errors.New("disk full")
	}
	r.samples = append(r.samples, *s)
	return nil
}

func (r *recorder) EndSlice() error {
	r.slices = append(r.slices, len(r.samples))
	return nil
}

func circleSolver(t *testing.T, radius, wireRadius float64) *biot.Solver {
	c, err := geom.NewCircle(radius, 1, wireRadius)
	require.NoError(t, err)
	s, err := biot.NewSolver(&c, biot.DefaultParams())
	require.NoError(t, err)
	return s
}

func TestAxisPoints(t *testing.T) {
	table := []struct {
		a   Axis
		pts []float64
	}{
		{Axis{Min: 0, Max: 0, Steps: 1}, []float64{0}},
		{Axis{Min: 2, Max: 5, Steps: 1}, []float64{2}},
		{Axis{Min: -1, Max: 1, Steps: 5}, []float64{-1, -0.5, 0, 0.5, 1}},
		{Axis{Min: 0, Max: 1, Step: 0.25}, []float64{0, 0.25, 0.5, 0.75, 1}},
		{Axis{Min: 0, Max: 0.3, Step: 0.1}, []float64{0, 0.1, 0.2, 0.30000000000000004}},
		{Axis{Min: 0, Max: 0.95, Step: 0.5}, []float64{0, 0.5}},
	}

	for i, test := range table {
		require.NoError(t, test.a.Check("X"), "%d)", i+1)
		pts := test.a.Points()
		if !assert.Len(t, pts, len(test.pts), "%d)", i+1) {
			continue
		}
		for j := range pts {
			assert.InDelta(t, test.pts[j], pts[j], 1e-15, "%d) point %d", i+1, j)
		}
	}
}

func TestAxisCheck(t *testing.T) {
	table := []Axis{
		{Min: 1, Max: 0, Steps: 3},
		{Min: 0, Max: 1},
		{Min: 0, Max: 1, Steps: 3, Step: 0.1},
		{Min: 0, Max: 1, Steps: -2},
		{Min: 0, Max: 1, Step: -0.1},
		{Min: 0, Max: 0, Steps: 4},
		{Min: math.NaN(), Max: 1, Steps: 2},
		{Min: 0, Max: math.Inf(1), Step: 1},
	}
	for i, a := range table {
		if err := a.Check("Y"); err == nil {
			t.Errorf("%d) Expected an error for %+v", i+1, a)
		}
	}
}

func TestIdxCoords(t *testing.T) {
	g := &Grid{
		X: Axis{Min: 0, Max: 1, Steps: 3},
		Y: Axis{Min: 0, Max: 1, Steps: 4},
		Z: Axis{Min: 0, Max: 1, Steps: 5},
	}
	require.Equal(t, 60, g.Len())

	idx := 0
	for ix := 0; ix < 3; ix++ {
		for iy := 0; iy < 4; iy++ {
			for iz := 0; iz < 5; iz++ {
				assert.Equal(t, idx, g.Idx(ix, iy, iz))
				x, y, z := g.Coords(idx)
				assert.Equal(t, [3]int{ix, iy, iz}, [3]int{x, y, z})
				idx++
			}
		}
	}
}

func TestSweepOrigin(t *testing.T) {
	s := circleSolver(t, 1, 0.01)
	g := &Grid{
		X: Axis{Steps: 1}, Y: Axis{Steps: 1}, Z: Axis{Steps: 1},
	}
	rec := &recorder{}

	sum, err := Sweep(s, g, rec, nil)
	require.NoError(t, err)
	require.Len(t, rec.samples, 1)
	assert.Equal(t, Summary{Samples: 1, Skipped: 0, MaxField: rec.samples[0].Magnitude}, sum)
	assert.Equal(t, []int{1}, rec.slices)

	smp := rec.samples[0]
	assert.Equal(t, geom.Vec{0, 0, 0}, smp.Point)
	assert.InDelta(t, 6.2832e-7, smp.Field[2], 1e-10)
	assert.InDelta(t, 0, smp.Field[0], 1e-15)
	assert.InDelta(t, 0, smp.Field[1], 1e-15)
}

func TestSweepOrderAndSkip(t *testing.T) {
	s := circleSolver(t, 1, 0.05)
	g := &Grid{
		X: Axis{Min: 0, Max: 1, Steps: 3},
		Y: Axis{Min: 0, Max: 0, Steps: 1},
		Z: Axis{Min: -0.5, Max: 0.5, Step: 0.5},
	}
	rec := &recorder{}

	var progress [][2]int
	sum, err := Sweep(s, g, rec, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)

	// (1, 0, 0) lies on the loop.
	assert.Equal(t, 8, sum.Samples)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []int{3, 6, 8}, rec.slices)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)

	maxField := 0.0
	for i := 1; i < len(rec.samples); i++ {
		assert.True(t, rec.samples[i].Index > rec.samples[i-1].Index)
	}
	for _, smp := range rec.samples {
		assert.NotEqual(t, geom.Vec{1, 0, 0}, smp.Point)
		maxField = math.Max(maxField, smp.Magnitude)
	}
	assert.Equal(t, maxField, sum.MaxField)
}

func TestSweepThroughFilament(t *testing.T) {
	s := circleSolver(t, 1, 0)
	g := &Grid{
		X: Axis{Min: -3, Max: 3, Steps: 31},
		Y: Axis{Min: 0, Max: 0, Steps: 1},
		Z: Axis{Min: -3, Max: 3, Steps: 31},
	}
	rec := &recorder{}

	sum, err := Sweep(s, g, rec, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 31*31-2, sum.Samples)
	for _, smp := range rec.samples {
		for i := 0; i < 3; i++ {
			if math.IsInf(smp.Field[i], 0) || math.IsNaN(smp.Field[i]) {
				t.Errorf("Field at %v is %v", smp.Point, smp.Field)
			}
		}
	}
}

func TestSweepDeterministic(t *testing.T) {
	coil, err := geom.NewCoil(0.05, 2, 10, 0.2, 0.001)
	require.NoError(t, err)
	g := &Grid{
		X: Axis{Min: -0.1, Max: 0.1, Steps: 3},
		Y: Axis{Min: 0, Max: 0.05, Steps: 2},
		Z: Axis{Min: -0.2, Max: 0.2, Steps: 3},
	}

	var runs [2]*recorder
	for i := range runs {
		s, err := biot.NewSolver(&coil, biot.DefaultParams())
		require.NoError(t, err)
		runs[i] = &recorder{}
		_, err = Sweep(s, g, runs[i], nil)
		require.NoError(t, err)
	}
	assert.Equal(t, runs[0].samples, runs[1].samples)
	assert.Equal(t, runs[0].slices, runs[1].slices)
}

func TestSweepAllSingular(t *testing.T) {
	s := circleSolver(t, 1, 0.2)
	g := &Grid{
		X: Axis{Min: 0.9, Max: 1.1, Steps: 3},
		Y: Axis{Steps: 1},
		Z: Axis{Steps: 1},
	}
	rec := &recorder{}
	sum, err := Sweep(s, g, rec, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 3}, sum)
	assert.Empty(t, rec.slices)
}

func TestSweepErrors(t *testing.T) {
	s := circleSolver(t, 1, 0.01)
	g := &Grid{
		X: Axis{Min: 0, Max: 0.5, Steps: 2},
		Y: Axis{Steps: 1},
		Z: Axis{Min: 0, Max: 0.5, Steps: 2},
	}

	rec := &recorder{failAt: 3}
	sum, err := Sweep(s, g, rec, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 2, sum.Samples)

	bad := &Grid{X: Axis{Min: 1, Max: 0, Steps: 2}, Y: g.Y, Z: g.Z}
	_, err = Sweep(s, bad, &recorder{}, nil)
	assert.Error(t, err)
}

func TestParallelSweep(t *testing.T) {
	coil, err := geom.NewCoil(0.05, 2, 10, 0.2, 0.001)
	require.NoError(t, err)
	g := &Grid{
		X: Axis{Min: -0.1, Max: 0.1, Steps: 5},
		Y: Axis{Steps: 1},
		Z: Axis{Min: -0.2, Max: 0.2, Step: 0.1},
	}

	s, err := biot.NewSolver(&coil, biot.DefaultParams())
	require.NoError(t, err)
	serial := &recorder{}
	want, err := Sweep(s, g, serial, nil)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 3, 16} {
		rec := &recorder{}
		var progress []int
		sum, err := ParallelSweep(&coil, biot.DefaultParams(), g, workers, rec,
			func(done, total int) { progress = append(progress, done) })
		require.NoError(t, err, "%d workers", workers)
		assert.Equal(t, want, sum, "%d workers", workers)
		assert.Equal(t, serial.samples, rec.samples, "%d workers", workers)
		assert.Equal(t, serial.slices, rec.slices, "%d workers", workers)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, progress, "%d workers", workers)
	}
}

func TestParallelSweepErrors(t *testing.T) {
	c, err := geom.NewCircle(1, 1, 0.01)
	require.NoError(t, err)
	g := &Grid{
		X: Axis{Min: 0, Max: 0.5, Steps: 4},
		Y: Axis{Steps: 1},
		Z: Axis{Min: 0, Max: 0.5, Steps: 2},
	}

	rec := &recorder{failAt: 3}
	sum, err := ParallelSweep(&c, biot.DefaultParams(), g, 4, rec, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 2, sum.Samples)
	assert.Equal(t, []int{2}, rec.slices)

	bad := biot.DefaultParams()
	bad.Points = 4
	_, err = ParallelSweep(&c, bad, g, 2, &recorder{}, nil)
	assert.Error(t, err)
}

func TestMaxTracker(t *testing.T) {
	m := &MaxTracker{}
	assert.Equal(t, 0.0, m.Max())

	wg := &sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Observe(float64(i*1000 + j))
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 7999.0, m.Max())

	m.Observe(math.NaN())
	m.Observe(3)
	assert.Equal(t, 7999.0, m.Max())
}

func BenchmarkSweep(b *testing.B) {
	c, _ := geom.NewCircle(1, 1, 0.01)
	s, _ := biot.NewSolver(&c, biot.DefaultParams())
	g := &Grid{
		X: Axis{Min: -2, Max: 2, Steps: 5},
		Y: Axis{Steps: 1},
		Z: Axis{Min: -2, Max: 2, Steps: 5},
	}
	for i := 0; i < b.N; i++ {
		Sweep(s, g, &recorder{}, nil)
	}
}
