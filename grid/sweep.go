package grid

import (
	"fmt"
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/phil-mansfield/bsfield/biot"
	"github.com/phil-mansfield/bsfield/geom"
)

// NumCores is the number of workers used by main when it calls
// ParallelSweep.
var NumCores = 1

// Sample is the field at a single accepted grid point.
type Sample struct {
	// Index is the point's sweep-order index in its Grid.
	Index int
	Point geom.Vec
	// Field is B in Tesla and Error is the integrator's absolute error
	// estimate for each component.
	Field, Error geom.Vec
	Magnitude    float64
}

// SampleWriter consumes samples in sweep order.
type SampleWriter interface {
	WriteSample(s *Sample) error
	// EndSlice is called after every x-slice which produced at least one
	// sample.
	EndSlice() error
}

// Summary describes a completed sweep.
type Summary struct {
	Samples, Skipped int
	// MaxField is the largest |B| of any computed sample.
	MaxField float64
}

// MaxTracker records the running maximum of a set of non-negative values.
// Its methods may be called from multiple goroutines. The zero value is
// ready to use and reports a maximum of 0.
type MaxTracker struct {
	bits uint64
}

// Observe updates the maximum with x. NaN values are ignored.
func (m *MaxTracker) Observe(x float64) {
	if math.IsNaN(x) {
		return
	}
	for {
		old := atomic.LoadUint64(&m.bits)
		if x <= math.Float64frombits(old) {
			return
		}
		if atomic.CompareAndSwapUint64(&m.bits, old, math.Float64bits(x)) {
			return
		}
	}
}

// Max returns the largest value observed so far.
func (m *MaxTracker) Max() float64 {
	return math.Float64frombits(atomic.LoadUint64(&m.bits))
}

// slice is the set of samples computed for one x index.
type slice struct {
	ix      int
	samples []Sample
	skipped int
	err     error
}

// computeSlice evaluates every point of the x-slice ix. It stops at the first
// integration error.
func computeSlice(s *biot.Solver, g *Grid, ix int, peak *MaxTracker) *slice {
	curve := s.Curve()
	x := g.X.At(ix)
	ys, zs := g.Y.Points(), g.Z.Points()
	sl := &slice{ix: ix, samples: make([]Sample, 0, len(ys)*len(zs))}

	for iy, y := range ys {
		for iz, z := range zs {
			p := geom.Vec{x, y, z}
			if curve.IsSingular(p) {
				sl.skipped++
				continue
			}

			b, bErr, err := s.Field(p)
			if err != nil {
				sl.err = err
				return sl
			}

			smp := Sample{
				Index: g.Idx(ix, iy, iz), Point: p,
				Field: b, Error: bErr, Magnitude: b.Norm(),
			}
			peak.Observe(smp.Magnitude)
			sl.samples = append(sl.samples, smp)
		}
	}
	return sl
}

// emit writes a completed slice to out and adds it to sum.
func (sl *slice) emit(out SampleWriter, sum *Summary) error {
	if sl.err != nil {
		return sl.err
	}
	sum.Skipped += sl.skipped
	for i := range sl.samples {
		if err := out.WriteSample(&sl.samples[i]); err != nil {
			return fmt.Errorf("Could not write sample at %s: %w",
				sl.samples[i].Point.String(), err)
		}
		sum.Samples++
	}
	if len(sl.samples) > 0 {
		return out.EndSlice()
	}
	return nil
}

// Sweep computes the field of s.Curve() at every point of g, visiting x in
// the outer loop and z in the inner loop, and writes each sample to out.
// Points the curve reports as singular are skipped. If progress is non-nil,
// it is called after each x index completes.
//
// The first integration or write error stops the sweep. The returned Summary
// covers the slices written before that error.
func Sweep(
	s *biot.Solver, g *Grid, out SampleWriter,
	progress func(done, total int),
) (Summary, error) {
	if err := g.Check(); err != nil {
		return Summary{}, err
	}

	nx := g.X.Len()
	sum := Summary{}
	peak := &MaxTracker{}

	for ix := 0; ix < nx; ix++ {
		if err := computeSlice(s, g, ix, peak).emit(out, &sum); err != nil {
			sum.MaxField = peak.Max()
			return sum, err
		}
		if progress != nil {
			progress(ix+1, nx)
		}
	}

	sum.MaxField = peak.Max()
	logSummary(&sum, 1)
	return sum, nil
}

// ParallelSweep is Sweep with the x-slices of g split between workers
// goroutines. Each worker owns a Solver built from c and p. Finished slices
// are buffered until every earlier slice has been written, so out sees the
// same sequence of calls as it would from Sweep.
func ParallelSweep(
	c *geom.Curve, p biot.Params, g *Grid, workers int, out SampleWriter,
	progress func(done, total int),
) (Summary, error) {
	if err := g.Check(); err != nil {
		return Summary{}, err
	}
	nx := g.X.Len()
	if workers > nx {
		workers = nx
	}
	if workers < 1 {
		workers = 1
	}

	solvers := make([]*biot.Solver, workers)
	for i := range solvers {
		s, err := biot.NewSolver(c, p)
		if err != nil {
			return Summary{}, err
		}
		solvers[i] = s
	}

	jobs := make(chan int, nx)
	for ix := 0; ix < nx; ix++ {
		jobs <- ix
	}
	close(jobs)

	quit := make(chan struct{})
	defer close(quit)
	done := make(chan *slice, workers)
	peak := &MaxTracker{}

	for id := 0; id < workers; id++ {
		go func(s *biot.Solver) {
			for ix := range jobs {
				select {
				case <-quit:
					return
				default:
				}
				sl := computeSlice(s, g, ix, peak)
				select {
				case done <- sl:
				case <-quit:
					return
				}
			}
		}(solvers[id])
	}

	sum := Summary{}
	pending := map[int]*slice{}
	for next := 0; next < nx; {
		got := <-done
		pending[got.ix] = got

		for sl, ok := pending[next]; ok; sl, ok = pending[next] {
			delete(pending, next)
			if err := sl.emit(out, &sum); err != nil {
				sum.MaxField = peak.Max()
				return sum, err
			}
			next++
			if progress != nil {
				progress(next, nx)
			}
		}
	}

	sum.MaxField = peak.Max()
	logSummary(&sum, workers)
	return sum, nil
}

func logSummary(sum *Summary, workers int) {
	biot.Logger().Debug("Finished sweep",
		zap.Int("samples", sum.Samples), zap.Int("skipped", sum.Skipped),
		zap.Float64("max_field", sum.MaxField), zap.Int("workers", workers))
}
