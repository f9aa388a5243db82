package quad

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// QUADPACK's tabulated 15-point abscissae and weights, x >= 0 half.
var (
	qk15X = []float64{
		0.991455371120812639206854697526329,
		0.949107912342758524526189684047851,
		0.864864423359769072789712788640926,
		0.741531185599394439863864773280788,
		0.586087235467691130294144845693013,
		0.405845151377397166906606412076961,
		0.207784955007898467600689403773245,
		0.000000000000000000000000000000000,
	}
	qk15W = []float64{
		0.022935322010529224963732008058970,
		0.063092092629978553290700663189204,
		0.104790010322250183839876322541518,
		0.140653259715525918745189590510238,
		0.169004726639267902826583426598550,
		0.190350578064785409913256402421014,
		0.204432940075298892414161999234649,
		0.209482141084727828012999174891714,
	}
)

func TestRule15Table(t *testing.T) {
	r, err := NewRule(15)
	require.NoError(t, err)
	xs, ws := r.Nodes()
	require.Len(t, xs, 15)

	for i := range qk15X {
		// Nodes are ascending, so the largest is last.
		j := len(xs) - 1 - i
		assert.InDelta(t, qk15X[i], xs[j], 1e-12, "%d) node", i+1)
		assert.InDelta(t, qk15W[i], ws[j], 1e-12, "%d) weight", i+1)
	}
}

func TestRuleExactness(t *testing.T) {
	for _, points := range []int{15, 21, 31, 41, 51, 61} {
		r, err := NewRule(points)
		require.NoError(t, err)
		n := (points - 1) / 2

		xs, ws := r.Nodes()
		gx, gw := r.GaussNodes()
		assert.Len(t, gx, n)

		sum := 0.0
		for i := range xs {
			assert.True(t, xs[i] > -1 && xs[i] < 1, "%d-point node %g", points, xs[i])
			assert.True(t, ws[i] > 0, "%d-point weight %g", points, ws[i])
			if i > 0 {
				assert.True(t, xs[i] > xs[i-1], "%d-point nodes unsorted", points)
			}
			sum += ws[i]
		}
		assert.InDelta(t, 2, sum, 1e-13, "%d-point weight sum", points)

		// Kronrod: exact through degree 3n+1. Gauss: through 2n-1.
		for k := 0; k <= 3*n+1; k++ {
			exact := 0.0
			if k%2 == 0 {
				exact = 2 / float64(k+1)
			}
			assert.InDelta(t, exact, moment(xs, ws, k), 1e-10,
				"%d-point Kronrod rule, degree %d", points, k)
			if k <= 2*n-1 {
				assert.InDelta(t, exact, moment(gx, gw, k), 1e-12,
					"%d-point Gauss rule, degree %d", points, k)
			}
		}
	}
}

func moment(xs, ws []float64, k int) float64 {
	sum := 0.0
	for i := range xs {
		sum += ws[i] * math.Pow(xs[i], float64(k))
	}
	return sum
}

func TestNewRuleInvalid(t *testing.T) {
	for _, points := range []int{0, 7, 40, 43, 101} {
		_, err := NewRule(points)
		assert.Error(t, err, "%d points", points)
	}
}

func TestNewRuleCached(t *testing.T) {
	r1, err := NewRule(21)
	require.NoError(t, err)
	r2, err := NewRule(21)
	require.NoError(t, err)
	assert.True(t, r1 == r2)
}

func TestQAG(t *testing.T) {
	table := []struct {
		f      func(float64) float64
		a, b   float64
		exact  float64
		points int
		epsrel float64
	}{
		{math.Sin, 0, math.Pi, 2, 15, 1e-10},
		{math.Sqrt, 0, 1, 2.0 / 3, 21, 1e-10},
		{func(x float64) float64 { return 1 / (x*x + 1e-4) },
			-1, 1, 200 * math.Atan(100), 41, 1e-10},
		{func(x float64) float64 { return math.Exp(-x) }, 0, 40, 1 - math.Exp(-40), 61, 1e-12},
		{func(x float64) float64 { return 3 }, 2, -1, -9, 41, 1e-12},
	}

	w := NewWorkspace(1000)
	for i, test := range table {
		r, err := NewRule(test.points)
		require.NoError(t, err)

		res, abserr, err := w.QAG(test.f, test.a, test.b, 0, test.epsrel, r)
		if !assert.NoError(t, err, "%d)", i+1) {
			continue
		}
		tol := test.epsrel * math.Abs(test.exact)
		assert.InDelta(t, test.exact, res, 10*tol, "%d) result", i+1)
		assert.True(t, abserr <= 1.01*tol, "%d) error estimate %g > %g", i+1, abserr, tol)
		assert.True(t, w.Size() <= w.Limit(), "%d) size", i+1)
	}
}

func TestQAGZero(t *testing.T) {
	r, err := NewRule(41)
	require.NoError(t, err)
	w := NewWorkspace(1000)

	res, abserr, err := w.QAG(
		func(float64) float64 { return 0 }, -math.Pi, math.Pi, 1e-5, 1e-3, r,
	)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res)
	assert.Equal(t, 0.0, abserr)
	assert.Equal(t, 1, w.Size())
}

func TestQAGLimit(t *testing.T) {
	r, err := NewRule(15)
	require.NoError(t, err)
	w := NewWorkspace(1)

	_, _, err = w.QAG(math.Sqrt, 0, 1, 0, 1e-10, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSubdivisionLimit), err.Error())
}

func TestQAGTolerance(t *testing.T) {
	r, err := NewRule(15)
	require.NoError(t, err)
	w := NewWorkspace(10)

	_, _, err = w.QAG(math.Sin, 0, 1, 0, 0, r)
	assert.True(t, errors.Is(err, ErrTolerance))
}

func TestWorkspaceReuse(t *testing.T) {
	r, err := NewRule(21)
	require.NoError(t, err)
	w := NewWorkspace(100)

	f := func(x float64) float64 { return 1 / (1 + 25*x*x) }
	res1, err1, err := w.QAG(f, -1, 1, 1e-12, 1e-12, r)
	require.NoError(t, err)
	_, _, err = w.QAG(math.Sqrt, 0, 1, 1e-12, 1e-12, r)
	require.NoError(t, err)
	res2, err2, err := w.QAG(f, -1, 1, 1e-12, 1e-12, r)
	require.NoError(t, err)

	assert.Equal(t, res1, res2)
	assert.Equal(t, err1, err2)
}

func BenchmarkRule41(b *testing.B) {
	r, err := NewRule(41)
	if err != nil {
		b.Fatal(err.Error())
	}
	for i := 0; i < b.N; i++ {
		r.Apply(math.Sin, 0, 1)
	}
}

func BenchmarkQAGSqrt(b *testing.B) {
	r, err := NewRule(41)
	if err != nil {
		b.Fatal(err.Error())
	}
	w := NewWorkspace(1000)
	for i := 0; i < b.N; i++ {
		w.QAG(math.Sqrt, 0, 1, 0, 1e-10, r)
	}
}
