/*package quad implements adaptive Gauss-Kronrod quadrature.

The rules are the Kronrod extensions of the Gauss-Legendre rules used by
QUADPACK (15, 21, 31, 41, 51 and 61 points). Instead of tabulating the
abscissae, they are computed on first use: the Gauss nodes by Newton
iteration, the extra Kronrod nodes as the zeros of the Stieltjes polynomial
(which interlace with the Gauss nodes), and the weights from the Legendre
moment equations.
*/
package quad

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

const (
	eps    = 2.220446049250313e-16
	uflow  = 2.2250738585072014e-308
	newton = 100
	bisect = 200
)

// Rule is a (2n+1)-point Kronrod rule on [-1, 1] together with its
// embedded n-point Gauss rule. Rules are immutable and may be shared between
// goroutines.
type Rule struct {
	n int

	xk, wk []float64 // Kronrod nodes and weights, ascending
	gIdx   []int     // indices into xk of the Gauss nodes
	wg     []float64 // Gauss weights, matching gIdx
}

var (
	ruleMtx   sync.Mutex
	ruleCache = map[int]*Rule{}
)

// ValidPoints returns true if there is a Rule with the given point count.
func ValidPoints(points int) bool {
	switch points {
	case 15, 21, 31, 41, 51, 61:
		return true
	}
	return false
}

// NewRule returns the Gauss-Kronrod rule with the given number of points.
// Rules are cached, so repeated calls are cheap.
func NewRule(points int) (*Rule, error) {
	if !ValidPoints(points) {
		return nil, fmt.Errorf(
			"No %d-point Gauss-Kronrod rule. Options are 15, 21, 31, 41, "+
				"51, and 61.", points,
		)
	}

	ruleMtx.Lock()
	defer ruleMtx.Unlock()

	if r, ok := ruleCache[points]; ok {
		return r, nil
	}
	r, err := buildRule((points - 1) / 2)
	if err != nil {
		return nil, err
	}
	ruleCache[points] = r
	return r, nil
}

// Points returns the number of function evaluations per application of r.
func (r *Rule) Points() int { return 2*r.n + 1 }

// Nodes returns copies of the Kronrod nodes and weights on [-1, 1].
func (r *Rule) Nodes() (xs, ws []float64) {
	xs = append([]float64{}, r.xk...)
	ws = append([]float64{}, r.wk...)
	return xs, ws
}

// GaussNodes returns copies of the embedded Gauss nodes and weights on
// [-1, 1].
func (r *Rule) GaussNodes() (xs, ws []float64) {
	xs = make([]float64, len(r.gIdx))
	for i, j := range r.gIdx {
		xs[i] = r.xk[j]
	}
	return xs, append([]float64{}, r.wg...)
}

// Apply integrates f over [a, b]. abserr is QUADPACK's error estimate,
// resabs approximates the integral of |f| and resasc the integral of
// |f - mean(f)|.
func (r *Rule) Apply(
	f func(float64) float64, a, b float64,
) (result, abserr, resabs, resasc float64) {
	return r.apply(f, a, b, make([]float64, len(r.xk)))
}

// apply is Apply with a caller-owned buffer for the function values.
func (r *Rule) apply(
	f func(float64) float64, a, b float64, fv []float64,
) (result, abserr, resabs, resasc float64) {
	center, half := 0.5*(a+b), 0.5*(b-a)
	absHalf := math.Abs(half)

	var resk, resg float64
	for i, x := range r.xk {
		fv[i] = f(center + half*x)
		resk += r.wk[i] * fv[i]
		resabs += r.wk[i] * math.Abs(fv[i])
	}
	for i, j := range r.gIdx {
		resg += r.wg[i] * fv[j]
	}

	mean := 0.5 * resk
	for i := range fv {
		resasc += r.wk[i] * math.Abs(fv[i]-mean)
	}

	abserr = math.Abs((resk - resg) * half)
	result = resk * half
	resabs *= absHalf
	resasc *= absHalf

	if resasc != 0 && abserr != 0 {
		scale := math.Pow(200*abserr/resasc, 1.5)
		if scale < 1 {
			abserr = resasc * scale
		} else {
			abserr = resasc
		}
	}
	if resabs > uflow/(50*eps) {
		if minErr := 50 * eps * resabs; minErr > abserr {
			abserr = minErr
		}
	}

	return result, abserr, resabs, resasc
}

func buildRule(n int) (*Rule, error) {
	gx, gw := gaussLegendre(n)
	stieltjes, err := stieltjesCoeffs(n)
	if err != nil {
		return nil, err
	}

	// Exactly one Stieltjes zero lies between each pair of consecutive Gauss
	// nodes, including the pairs formed with the endpoints.
	edges := append(append([]float64{-1}, gx...), 1)
	kx := make([]float64, 0, n+1)
	for i := 0; i+1 < len(edges); i++ {
		root, err := bisectRoot(func(x float64) float64 {
			return legendreSeries(stieltjes, x)
		}, edges[i], edges[i+1])
		if err != nil {
			return nil, err
		}
		kx = append(kx, root)
	}

	type node struct {
		x     float64
		gauss int
	}
	nodes := make([]node, 0, 2*n+1)
	for i := range gx {
		nodes = append(nodes, node{gx[i], i})
	}
	for i := range kx {
		nodes = append(nodes, node{kx[i], -1})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].x < nodes[j].x })

	r := &Rule{n: n}
	r.xk = make([]float64, len(nodes))
	for i := range nodes {
		r.xk[i] = nodes[i].x
	}
	symmetrize(r.xk)

	for i := range nodes {
		if nodes[i].gauss >= 0 {
			r.gIdx = append(r.gIdx, i)
			r.wg = append(r.wg, gw[nodes[i].gauss])
		}
	}

	if r.wk, err = momentWeights(r.xk); err != nil {
		return nil, err
	}
	symmetrize(r.wk)
	for i := range r.wk {
		r.wk[i] = math.Abs(r.wk[i])
	}

	return r, nil
}

// symmetrize forces xs[i] = -xs[len-1-i] for nodes or xs[i] = xs[len-1-i]
// for weights, based on the sign of the outermost pair.
func symmetrize(xs []float64) {
	n := len(xs)
	sign := 1.0
	if xs[0] < 0 && xs[n-1] > 0 {
		sign = -1.0
	}
	for i := 0; i < n/2; i++ {
		v := 0.5 * (sign*xs[i] + xs[n-1-i])
		xs[i], xs[n-1-i] = sign*v, v
	}
	if n%2 == 1 && sign < 0 {
		xs[n/2] = 0
	}
}

// legendre returns P_n(x) and P_{n-1}(x).
func legendre(n int, x float64) (pn, pnm1 float64) {
	if n == 0 {
		return 1, 0
	}
	p0, p1 := 1.0, x
	for k := 1; k < n; k++ {
		p0, p1 = p1, (float64(2*k+1)*x*p1-float64(k)*p0)/float64(k+1)
	}
	return p1, p0
}

// legendreAll writes P_0(x) ... P_{len(ps)-1}(x) into ps.
func legendreAll(x float64, ps []float64) {
	if len(ps) == 0 {
		return
	}
	ps[0] = 1
	if len(ps) == 1 {
		return
	}
	ps[1] = x
	for k := 1; k+1 < len(ps); k++ {
		ps[k+1] = (float64(2*k+1)*x*ps[k] - float64(k)*ps[k-1]) /
			float64(k+1)
	}
}

// legendreSeries evaluates sum_k cs[k] P_k(x).
func legendreSeries(cs []float64, x float64) float64 {
	ps := make([]float64, len(cs))
	legendreAll(x, ps)
	sum := 0.0
	for k := range cs {
		sum += cs[k] * ps[k]
	}
	return sum
}

// gaussLegendre returns the n Gauss-Legendre nodes, ascending, and their
// weights.
func gaussLegendre(n int) (xs, ws []float64) {
	xs, ws = make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		x := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var dp float64
		for iter := 0; iter < newton; iter++ {
			pn, pnm1 := legendre(n, x)
			dp = float64(n) * (x*pn - pnm1) / (x*x - 1)
			dx := pn / dp
			x -= dx
			if math.Abs(dx) <= 4*eps {
				break
			}
		}
		pn, pnm1 := legendre(n, x)
		dp = float64(n) * (x*pn - pnm1) / (x*x - 1)

		xs[n-1-i] = x
		ws[n-1-i] = 2 / ((1 - x*x) * dp * dp)
	}
	return xs, ws
}

// stieltjesCoeffs returns the Legendre coefficients of the Stieltjes
// polynomial E_{n+1}, normalized so that the P_{n+1} coefficient is one.
// E_{n+1} is orthogonal to every P_j with j <= n under the weight P_n. By
// parity only the coefficients c_k with k = n-1, n-3, ... and the conditions
// with odd j survive, and the resulting system is triangular with a
// non-zero diagonal.
func stieltjesCoeffs(n int) ([]float64, error) {
	m := (n + 1) / 2
	qx, qw := gaussLegendre(3*n/2 + 2)

	ps := make([]float64, n+2)
	triple := func(j, k int) float64 {
		sum := 0.0
		for i := range qx {
			legendreAll(qx[i], ps)
			sum += qw[i] * ps[n] * ps[k] * ps[j]
		}
		return sum
	}

	a := mat.NewDense(m, m, nil)
	b := mat.NewVecDense(m, nil)
	for row := 0; row < m; row++ {
		j := 2*row + 1
		b.SetVec(row, -triple(j, n+1))
		for col := 0; col < m; col++ {
			a.Set(row, col, triple(j, n-1-2*col))
		}
	}

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("Stieltjes system for n = %d: %w", n, err)
	}

	cs := make([]float64, n+2)
	cs[n+1] = 1
	for col := 0; col < m; col++ {
		cs[n-1-2*col] = c.AtVec(col)
	}
	return cs, nil
}

// momentWeights returns the interpolatory weights on the given nodes, i.e.
// the solution of sum_i w_i P_k(x_i) = integral of P_k over [-1, 1].
func momentWeights(xs []float64) ([]float64, error) {
	n := len(xs)
	a := mat.NewDense(n, n, nil)
	ps := make([]float64, n)
	for i, x := range xs {
		legendreAll(x, ps)
		for k := 0; k < n; k++ {
			a.Set(k, i, ps[k])
		}
	}
	b := mat.NewVecDense(n, nil)
	b.SetVec(0, 2)

	var w mat.VecDense
	if err := w.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("Kronrod weights for %d nodes: %w", n, err)
	}

	ws := make([]float64, n)
	for i := range ws {
		ws[i] = w.AtVec(i)
	}
	return ws, nil
}

func bisectRoot(f func(float64) float64, lo, hi float64) (float64, error) {
	flo, fhi := f(lo), f(hi)
	if flo == 0 {
		return lo, nil
	} else if fhi == 0 {
		return hi, nil
	} else if (flo > 0) == (fhi > 0) {
		return 0, fmt.Errorf(
			"No sign change of the Stieltjes polynomial in [%g, %g].",
			lo, hi,
		)
	}

	for i := 0; i < bisect; i++ {
		mid := 0.5 * (lo + hi)
		if mid <= lo || mid >= hi {
			break
		}
		fmid := f(mid)
		if fmid == 0 {
			return mid, nil
		}
		if (fmid > 0) == (flo > 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}
