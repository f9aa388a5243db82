package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
)

var (
	darkGreen = color.RGBA{R: 0x00, G: 0x64, B: 0x00, A: 0xff}
	orange    = color.RGBA{R: 0xff, G: 0x76, B: 0x3a, A: 0xff}
)

// arrows is a plot.Plotter which draws one field arrow per segment.
type arrows struct {
	segs  [][4]float64
	style draw.LineStyle
	head  vg.Length
}

func newArrows(samples []grid.Sample, f *Frame) *arrows {
	a := &arrows{
		segs:  make([][4]float64, len(samples)),
		style: draw.LineStyle{Color: darkGreen, Width: vg.Points(1)},
		head:  vg.Points(4),
	}
	for i := range samples {
		x0, z0, x1, z1 := f.Arrow(&samples[i])
		a.segs[i] = [4]float64{x0, z0, x1, z1}
	}
	return a
}

func (a *arrows) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, s := range a.segs {
		x0, y0 := trX(s[0]), trY(s[1])
		x1, y1 := trX(s[2]), trY(s[3])
		c.StrokeLine2(a.style, x0, y0, x1, y1)

		dx, dy := float64(x1-x0), float64(y1-y0)
		n := math.Hypot(dx, dy)
		if n == 0 {
			continue
		}
		head := math.Min(float64(a.head), 0.4*n)
		ux, uy := dx/n, dy/n
		for _, sign := range []float64{-1, +1} {
			// Barbs at +/- 30 degrees from the shaft.
			bx := -head * (ux*math.Cos(math.Pi/6) - sign*uy*math.Sin(math.Pi/6))
			by := -head * (uy*math.Cos(math.Pi/6) + sign*ux*math.Sin(math.Pi/6))
			c.StrokeLine2(a.style, x1, y1, x1+vg.Length(bx), y1+vg.Length(by))
		}
	}
}

// DataRange implements plot.DataRanger.
func (a *arrows) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(+1), math.Inf(+1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, s := range a.segs {
		xmin = math.Min(xmin, math.Min(s[0], s[2]))
		xmax = math.Max(xmax, math.Max(s[0], s[2]))
		ymin = math.Min(ymin, math.Min(s[1], s[3]))
		ymax = math.Max(ymax, math.Max(s[1], s[3]))
	}
	return xmin, xmax, ymin, ymax
}

// NewPlot builds the gonum figure of the field and the curve.
func NewPlot(samples []grid.Sample, curve []geom.Vec, f Frame) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = zLabel

	field := newArrows(samples, &f)
	p.Add(field)

	if len(curve) > 0 {
		xs, zs := projectCurve(curve)
		pts := make(plotter.XYs, len(xs))
		for i := range pts {
			pts[i] = plotter.XY{X: xs[i], Y: zs[i]}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Color = orange
		l.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add("curve", l)
	}

	lo, hi := f.Window()
	p.X.Min, p.X.Max = lo, hi
	p.Y.Min, p.Y.Max = lo, hi
	return p, nil
}

// PNG renders the field and curve to an image file. The format is taken
// from the extension of fname.
func PNG(samples []grid.Sample, curve []geom.Vec, f Frame, fname string) error {
	p, err := NewPlot(samples, curve, f)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, fname)
}
