package render

import (
	"fmt"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
)

// Pyplot queues a matplotlib figure of the field and the curve which is
// saved to fname. Nothing is drawn until Execute is called.
func Pyplot(samples []grid.Sample, curve []geom.Vec, f Frame, fname string) {
	plt.Figure(plt.FigSize(8, 8))

	for i := range samples {
		x0, z0, x1, z1 := f.Arrow(&samples[i])
		plt.Plot([]float64{x0, x1}, []float64{z0, z1}, plt.LW(1), plt.C(fieldColor))
		plt.Plot([]float64{x1}, []float64{z1}, ".", plt.C(fieldColor))
	}

	xs, zs := projectCurve(curve)
	plt.Plot(xs, zs, plt.LW(2), plt.C(curveColor))

	lo, hi := f.Window()
	plt.Title(fmt.Sprintf("$|B|_{\\rm max}$ = %.3g T", f.MaxField))
	plt.XLabel(xLabel, plt.FontSize(14))
	plt.YLabel(zLabel, plt.FontSize(14))
	plt.XLim(lo, hi)
	plt.YLim(lo, hi)
	plt.SaveFig(fname)
}

// Execute runs every queued Pyplot figure.
func Execute() {
	plt.Execute()
}
