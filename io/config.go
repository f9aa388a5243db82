package io

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/bsfield/biot"
	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
	"github.com/phil-mansfield/bsfield/quad"
)

const (
	ExampleFieldFile = `[Field]

#######################
# Required Parameters #
#######################

# The shape of the wire. Must be one of [ Circle | Coil ]. A Circle lies in
# the x-y plane and is centered on the origin. A Coil is a helix wound around
# the z axis.
Shape = Circle

# Radius of the loop or helix in meters.
Radius = 1.0

# Current through the wire in Amperes. Negative currents flow clockwise when
# seen from +z.
Current = 1.0

# Turns and Length (both in meters) are only used by Coils.
# Turns = 10
# Length = 0.2

# The range of each coordinate in meters. Either give the number of points
# with {X,Y,Z}Steps (1 means that only {X,Y,Z}Min is used), or give the
# spacing between points with {X,Y,Z}Step.
XMin = -3
XMax = 3
XSteps = 31
YMin = 0
YMax = 0
YSteps = 1
ZMin = -3
ZMax = 3
ZSteps = 31

# Length in meters of the longest field arrow in the plot.
MaxLen = 0.2

#######################
# Optional Parameters #
#######################

# Physical radius of the wire in meters. Points closer than this to the wire
# are not computed, and the field falls to zero inside the wire. Default is 0,
# which only skips points lying on the wire itself.
WireRadius = 0.01

# Integration tolerances, applied to each component of the field before it is
# multiplied by mu0 / 4 pi. Defaults are 1e-5 and 1e-3.
# AbsError = 1e-5
# RelError = 1e-3

# The maximum number of subintervals used by the integrator and the number of
# points in its Gauss-Kronrod rule, one of [ 15 | 21 | 31 | 41 | 51 | 61 ].
# Limit = 1000
# Rule = 41

# ParameterRange is the range of the curve parameter, one of
# [ Centered | Positive ]. Centered runs over [-P/2, P/2] and Positive over
# [0, P], where P is 2 pi times the number of turns.
# ParameterRange = Centered

# Singularity is the test for points inside the wire, one of
# [ WireRadius | Heuristic ]. WireRadius skips points closer than WireRadius
# to the wire. Heuristic skips points in a thin band around the wire that
# scales with Radius and Length.
# Singularity = WireRadius

# Integrate the three field components in parallel.
# ConcurrentAxes = false

# Number of points per turn written to CurveFile.
# CurveSamples = 100

# Output files. Plotter must be one of [ Pyplot | PNG | None ]. Pyplot needs
# python and matplotlib.
# FieldFile = field.dat
# CurveFile = curve.dat
# Plotter = Pyplot
# PlotFile = field.png

# Output files which are useful for profiling and debugging. Verbose writes
# debugging information to the log.
# ProfileFile = prof.out
# LogFile = log.out
# Verbose = false`
)

// ConfigError describes an invalid configuration value.
type ConfigError struct {
	Field, Value, Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("Invalid/non-existent '%s' value: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf(
		"Invalid '%s' value '%s': %s", e.Field, e.Value, e.Reason,
	)
}

type SharedConfig struct {
	// Optional
	LogFile, ProfileFile string
	Verbose              bool
}

func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type FieldConfig struct {
	SharedConfig

	// Required
	Shape           string
	Radius, Current float64

	XMin, XMax, YMin, YMax, ZMin, ZMax float64
	XSteps, YSteps, ZSteps             int
	XStep, YStep, ZStep                float64

	MaxLen float64

	// Optional
	WireRadius float64
	Turns      int
	Length     float64

	AbsError, RelError float64
	Limit, Rule        int

	ParameterRange, Singularity string
	ConcurrentAxes              bool
	CurveSamples                int

	FieldFile, CurveFile, Plotter, PlotFile string
}

type FieldWrapper struct {
	Field FieldConfig
}

// DefaultFieldWrapper returns a wrapper with every optional value set to its
// default. Required floats are NaN so that missing values can be detected.
func DefaultFieldWrapper() *FieldWrapper {
	nan := math.NaN()
	p := biot.DefaultParams()
	con := FieldConfig{
		Radius: nan, Current: nan, MaxLen: nan,
		XMin: nan, XMax: nan, YMin: nan, YMax: nan, ZMin: nan, ZMax: nan,

		AbsError: p.AbsError, RelError: p.RelError,
		Limit: p.Limit, Rule: p.Points,

		ParameterRange: geom.Centered.String(),
		Singularity:    geom.WireRadiusTest.String(),
		CurveSamples:   100,

		FieldFile: "field.dat", CurveFile: "curve.dat",
		Plotter: Pyplot.String(), PlotFile: "field.png",
	}
	return &FieldWrapper{con}
}

// ReadFieldConfig reads and validates a [Field] configuration file.
func ReadFieldConfig(fname string) (*FieldConfig, error) {
	wrap := DefaultFieldWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.Field
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

// ReadFieldConfigString is ReadFieldConfig for an in-memory file.
func ReadFieldConfigString(text string) (*FieldConfig, error) {
	wrap := DefaultFieldWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, err
	}
	con := &wrap.Field
	if err := con.CheckInit(); err != nil {
		return nil, err
	}
	return con, nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func (con *FieldConfig) ValidShape() bool {
	_, err := geom.ParseShape(strings.TrimSpace(con.Shape))
	return err == nil
}
func (con *FieldConfig) ValidRadius() bool {
	return finite(con.Radius) && con.Radius > 0
}
func (con *FieldConfig) ValidCurrent() bool {
	return finite(con.Current)
}
func (con *FieldConfig) ValidWireRadius() bool {
	return finite(con.WireRadius) && con.WireRadius >= 0 &&
		(!con.ValidRadius() || con.WireRadius < con.Radius)
}
func (con *FieldConfig) ValidTurns() bool {
	return con.Turns > 0
}
func (con *FieldConfig) ValidLength() bool {
	return finite(con.Length) && con.Length > 0
}
func (con *FieldConfig) ValidMaxLen() bool {
	return finite(con.MaxLen) && con.MaxLen > 0
}
func (con *FieldConfig) ValidAbsError() bool {
	return finite(con.AbsError) && con.AbsError >= 0
}
func (con *FieldConfig) ValidRelError() bool {
	return finite(con.RelError) && con.RelError >= 0
}
func (con *FieldConfig) ValidLimit() bool {
	return con.Limit > 0
}
func (con *FieldConfig) ValidRule() bool {
	return quad.ValidPoints(con.Rule)
}
func (con *FieldConfig) ValidParameterRange() bool {
	_, err := geom.ParseParamRange(strings.TrimSpace(con.ParameterRange))
	return err == nil
}
func (con *FieldConfig) ValidSingularity() bool {
	_, err := geom.ParseSingularity(strings.TrimSpace(con.Singularity))
	return err == nil
}
func (con *FieldConfig) ValidCurveSamples() bool {
	return con.CurveSamples > 0
}
func (con *FieldConfig) ValidFieldFile() bool {
	return con.FieldFile != ""
}
func (con *FieldConfig) ValidCurveFile() bool {
	return con.CurveFile != ""
}
func (con *FieldConfig) ValidPlotter() bool {
	_, err := ParsePlotter(strings.TrimSpace(con.Plotter))
	return err == nil
}
func (con *FieldConfig) ValidPlotFile() bool {
	return con.PlotFile != ""
}

func fmtFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// CheckInit validates con and returns a *ConfigError naming the first
// invalid value.
func (con *FieldConfig) CheckInit() error {
	bad := func(field, value, reason string) error {
		return &ConfigError{Field: field, Value: value, Reason: reason}
	}

	if !con.ValidShape() {
		return bad("Shape", con.Shape, "must be one of [Circle | Coil].")
	} else if !con.ValidRadius() {
		return bad("Radius", fmtFloat(con.Radius), "must be positive.")
	} else if !con.ValidCurrent() {
		return bad("Current", fmtFloat(con.Current), "must be a finite number.")
	} else if !con.ValidWireRadius() {
		return bad("WireRadius", fmtFloat(con.WireRadius),
			"must be non-negative and smaller than Radius.")
	}

	shape, _ := geom.ParseShape(strings.TrimSpace(con.Shape))
	if shape == geom.Coil {
		if !con.ValidTurns() {
			return bad("Turns", strconv.Itoa(con.Turns),
				"a Coil needs a positive number of turns.")
		} else if !con.ValidLength() {
			return bad("Length", fmtFloat(con.Length),
				"a Coil needs a positive length.")
		}
	}

	axes := []struct {
		name           string
		min, max, step float64
		steps          int
	}{
		{"X", con.XMin, con.XMax, con.XStep, con.XSteps},
		{"Y", con.YMin, con.YMax, con.YStep, con.YSteps},
		{"Z", con.ZMin, con.ZMax, con.ZStep, con.ZSteps},
	}
	for _, ax := range axes {
		if !finite(ax.min) {
			return bad(ax.name+"Min", fmtFloat(ax.min), "must be a finite number.")
		} else if !finite(ax.max) {
			return bad(ax.name+"Max", fmtFloat(ax.max), "must be a finite number.")
		}
		a := grid.Axis{Min: ax.min, Max: ax.max, Steps: ax.steps, Step: ax.step}
		if err := a.Check(ax.name); err != nil {
			if ax.steps == 0 && ax.step != 0 {
				return bad(ax.name+"Step", fmtFloat(ax.step), err.Error())
			}
			return bad(ax.name+"Steps", strconv.Itoa(ax.steps), err.Error())
		}
	}

	switch {
	case !con.ValidMaxLen():
		return bad("MaxLen", fmtFloat(con.MaxLen), "must be positive.")
	case !con.ValidAbsError():
		return bad("AbsError", fmtFloat(con.AbsError), "must be non-negative.")
	case !con.ValidRelError():
		return bad("RelError", fmtFloat(con.RelError), "must be non-negative.")
	case !con.ValidLimit():
		return bad("Limit", strconv.Itoa(con.Limit), "must be positive.")
	case !con.ValidRule():
		return bad("Rule", strconv.Itoa(con.Rule),
			"must be one of [15 | 21 | 31 | 41 | 51 | 61].")
	case !con.ValidParameterRange():
		return bad("ParameterRange", con.ParameterRange,
			"must be one of [Centered | Positive].")
	case !con.ValidSingularity():
		return bad("Singularity", con.Singularity,
			"must be one of [WireRadius | Heuristic].")
	case !con.ValidCurveSamples():
		return bad("CurveSamples", strconv.Itoa(con.CurveSamples),
			"must be positive.")
	case !con.ValidFieldFile():
		return bad("FieldFile", con.FieldFile, "must be set.")
	case !con.ValidCurveFile():
		return bad("CurveFile", con.CurveFile, "must be set.")
	case !con.ValidPlotter():
		return bad("Plotter", con.Plotter, "must be one of [Pyplot | PNG | None].")
	case !con.ValidPlotFile():
		return bad("PlotFile", con.PlotFile, "must be set.")
	}

	return nil
}

// Curve builds the wire described by con. con must pass CheckInit.
func (con *FieldConfig) Curve() (geom.Curve, error) {
	shape, err := geom.ParseShape(strings.TrimSpace(con.Shape))
	if err != nil {
		return geom.Curve{}, err
	}
	rng, err := geom.ParseParamRange(strings.TrimSpace(con.ParameterRange))
	if err != nil {
		return geom.Curve{}, err
	}
	test, err := geom.ParseSingularity(strings.TrimSpace(con.Singularity))
	if err != nil {
		return geom.Curve{}, err
	}

	var c geom.Curve
	switch shape {
	case geom.Circle:
		c, err = geom.NewCircle(con.Radius, con.Current, con.WireRadius)
	case geom.Coil:
		c, err = geom.NewCoil(
			con.Radius, con.Current, con.Turns, con.Length, con.WireRadius,
		)
	default:
		panic("Impossible")
	}
	if err != nil {
		return geom.Curve{}, err
	}
	return c.WithRange(rng).WithSingularity(test), nil
}

// Params returns the integration parameters described by con.
func (con *FieldConfig) Params() biot.Params {
	return biot.Params{
		AbsError: con.AbsError, RelError: con.RelError,
		Limit: con.Limit, Points: con.Rule,
		ConcurrentAxes: con.ConcurrentAxes,
	}
}

// Grid returns the observation lattice described by con.
func (con *FieldConfig) Grid() grid.Grid {
	return grid.Grid{
		X: grid.Axis{Min: con.XMin, Max: con.XMax, Steps: con.XSteps, Step: con.XStep},
		Y: grid.Axis{Min: con.YMin, Max: con.YMax, Steps: con.YSteps, Step: con.YStep},
		Z: grid.Axis{Min: con.ZMin, Max: con.ZMax, Steps: con.ZSteps, Step: con.ZStep},
	}
}

// PlotterKind returns the parsed Plotter value. con must pass CheckInit.
func (con *FieldConfig) PlotterKind() Plotter {
	p, err := ParsePlotter(strings.TrimSpace(con.Plotter))
	if err != nil {
		panic(err.Error())
	}
	return p
}

// Echo writes every value read from con to w, one per line.
func (con *FieldConfig) Echo(w io.Writer) error {
	shape, _ := geom.ParseShape(strings.TrimSpace(con.Shape))
	lines := []string{
		fmt.Sprintf("shape = %s", shape),
		fmt.Sprintf("radius = %g", con.Radius),
		fmt.Sprintf("current = %g", con.Current),
		fmt.Sprintf("wire_radius = %g", con.WireRadius),
	}
	if shape == geom.Coil {
		lines = append(lines,
			fmt.Sprintf("nr_turns = %d", con.Turns),
			fmt.Sprintf("length = %g", con.Length),
		)
	}

	g := con.Grid()
	for _, ax := range []struct {
		name string
		a    *grid.Axis
	}{{"x", &g.X}, {"y", &g.Y}, {"z", &g.Z}} {
		lines = append(lines,
			fmt.Sprintf("%s_min = %g", ax.name, ax.a.Min),
			fmt.Sprintf("%s_max = %g", ax.name, ax.a.Max),
		)
		if ax.a.Steps > 0 {
			lines = append(lines, fmt.Sprintf("%s_steps = %d", ax.name, ax.a.Steps))
		} else {
			lines = append(lines, fmt.Sprintf("%s_step = %g", ax.name, ax.a.Step))
		}
	}
	lines = append(lines, fmt.Sprintf("max_len = %g", con.MaxLen))

	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "\t%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// Plotter selects how the field is drawn after it is computed.
type Plotter int

const (
	Pyplot Plotter = iota
	PNG
	NoPlot
	EndPlotter
)

var plotterNames = []string{"Pyplot", "PNG", "None"}

func (p Plotter) String() string {
	if p < 0 || p >= EndPlotter {
		panic(fmt.Sprintf("Unrecognized Plotter %d.", int(p)))
	}
	return plotterNames[p]
}

// ParsePlotter returns the Plotter with the given case-insensitive name.
func ParsePlotter(str string) (Plotter, error) {
	for p := Pyplot; p < EndPlotter; p++ {
		if strings.EqualFold(str, p.String()) {
			return p, nil
		}
	}
	return EndPlotter, fmt.Errorf("Unknown plotter '%s'.", str)
}
