package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phil-mansfield/bsfield/biot"
	"github.com/phil-mansfield/bsfield/geom"
	"github.com/phil-mansfield/bsfield/grid"
	"github.com/phil-mansfield/bsfield/io"
	"github.com/phil-mansfield/bsfield/render"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
	logger    *zap.Logger
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.logger != nil {
		fg.logger.Sync()
		biot.SetLogger(zap.NewNop())
		fg.logger = nil
	}

	if fg.log != nil {
		log.SetOutput(os.Stderr)
		err := fg.log.Close()
		fg.log = nil
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		fg.prof = nil
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

// Fatal closes the files inside FileGroup so that the log and profile survive
// the failure, then exits with err.
func (fg *FileGroup) Fatal(err error) {
	log.Print(err.Error())
	fg.Close()
	log.Fatal(err.Error())
}

func main() {
	var (
		fieldStr, plotStr string
		exampleConfig     string
	)
	vars := map[string]*string{
		"Field":         &fieldStr,
		"Plot":          &plotStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&grid.NumCores, "Threads", runtime.NumCPU(),
		"Number of threads used by the sweep. Default is the number of "+
			"logical cores.",
	)
	flag.StringVar(
		&fieldStr, "Field", "",
		"Configuration file for [Field] mode, which computes the field on a "+
			"grid, writes it and the curve to disk and plots them.",
	)
	flag.StringVar(
		&plotStr, "Plot", "",
		"Configuration file for [Plot] mode, which plots the FieldFile and "+
			"CurveFile written by an earlier [Field] run without recomputing "+
			"them.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. The only accepted argument is 'Field'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Field":
		fieldMain(readConfig(fieldStr))
	case "Plot":
		plotMain(readConfig(plotStr))
	case "ExampleConfig":
		switch exampleConfig {
		case "Field":
			fmt.Println(io.ExampleFieldFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only recognized " +
					"argument is 'Field'.",
			)
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but bsfield "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// readConfig reads a [Field] file and echoes its values. Any invalid value
// is fatal.
func readConfig(fname string) *io.FieldConfig {
	fmt.Println(io.Heading(fmt.Sprintf("Reading %s ...", fname)))
	con, err := io.ReadFieldConfig(fname)
	if err != nil {
		log.Fatal(err.Error())
	}
	if err = con.Echo(os.Stdout); err != nil {
		log.Fatal(err.Error())
	}
	fmt.Print("Done reading.\n\n")
	return con
}

// setupIO opens the log and profile files requested by con.
func setupIO(con *io.FieldConfig) *FileGroup {
	var err error
	fg := new(FileGroup)

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
		fg.logger = newLogger(fg.log, con.Verbose)
		biot.SetLogger(fg.logger)
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}

// newLogger returns a JSON zap logger which writes to f.
func newLogger(f *os.File, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(f), level,
	)
	return zap.New(core)
}

func makeCurve(con *io.FieldConfig) (*geom.Curve, error) {
	c, err := con.Curve()
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// fieldMain computes the field on the configured grid, writes the field and
// curve files, and plots them.
func fieldMain(con *io.FieldConfig) {
	fg := setupIO(con)
	defer fg.Close()

	curve, err := makeCurve(con)
	if err != nil {
		fg.Fatal(err)
	}
	g := con.Grid()
	log.Printf("Computing the field of a %s at %d points with %d threads.\n",
		curve.Shape(), g.Len(), grid.NumCores)

	sum, err := writeField(con.FieldFile, curve, con.Params(), &g)
	if err != nil {
		fg.Fatal(err)
	}
	log.Printf(
		"Wrote %d samples to %s, skipped %d inside the wire. Max |B| = %g T.\n",
		sum.Samples, con.FieldFile, sum.Skipped, sum.MaxField,
	)

	fmt.Println(io.Heading(fmt.Sprintf("Saving the curve to %s ...", con.CurveFile)))
	if err = writeCurve(con.CurveFile, curve.Sample(con.CurveSamples)); err != nil {
		fg.Fatal(err)
	}
	fmt.Print("Done saving.\n\n")

	if con.PlotterKind() == io.NoPlot {
		return
	}
	samples, pts, err := readPlotFiles(con)
	if err != nil {
		fg.Fatal(err)
	}
	frame := render.NewFrame(curve, sum.MaxField, con.MaxLen)
	if err = draw(con, samples, pts, frame); err != nil {
		fg.Fatal(err)
	}
}

// plotMain plots existing field and curve files.
func plotMain(con *io.FieldConfig) {
	fg := setupIO(con)
	defer fg.Close()

	if con.PlotterKind() == io.NoPlot {
		fg.Fatal(fmt.Errorf("[Plot] mode needs a Plotter other than 'None'."))
	}

	curve, err := makeCurve(con)
	if err != nil {
		fg.Fatal(err)
	}
	samples, pts, err := readPlotFiles(con)
	if err != nil {
		fg.Fatal(err)
	}
	frame := render.NewFrame(curve, io.MaxMagnitude(samples), con.MaxLen)
	if err = draw(con, samples, pts, frame); err != nil {
		fg.Fatal(err)
	}
}

func writeField(
	fname string, c *geom.Curve, p biot.Params, g *grid.Grid,
) (grid.Summary, error) {
	f, err := os.Create(fname)
	if err != nil {
		return grid.Summary{}, err
	}
	defer f.Close()

	fw, err := io.NewFieldWriter(f)
	if err != nil {
		return grid.Summary{}, err
	}

	prog := io.NewProgress(os.Stdout)
	prog.Update(0, g.X.Len())
	var sum grid.Summary
	if grid.NumCores > 1 {
		sum, err = grid.ParallelSweep(c, p, g, grid.NumCores, fw, prog.Update)
	} else {
		var s *biot.Solver
		if s, err = biot.NewSolver(c, p); err != nil {
			return grid.Summary{}, err
		}
		sum, err = grid.Sweep(s, g, fw, prog.Update)
	}
	if err != nil {
		fmt.Println()
		fw.Flush()
		return sum, err
	}
	prog.Finish()

	if err = fw.Flush(); err != nil {
		return sum, err
	}
	return sum, f.Close()
}

func writeCurve(fname string, pts []geom.Vec) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = io.WriteCurve(f, pts); err != nil {
		return err
	}
	return f.Close()
}

func readPlotFiles(con *io.FieldConfig) ([]grid.Sample, []geom.Vec, error) {
	samples, err := io.ReadField(con.FieldFile)
	if err != nil {
		return nil, nil, err
	}
	pts, err := io.ReadCurve(con.CurveFile)
	if err != nil {
		return nil, nil, err
	}
	return samples, pts, nil
}

func draw(
	con *io.FieldConfig, samples []grid.Sample, pts []geom.Vec, f render.Frame,
) error {
	switch con.PlotterKind() {
	case io.Pyplot:
		render.Pyplot(samples, pts, f, con.PlotFile)
		render.Execute()
	case io.PNG:
		if err := render.PNG(samples, pts, f, con.PlotFile); err != nil {
			return err
		}
	case io.NoPlot:
		return nil
	default:
		panic("Impossible")
	}
	log.Printf("Plotted %d samples to %s.\n", len(samples), con.PlotFile)
	return nil
}
