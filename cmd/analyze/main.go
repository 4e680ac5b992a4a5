// Command analyze runs one analysis session from local files and prints the
// result as JSON, for batch use and for inspecting a dataset without the
// service running.
//
// Usage:
//
//	go run ./cmd/analyze \
//	  -stations estaciones.csv \
//	  -precip precipitacion.csv \
//	  -enso oni.csv \
//	  [-geometry estaciones.zip] \
//	  [-grid 2020-01] [-grid-size 40x40] \
//	  [-out result.json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/observability"
	"github.com/hidromet/rainfall-enso-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run() error {
	stationsPath := flag.String("stations", "", "station registry CSV")
	precipPath := flag.String("precip", "", "wide precipitation CSV")
	ensoPath := flag.String("enso", "", "monthly ENSO/ONI CSV")
	geometryPath := flag.String("geometry", "", "zipped shapefile archive (optional)")
	delimiter := flag.String("enso-delimiter", "auto", `ENSO delimiter: auto, ",", ";", or tab`)
	gridMonth := flag.String("grid", "", "interpolate a surface for this month (YYYY-MM)")
	gridSize := flag.String("grid-size", "40x40", "surface grid size as NXxNY")
	warm := flag.Float64("warm-threshold", 0.5, "ONI anomaly at or above which a month is warm")
	cold := flag.Float64("cold-threshold", -0.5, "ONI anomaly at or below which a month is cold")
	outPath := flag.String("out", "", "write the JSON result here instead of stdout")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	if *stationsPath == "" || *precipPath == "" || *ensoPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -stations, -precip, -enso")
	}

	opts := pipeline.Options{
		Thresholds: domain.PhaseThresholds{Warm: *warm, Cold: *cold},
	}
	var err error
	if opts.EnsoDelimiter, err = parseDelimiter(*delimiter); err != nil {
		return err
	}
	if *gridMonth != "" {
		if opts.Grid, err = parseGridRequest(*gridMonth, *gridSize); err != nil {
			return err
		}
	}

	in, err := readInputs(*stationsPath, *precipPath, *ensoPath, *geometryPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = observability.NewLogger("debug", "text")
	}

	p := pipeline.New(logger, observability.NewMetrics(), 1, opts)
	result, err := p.Run(context.Background(), in)
	if err != nil {
		return err
	}

	if result.GeometryIssue != "" {
		fmt.Fprintln(os.Stderr, "warning: geometry skipped:", result.GeometryIssue)
	}
	if result.GridIssue != "" {
		fmt.Fprintln(os.Stderr, "warning: surface skipped:", result.GridIssue)
	}

	return writeResult(*outPath, result)
}

func readInputs(stations, precip, enso, geometry string) (pipeline.Inputs, error) {
	var in pipeline.Inputs
	var err error
	if in.Stations, err = readInput(stations); err != nil {
		return in, err
	}
	if in.Precipitation, err = readInput(precip); err != nil {
		return in, err
	}
	if in.Enso, err = readInput(enso); err != nil {
		return in, err
	}
	if geometry != "" {
		geom, err := readInput(geometry)
		if err != nil {
			return in, err
		}
		in.Geometry = &geom
	}
	return in, nil
}

func readInput(path string) (pipeline.Input, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.Input{Name: path, Content: content}, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "auto":
		return 0, nil
	case ",":
		return ',', nil
	case ";":
		return ';', nil
	case "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("invalid -enso-delimiter %q", s)
	}
}

func parseGridRequest(month, size string) (*pipeline.GridRequest, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid -grid %q (want YYYY-MM)", month)
	}

	var nx, ny int
	if _, err := fmt.Sscanf(strings.ToLower(size), "%dx%d", &nx, &ny); err != nil || nx < 2 || ny < 2 {
		return nil, fmt.Errorf("invalid -grid-size %q (want NXxNY, each at least 2)", size)
	}

	return &pipeline.GridRequest{Year: t.Year(), Month: t.Month(), NX: nx, NY: ny}, nil
}

func writeResult(path string, result *pipeline.Result) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
