// Package pipeline orchestrates one analysis session: load the uploaded
// files, normalize schemas, reshape and spatially align, join, and compute
// statistics. Data flows strictly forward; all state lives in the session,
// never in package globals.
package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/interp"
	"github.com/hidromet/rainfall-enso-etl/internal/join"
	"github.com/hidromet/rainfall-enso-etl/internal/loader"
	"github.com/hidromet/rainfall-enso-etl/internal/observability"
	"github.com/hidromet/rainfall-enso-etl/internal/reshape"
	"github.com/hidromet/rainfall-enso-etl/internal/spatial"
	"github.com/hidromet/rainfall-enso-etl/internal/stats"
)

// Input is one uploaded file, fully in memory. Session inputs are bounded
// by the upload size limit enforced at the transport layer.
type Input struct {
	Name    string
	Content []byte
}

// NewInput drains a reader into an Input.
func NewInput(name string, r io.Reader) (Input, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Input{}, &domain.FileError{Name: name, Err: err}
	}
	return Input{Name: name, Content: content}, nil
}

// Inputs is one session's upload batch. Geometry is optional: without it the
// session still produces the full non-spatial analysis.
type Inputs struct {
	Stations      Input
	Precipitation Input
	Enso          Input
	Geometry      *Input
}

// GridRequest asks for an interpolated precipitation surface for one
// calendar month.
type GridRequest struct {
	Year  int
	Month time.Month
	NX    int
	NY    int
}

// Options tune a session. Zero values select the canonical defaults.
type Options struct {
	// EnsoDelimiter forces the ENSO file separator; 0 auto-detects.
	EnsoDelimiter rune
	// Thresholds for phase derivation; zero value means the canonical ±0.5.
	Thresholds domain.PhaseThresholds
	// SourceEPSG assigned to geometry sources that declare no CRS.
	SourceEPSG int
	// Grid, when set, requests an interpolated surface.
	Grid *GridRequest
}

// Correlation statuses reported alongside the coefficient.
const (
	CorrelationOK           = "ok"
	CorrelationInsufficient = "insufficient_data"
	CorrelationUndefined    = "undefined"
)

// CorrelationOutcome is either a coefficient or an explicit sentinel; a
// degenerate statistic never blocks the rest of the result.
type CorrelationOutcome struct {
	Status  string                   `json:"status"`
	Result  *stats.CorrelationResult `json:"result,omitempty"`
	Message string                   `json:"message,omitempty"`
}

// Result is everything a session produces for the presentation layer.
type Result struct {
	SessionID   string    `json:"session_id"`
	ProcessedAt time.Time `json:"processed_at"`

	Stations     []domain.StationRecord            `json:"stations"`
	Observations []domain.PrecipitationObservation `json:"-"`
	Rows         []domain.AnalysisRow              `json:"rows,omitempty"`
	Geometries   []domain.StationGeometry          `json:"geometries,omitempty"`

	// GeometryIssue records a non-nil geometry failure: fatal for spatial
	// outputs, harmless for the rest of the analysis.
	GeometryIssue string `json:"geometry_issue,omitempty"`

	JoinStats   join.Stats         `json:"join_stats"`
	PhaseMeans  []stats.PhaseMean  `json:"phase_means"`
	Correlation CorrelationOutcome `json:"correlation"`

	Grid      *interp.Grid `json:"grid,omitempty"`
	GridIssue string       `json:"grid_issue,omitempty"`
}

// Pipeline runs analysis sessions. Safe for concurrent use; the parse cache
// is the only shared state and is internally synchronized.
type Pipeline struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   *parseCache
	opts    Options
}

// New creates a Pipeline with the given observability and session options.
func New(logger *slog.Logger, metrics *observability.Metrics, cacheSize int, opts Options) *Pipeline {
	if opts.Thresholds == (domain.PhaseThresholds{}) {
		opts.Thresholds = domain.DefaultThresholds()
	}
	if opts.SourceEPSG == 0 {
		opts.SourceEPSG = spatial.EPSGOrigenNacional
	}
	return &Pipeline{
		logger:  logger,
		metrics: metrics,
		cache:   newParseCache(cacheSize),
		opts:    opts,
	}
}

// CheckReadiness reports whether the pipeline can serve sessions. An upload
// pipeline has no warm-up phase, so a constructed pipeline is ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error { return nil }

// Run executes one session start to finish. FileUnreadable and
// SchemaMismatch failures abort the session; geometry failures are recorded
// in the result and only suppress spatial outputs.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	start := time.Now()
	result, err := p.run(ctx, in)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.metrics.SessionsTotal.WithLabelValues(outcome).Inc()
	if err == nil {
		p.metrics.SessionDuration.Observe(time.Since(start).Seconds())
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context, in Inputs) (*Result, error) {
	result := &Result{
		SessionID:   sessionID(in),
		ProcessedAt: domain.Now(),
	}

	stations, err := p.loadStations(in.Stations)
	if err != nil {
		return nil, p.loadFailure(err)
	}
	result.Stations = stations

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obs, err := p.loadObservations(in.Precipitation)
	if err != nil {
		return nil, p.loadFailure(err)
	}
	result.Observations = obs
	p.metrics.RowsReshaped.Add(float64(len(obs)))

	enso, err := p.loadEnso(in.Enso)
	if err != nil {
		return nil, p.loadFailure(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Spatial alignment runs independently of the tabular path and its
	// failure never blocks the time-series analysis.
	if in.Geometry != nil {
		geoms, unmatched, err := p.loadGeometry(*in.Geometry, stations)
		if err != nil {
			p.logger.Warn("geometry source unusable, continuing without spatial outputs",
				"archive", in.Geometry.Name, "error", err)
			p.metrics.LoadErrors.WithLabelValues("geometry").Inc()
			result.GeometryIssue = err.Error()
		} else {
			result.Geometries = geoms
			result.JoinStats.GeometryUnmatched = unmatched
			p.metrics.JoinDroppedRows.WithLabelValues("geometry").Add(float64(unmatched))
		}
	}

	rows, droppedNoStation := join.StationJoin(obs, stations)
	result.JoinStats.DroppedNoStation = droppedNoStation
	p.metrics.JoinDroppedRows.WithLabelValues("station").Add(float64(droppedNoStation))
	if droppedNoStation > 0 {
		p.logger.Warn("observations dropped: station not in registry", "count", droppedNoStation)
	}

	rows, withoutEnso := join.ClimateJoin(rows, enso)
	result.Rows = rows
	result.JoinStats.Matched = len(rows)
	result.JoinStats.WithoutEnso = withoutEnso
	p.metrics.JoinDroppedRows.WithLabelValues("climate").Add(float64(withoutEnso))

	result.PhaseMeans = stats.MeanByPhase(rows)
	result.Correlation = p.correlate(rows)

	if p.opts.Grid != nil {
		grid, err := p.surface(rows, *p.opts.Grid)
		if err != nil {
			p.logger.Warn("surface interpolation failed", "error", err)
			result.GridIssue = err.Error()
		} else {
			result.Grid = grid
		}
	}

	p.logger.Info("session complete",
		"session_id", result.SessionID,
		"stations", len(result.Stations),
		"observations", len(result.Observations),
		"rows", len(result.Rows),
		"dropped_no_station", droppedNoStation,
		"without_enso", withoutEnso,
	)
	return result, nil
}

func (p *Pipeline) correlate(rows []domain.AnalysisRow) CorrelationOutcome {
	result, err := stats.Correlate(rows)
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		p.metrics.DegenerateStatistics.WithLabelValues("insufficient").Inc()
		return CorrelationOutcome{
			Status:  CorrelationInsufficient,
			Message: "fewer than two paired (anomaly, precipitation) observations",
		}
	case errors.Is(err, domain.ErrZeroVariance):
		p.metrics.DegenerateStatistics.WithLabelValues("undefined").Inc()
		return CorrelationOutcome{
			Status:  CorrelationUndefined,
			Message: "one of the paired series is constant",
		}
	case err != nil:
		p.metrics.DegenerateStatistics.WithLabelValues("undefined").Inc()
		return CorrelationOutcome{Status: CorrelationUndefined, Message: err.Error()}
	default:
		return CorrelationOutcome{Status: CorrelationOK, Result: &result}
	}
}

// surface builds the interpolation sample set for the requested month from
// joined rows and runs the kriging-then-IDW policy.
func (p *Pipeline) surface(rows []domain.AnalysisRow, req GridRequest) (*interp.Grid, error) {
	var samples []interp.Sample
	for _, r := range rows {
		if r.Year != req.Year || r.Month != req.Month || r.ValueMM == nil {
			continue
		}
		samples = append(samples, interp.Sample{Lon: r.Longitude, Lat: r.Latitude, Value: *r.ValueMM})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no observations for %04d-%02d", req.Year, int(req.Month))
	}

	spec := boundingSpec(samples, req)
	return interp.Surface(samples, spec)
}

// boundingSpec pads the sample bounding box by 10% so gauges do not sit on
// the grid edge.
func boundingSpec(samples []interp.Sample, req GridRequest) interp.GridSpec {
	minLon, minLat := samples[0].Lon, samples[0].Lat
	maxLon, maxLat := minLon, minLat
	for _, s := range samples[1:] {
		if s.Lon < minLon {
			minLon = s.Lon
		}
		if s.Lon > maxLon {
			maxLon = s.Lon
		}
		if s.Lat < minLat {
			minLat = s.Lat
		}
		if s.Lat > maxLat {
			maxLat = s.Lat
		}
	}
	padLon := (maxLon - minLon) * 0.1
	padLat := (maxLat - minLat) * 0.1
	if padLon == 0 {
		padLon = 0.1
	}
	if padLat == 0 {
		padLat = 0.1
	}

	nx, ny := req.NX, req.NY
	if nx < 2 {
		nx = 40
	}
	if ny < 2 {
		ny = 40
	}
	return interp.GridSpec{
		MinLon: minLon - padLon, MaxLon: maxLon + padLon,
		MinLat: minLat - padLat, MaxLat: maxLat + padLat,
		NX: nx, NY: ny,
	}
}

// loadFailure classifies a fatal load error for metrics before returning it.
func (p *Pipeline) loadFailure(err error) error {
	var schemaErr *domain.SchemaError
	switch {
	case errors.Is(err, domain.ErrEmptyFile):
		p.metrics.LoadErrors.WithLabelValues("empty").Inc()
	case errors.Is(err, domain.ErrUndecodable):
		p.metrics.LoadErrors.WithLabelValues("undecodable").Inc()
	case errors.As(err, &schemaErr):
		p.metrics.LoadErrors.WithLabelValues("schema").Inc()
	default:
		p.metrics.LoadErrors.WithLabelValues("malformed").Inc()
	}
	p.logger.Error("session aborted on load failure", "error", err)
	return err
}

// loadGeometry extracts, parses, reprojects, and links the geometry source.
func (p *Pipeline) loadGeometry(in Input, stations []domain.StationRecord) ([]domain.StationGeometry, int, error) {
	shpPath, cleanup, err := loader.ExtractShapefile(in.Name, bytes.NewReader(in.Content))
	defer cleanup()
	if err != nil {
		return nil, 0, err
	}

	geoms, err := spatial.LoadShapefile(shpPath, spatial.Options{DefaultSourceEPSG: p.opts.SourceEPSG})
	if err != nil {
		return nil, 0, err
	}
	p.metrics.FilesLoaded.WithLabelValues("geometry").Inc()

	linked, unmatched := spatial.MatchStations(geoms, stations)
	if unmatched > 0 {
		p.logger.Warn("geometry records without a registry station", "count", unmatched)
	}
	return linked, unmatched, nil
}

// loadObservations parses and melts the wide precipitation table.
func (p *Pipeline) loadObservations(in Input) ([]domain.PrecipitationObservation, error) {
	obs, err := cached(p, "precipitation", in, 0, func(in Input) ([]domain.PrecipitationObservation, error) {
		df, err := loader.ParseTable(in.Name, in.Content, loader.Options{})
		if err != nil {
			return nil, err
		}
		melted, err := reshape.Melt(df)
		if err != nil {
			return nil, &domain.FileError{Name: in.Name, Err: err}
		}
		return melted, nil
	})
	if err != nil {
		return nil, err
	}
	p.metrics.FilesLoaded.WithLabelValues("precipitation").Inc()
	return obs, nil
}

// sessionID derives a deterministic short id from the upload contents, so
// re-running the same batch is visibly the same session in logs.
func sessionID(in Inputs) string {
	h := sha256.New()
	h.Write(in.Stations.Content)
	h.Write(in.Precipitation.Content)
	h.Write(in.Enso.Content)
	if in.Geometry != nil {
		h.Write(in.Geometry.Content)
	}
	return "ses-" + hex.EncodeToString(h.Sum(nil)[:8])
}
