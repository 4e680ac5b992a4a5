// Package httpadapter exposes the analysis pipeline over HTTP: a multipart
// upload endpoint plus health, readiness, and metrics routes.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hidromet/rainfall-enso-etl/internal/domain"
	"github.com/hidromet/rainfall-enso-etl/internal/pipeline"
)

// Analyzer runs one analysis session per upload batch.
type Analyzer interface {
	Run(ctx context.Context, in pipeline.Inputs) (*pipeline.Result, error)
	CheckReadiness(ctx context.Context) error
}

// RowSink receives the joined rows of a successful session. Publishing is
// best-effort: a sink failure is logged, never surfaced to the uploader.
type RowSink interface {
	PublishRows(ctx context.Context, result *pipeline.Result) error
}

// Server exposes the upload endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer     *http.Server
	analyzer       Analyzer
	sink           RowSink
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewServer creates the HTTP server. sink may be nil when no downstream
// publishing is configured.
func NewServer(addr string, maxUploadBytes int64, analyzer Analyzer, sink RowSink, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer:       analyzer,
		sink:           sink,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.analyzer.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleAnalyze accepts a multipart batch: required parts "stations",
// "precipitation", and "enso", optional "geometry". Malformed uploads are
// 400, oversized 413, files the pipeline rejects 422.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("upload exceeds size limit"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("malformed multipart request: "+err.Error()))
		return
	}

	var in pipeline.Inputs
	var err error
	if in.Stations, err = formInput(r, "stations"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if in.Precipitation, err = formInput(r, "precipitation"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if in.Enso, err = formInput(r, "enso"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if geom, err := optionalFormInput(r, "geometry"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	} else if geom != nil {
		in.Geometry = geom
	}

	result, err := s.analyzer.Run(r.Context(), in)
	if err != nil {
		status := http.StatusInternalServerError
		if isInputError(err) {
			status = http.StatusUnprocessableEntity
		} else {
			s.logger.Error("analysis failed", "error", err)
		}
		writeJSON(w, status, errorBody(err.Error()))
		return
	}

	if s.sink != nil {
		if err := s.sink.PublishRows(r.Context(), result); err != nil {
			s.logger.Error("row sink publish failed", "session_id", result.SessionID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// isInputError reports whether the failure was caused by the uploaded files
// rather than by the service.
func isInputError(err error) bool {
	var fileErr *domain.FileError
	var schemaErr *domain.SchemaError
	return errors.As(err, &fileErr) || errors.As(err, &schemaErr)
}

func formInput(r *http.Request, field string) (pipeline.Input, error) {
	in, err := optionalFormInput(r, field)
	if err != nil {
		return pipeline.Input{}, err
	}
	if in == nil {
		return pipeline.Input{}, errors.New("missing required file part: " + field)
	}
	return *in, nil
}

func optionalFormInput(r *http.Request, field string) (*pipeline.Input, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("reading file part " + field + ": " + err.Error())
	}
	defer func(f multipart.File) { _ = f.Close() }(f)

	in, err := pipeline.NewInput(hdr.Filename, f)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
