// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/endolimit/internal/adapters/report"
	service "github.com/okian/endolimit/internal/app"
	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/internal/domain/reference"
	"github.com/okian/endolimit/pkg/logger"
)

const defaultMaxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ComputeLimit(ctx context.Context, in service.ScenarioInput) (service.LimitReport, error)
	Evaluate(ctx context.Context, in service.ScenarioInput, r service.ReadingInput) (service.EvaluationReport, error)
	EvaluateReadings(ctx context.Context, in service.ScenarioInput, rs []service.ReadingInput) (service.BatchReport, error)
	MaxSafeDose(ctx context.Context, in service.ScenarioInput, observed float64) (service.SafeDoseReport, error)
	Report(ctx context.Context, sample string, in service.ScenarioInput, rs []service.ReadingInput) (*report.Report, error)

	// Read-only catalog data.
	Subjects() []limit.Subject
	ReferenceTables() []reference.Table
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	calcHandler      *CalcHandler
	catalogHandler   *CatalogHandler
	reportHandler    *ReportHandler
	dashboardHandler *DashboardHandler
}

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	maxBodyBytes int64
	logger       logger.Logger
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	codec := &codec{maxBodyBytes: o.maxBodyBytes, logger: o.logger}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider, o.maxBodyBytes),
		calcHandler:      NewCalcHandler(deps, codec),
		catalogHandler:   NewCatalogHandler(deps),
		reportHandler:    NewReportHandler(deps, codec),
		dashboardHandler: NewDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/v1/limit", MetricsMiddleware(s.calcHandler.HandleLimit, "limit"))
	mux.HandleFunc("/api/v1/evaluate", MetricsMiddleware(s.calcHandler.HandleEvaluate, "evaluate"))
	mux.HandleFunc("/api/v1/readings/evaluate", MetricsMiddleware(s.calcHandler.HandleReadings, "readings"))
	mux.HandleFunc("/api/v1/max-safe-dose", MetricsMiddleware(s.calcHandler.HandleMaxSafeDose, "max_safe_dose"))
	mux.HandleFunc("/api/v1/subjects", MetricsMiddleware(s.catalogHandler.HandleSubjects, "subjects"))
	mux.HandleFunc("/api/v1/reference-tables", MetricsMiddleware(s.catalogHandler.HandleReferenceTables, "reference_tables"))
	mux.HandleFunc("/api/v1/report", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// codec decodes bounded JSON bodies and maps service errors to responses.
type codec struct {
	maxBodyBytes int64
	logger       logger.Logger
}

func (c *codec) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	body := http.MaxBytesReader(w, r.Body, c.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, err))
			return false
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return false
	}
	return true
}

func (c *codec) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, limit.ErrUnitMismatch):
		writeError(w, http.StatusBadRequest, "unit_mismatch", err)
	case service.IsInvalid(err):
		writeError(w, http.StatusBadRequest, "invalid_input", err)
	default:
		if c.logger != nil {
			c.logger.Error(ctx, "request failed", logger.Error(Wrap(op, err)))
		}
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
	}
}
