// Package service provides the application service behind the HTTP API
// and the command-line tool.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/endolimit/internal/adapters/report"
	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/internal/domain/subject"
	"github.com/okian/endolimit/pkg/logger"
	"github.com/okian/endolimit/pkg/metrics"
)

// Operation names used in logs, stats and metrics.
const (
	OpLimit       = "limit"
	OpEvaluate    = "evaluate"
	OpReadings    = "readings"
	OpMaxSafeDose = "max_safe_dose"
	OpReport      = "report"
)

// Service implements the calculator operations on top of the limit engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  *subject.Catalog
	reporter *report.Generator
	metrics  *metrics.Manager

	// Configuration
	maxReadings    int
	customSubjects map[string]float64
	reportAuthor   string

	// State
	started   bool
	startedAt time.Time
	counters  map[string]*opCounter

	// Logging
	logger logger.Logger
}

type opCounter struct {
	total  atomic.Int64
	failed atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxReadings caps how many readings one request may carry.
func WithMaxReadings(n int) Option {
	return func(s *Service) {
		if n > 0 && n <= limit.MaxReadings {
			s.maxReadings = n
		}
	}
}

// WithCustomSubjects adds named subjects (weight in kg) to the catalog.
func WithCustomSubjects(subjects map[string]float64) Option {
	return func(s *Service) {
		s.customSubjects = subjects
	}
}

// WithReportAuthor sets the "prepared by" line of generated reports.
func WithReportAuthor(author string) Option {
	return func(s *Service) {
		s.reportAuthor = author
	}
}

// WithMetrics records observations on m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		maxReadings: limit.MaxReadings,
		metrics:     metrics.Default(),
		counters:    make(map[string]*opCounter),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.catalog = subject.NewCatalog(subject.WithExtra(s.customSubjects))
	s.reporter = report.NewGenerator(report.WithAuthor(s.reportAuthor))
	for _, op := range []string{OpLimit, OpEvaluate, OpReadings, OpMaxSafeDose, OpReport} {
		s.counters[op] = &opCounter{}
	}
	return s
}

// Start marks the service ready to serve requests.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true
	s.startedAt = time.Now()
	s.log().Info(ctx, "calculator service started",
		logger.Int("subjects", s.catalog.Len()),
		logger.Int("maxReadings", s.maxReadings),
	)
	return nil
}

// Stop marks the service as stopped. Operations keep working; the engine
// holds no resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.log().Info(context.Background(), "calculator service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops := make(map[string]interface{}, len(s.counters))
	for op, c := range s.counters {
		ops[op] = map[string]int64{
			"total":  c.total.Load(),
			"failed": c.failed.Load(),
		}
	}
	stats := map[string]interface{}{
		"started":     s.started,
		"subjects":    s.catalog.Len(),
		"maxReadings": s.maxReadings,
		"operations":  ops,
	}
	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}

// log returns the configured logger, falling back to the global one.
func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// record updates counters and metrics for one finished operation.
func (s *Service) record(ctx context.Context, op string, err error) {
	c := s.counters[op]
	c.total.Add(1)
	out := Outcome(err)
	if out != metrics.OutcomeOK {
		c.failed.Add(1)
	}
	s.metrics.RecordCalculation(op, out)

	switch out {
	case metrics.OutcomeOK:
	case metrics.OutcomeError:
		s.log().Error(ctx, "operation failed", logger.String("op", op), logger.Error(err))
	default:
		s.log().Debug(ctx, "operation rejected", logger.String("op", op), logger.Error(err))
	}
}

// Outcome classifies err into a metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, limit.ErrUnitMismatch):
		return metrics.OutcomeUnitMismatch
	case IsInvalid(err):
		return metrics.OutcomeInvalidInput
	default:
		return metrics.OutcomeError
	}
}

// IsInvalid reports whether err was caused by caller input.
func IsInvalid(err error) bool {
	return errors.Is(err, limit.ErrInvalidInput) ||
		errors.Is(err, subject.ErrUnknownSubject) ||
		errors.Is(err, limit.ErrReadingSetFull)
}
