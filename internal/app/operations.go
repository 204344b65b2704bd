package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/endolimit/internal/adapters/report"
	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/internal/domain/reference"
	"github.com/okian/endolimit/pkg/logger"
)

// LimitReport is a computed limit with the scenario it came from.
type LimitReport struct {
	Scenario limit.DosingScenario `json:"scenario"`
	Limit    limit.LimitResult    `json:"limit"`
}

// UnitMismatch describes a reading whose unit differs from the limit's.
// The limit is still reported; no verdict is given.
type UnitMismatch struct {
	Reading limit.ReadingUnit `json:"reading_unit"`
	Limit   limit.ReadingUnit `json:"limit_unit"`
	Message string            `json:"message"`
}

// EvaluationReport is the result of checking one reading.
type EvaluationReport struct {
	LimitReport
	Evaluation   *limit.Evaluation `json:"evaluation,omitempty"`
	Message      string            `json:"message,omitempty"`
	UnitMismatch *UnitMismatch     `json:"unit_mismatch,omitempty"`
	SafeDose     *limit.SafeDose   `json:"safe_dose,omitempty"`
}

// BatchReport is the result of checking a set of readings.
type BatchReport struct {
	LimitReport
	Aggregate    *limit.Aggregate `json:"aggregate,omitempty"`
	UnitMismatch *UnitMismatch    `json:"unit_mismatch,omitempty"`
	SafeDose     *limit.SafeDose  `json:"safe_dose,omitempty"`
}

// SafeDoseReport is the result of the inverse computation.
type SafeDoseReport struct {
	Scenario limit.DosingScenario `json:"scenario"`
	Observed float64              `json:"observed"`
	SafeDose limit.SafeDose       `json:"safe_dose"`
}

// ComputeLimit resolves in and computes its endotoxin limit.
func (s *Service) ComputeLimit(ctx context.Context, in ScenarioInput) (lr LimitReport, err error) {
	defer func() { s.record(ctx, OpLimit, err) }()
	return s.computeLimit(ctx, in)
}

func (s *Service) computeLimit(ctx context.Context, in ScenarioInput) (LimitReport, error) {
	scenario, err := s.Resolve(in)
	if err != nil {
		return LimitReport{}, err
	}
	lim, err := limit.ComputeLimit(scenario)
	if err != nil {
		return LimitReport{}, err
	}
	s.metrics.ObserveLimit(lim.Unit.String(), lim.EndotoxinLimit)
	s.log().Debug(ctx, "computed endotoxin limit",
		logger.String("subject", scenario.Subject.Name),
		logger.String("doseUnit", scenario.DoseUnit.String()),
		logger.Float64("m", lim.M),
		logger.Float64("limit", lim.EndotoxinLimit),
	)
	return LimitReport{Scenario: scenario, Limit: lim}, nil
}

// Evaluate computes the limit for in and checks one reading against it.
// A unit mismatch is reported in the result, not as an error.
func (s *Service) Evaluate(ctx context.Context, in ScenarioInput, reading ReadingInput) (EvaluationReport, error) {
	var recorded error
	defer func() { s.record(ctx, OpEvaluate, recorded) }()

	lr, err := s.computeLimit(ctx, in)
	if err != nil {
		recorded = err
		return EvaluationReport{}, err
	}
	r, err := toReading(reading, lr.Limit.Unit)
	if err != nil {
		recorded = err
		return EvaluationReport{}, err
	}

	rep := EvaluationReport{LimitReport: lr}
	ev, err := limit.EvaluateReading(r, lr.Limit)
	if err != nil {
		recorded = err
		if m := mismatch(err); m != nil {
			rep.UnitMismatch = m
			return rep, nil
		}
		return EvaluationReport{}, err
	}

	s.metrics.RecordReadingEvaluated(ev.Status.String())
	rep.Evaluation = &ev
	rep.Message = ev.Status.Message()
	if !ev.Passes {
		sd, err := limit.ComputeMaxSafeDose(r.Value, lr.Scenario)
		if err != nil {
			recorded = err
			return EvaluationReport{}, err
		}
		rep.SafeDose = &sd
	}
	return rep, nil
}

// EvaluateReadings computes the limit for in and aggregates readings
// against it. When the worst reading fails, the safe dose for it is included.
func (s *Service) EvaluateReadings(ctx context.Context, in ScenarioInput, readings []ReadingInput) (BatchReport, error) {
	br, err := s.evaluateReadings(ctx, in, readings)
	s.record(ctx, OpReadings, err)
	if err != nil && br.UnitMismatch == nil {
		return BatchReport{}, err
	}
	return br, nil
}

func (s *Service) evaluateReadings(ctx context.Context, in ScenarioInput, readings []ReadingInput) (BatchReport, error) {
	lr, err := s.computeLimit(ctx, in)
	if err != nil {
		return BatchReport{}, err
	}

	set := limit.NewReadingSet(limit.WithCapacity(s.maxReadings))
	for i, ri := range readings {
		r, err := toReading(ri, lr.Limit.Unit)
		if err != nil {
			return BatchReport{}, fmt.Errorf("reading %d: %w", i+1, err)
		}
		if err := set.Add(r); err != nil {
			return BatchReport{}, fmt.Errorf("reading %d: %w", i+1, err)
		}
	}
	if err := set.Lock(); err != nil {
		return BatchReport{}, err
	}

	br := BatchReport{LimitReport: lr}
	agg, err := limit.AggregateReadings(set, lr.Limit)
	if err != nil {
		if m := mismatch(err); m != nil {
			br.UnitMismatch = m
		}
		return br, err
	}
	for _, ev := range agg.Evaluations {
		s.metrics.RecordReadingEvaluated(ev.Status.String())
	}
	br.Aggregate = &agg

	if worst := agg.Evaluations[agg.RepresentativeIndex]; !worst.Passes {
		sd, err := limit.ComputeMaxSafeDose(worst.Value, lr.Scenario)
		if err != nil {
			return BatchReport{}, err
		}
		br.SafeDose = &sd
	}
	s.log().Debug(ctx, "evaluated readings",
		logger.Int("readings", len(agg.Evaluations)),
		logger.Int("failing", agg.Failing),
		logger.String("verdict", agg.Verdict.String()),
	)
	return br, nil
}

// MaxSafeDose computes the largest dose whose limit still admits observed.
func (s *Service) MaxSafeDose(ctx context.Context, in ScenarioInput, observed float64) (sr SafeDoseReport, err error) {
	defer func() { s.record(ctx, OpMaxSafeDose, err) }()

	scenario, err := s.Resolve(in)
	if err != nil {
		return SafeDoseReport{}, err
	}
	sd, err := limit.ComputeMaxSafeDose(observed, scenario)
	if err != nil {
		return SafeDoseReport{}, err
	}
	return SafeDoseReport{Scenario: scenario, Observed: observed, SafeDose: sd}, nil
}

// Report evaluates readings (which may be empty) and renders the result as
// an XLSX workbook. Unit mismatches are returned as errors.
func (s *Service) Report(ctx context.Context, sample string, in ScenarioInput, readings []ReadingInput) (rep *report.Report, err error) {
	defer func() { s.record(ctx, OpReport, err) }()
	start := time.Now()

	input := report.Input{Sample: sample}
	if len(readings) == 0 {
		lr, err := s.computeLimit(ctx, in)
		if err != nil {
			return nil, err
		}
		input.Scenario, input.Limit = lr.Scenario, lr.Limit
	} else {
		br, err := s.evaluateReadings(ctx, in, readings)
		if err != nil {
			return nil, err
		}
		input.Scenario, input.Limit = br.Scenario, br.Limit
		input.Aggregate, input.SafeDose = br.Aggregate, br.SafeDose
	}

	rep, err = s.reporter.Generate(ctx, input)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReport(float64(time.Since(start).Microseconds()) / 1000)
	s.log().Info(ctx, "report generated",
		logger.String("reportID", rep.ID),
		logger.String("file", rep.FileName),
		logger.Int("bytes", len(rep.Data)),
	)
	return rep, nil
}

// Subjects lists the subject catalog, custom entry last.
func (s *Service) Subjects() []limit.Subject {
	return s.catalog.List()
}

// ReferenceTables returns the published reference tables.
func (s *Service) ReferenceTables() []reference.Table {
	return reference.Tables()
}

func mismatch(err error) *UnitMismatch {
	var ume *limit.UnitMismatchError
	if !errors.As(err, &ume) {
		return nil
	}
	return &UnitMismatch{Reading: ume.Reading, Limit: ume.Limit, Message: ume.Error()}
}
