package calccli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/okian/endolimit/internal/adapters/report"
	service "github.com/okian/endolimit/internal/app"
	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/pkg/logger"
)

// ErrReadingsFailed is returned after a complete run when at least one
// reading exceeds the limit.
var ErrReadingsFailed = errors.New("one or more readings exceed the endotoxin limit")

// Calculator is the set of operations the tool needs. *service.Service
// computes locally and *Client delegates to a server.
type Calculator interface {
	ComputeLimit(ctx context.Context, in service.ScenarioInput) (service.LimitReport, error)
	EvaluateReadings(ctx context.Context, in service.ScenarioInput, readings []service.ReadingInput) (service.BatchReport, error)
	MaxSafeDose(ctx context.Context, in service.ScenarioInput, observed float64) (service.SafeDoseReport, error)
	Report(ctx context.Context, sample string, in service.ScenarioInput, readings []service.ReadingInput) (*report.Report, error)
}

// NewCalculator returns a remote client when cfg names a server and the
// in-process engine otherwise.
func NewCalculator(ctx context.Context, cfg *Config) (Calculator, error) {
	if !cfg.Remote() {
		return service.New(service.WithLogger(logger.Named("engine"))), nil
	}
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("server health check failed: %w", err)
	}
	return client, nil
}

// Run executes one calculation and prints the summary to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) error {
	calc, err := NewCalculator(ctx, cfg)
	if err != nil {
		return err
	}
	return RunWith(ctx, calc, cfg, out)
}

// RunWith executes one calculation with calc.
func RunWith(ctx context.Context, calc Calculator, cfg *Config, out io.Writer) error {
	readings := cfg.ReadingInputs()
	logger.Get().Debug(ctx, "starting calculation",
		logger.String("subject", cfg.Scenario.Subject),
		logger.Float64("dose", cfg.Scenario.Dose),
		logger.String("doseUnit", cfg.Scenario.DoseUnit),
		logger.Int("readings", len(readings)),
		logger.Bool("remote", cfg.Remote()))

	var (
		lr    service.LimitReport
		batch *service.BatchReport
	)
	if len(readings) == 0 {
		res, err := calc.ComputeLimit(ctx, cfg.Scenario)
		if err != nil {
			return fmt.Errorf("compute limit: %w", err)
		}
		lr = res
	} else {
		res, err := calc.EvaluateReadings(ctx, cfg.Scenario, readings)
		if err != nil {
			return fmt.Errorf("evaluate readings: %w", err)
		}
		lr, batch = res.LimitReport, &res
	}

	s := newSummary(out)
	s.limit(lr)
	if batch != nil {
		s.batch(*batch)
	}
	if cfg.WantsSafeDose() {
		sr, err := calc.MaxSafeDose(ctx, cfg.Scenario, cfg.Observed)
		if err != nil {
			return fmt.Errorf("max safe dose: %w", err)
		}
		s.safeDose(sr.Observed, lr.Limit.Unit, sr.SafeDose)
	}
	if err := s.flush(); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if cfg.XLSXPath != "" {
		rep, err := calc.Report(ctx, cfg.Sample, cfg.Scenario, readings)
		if err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
		path, err := saveReport(cfg.XLSXPath, rep)
		if err != nil {
			return err
		}
		logger.Get().Info(ctx, "report saved", logger.String("path", path), logger.String("reportID", rep.ID))
		_, _ = fmt.Fprintf(out, "\nReport written to %s\n", path)
	}

	if batch != nil && batch.Aggregate != nil && batch.Aggregate.Verdict != limit.AllPass {
		return ErrReadingsFailed
	}
	return nil
}

// saveReport writes rep to dest. A dest ending in .xlsx is the file
// itself, anything else is a directory that receives rep.FileName.
func saveReport(dest string, rep *report.Report) (string, error) {
	path := dest
	if !strings.EqualFold(filepath.Ext(dest), ".xlsx") {
		path = filepath.Join(dest, rep.FileName)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, rep.Data, reportPermission); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// summary renders results as aligned text.
type summary struct {
	tw *tabwriter.Writer
}

func newSummary(out io.Writer) *summary {
	return &summary{tw: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
}

func (s *summary) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.tw, format, args...)
}

func (s *summary) flush() error { return s.tw.Flush() }

func (s *summary) limit(lr service.LimitReport) {
	sc := lr.Scenario
	subj := "-"
	if sc.Subject.Name != "" {
		subj = fmt.Sprintf("%s (%g kg)", sc.Subject.Name, sc.Subject.WeightKg)
	}
	s.printf("Subject:\t%s\n", subj)
	s.printf("Dose:\t%g %s %s, %s route\n", sc.DoseAmount, sc.DoseUnit, sc.Frequency, sc.Route)
	s.printf("M:\t%.4g %s/kg/h\n", lr.Limit.M, sc.DoseUnit.Base())
	s.printf("K:\t%g EU/kg\n", lr.Limit.K)
	s.printf("Endotoxin limit:\t%.4g %s\n", lr.Limit.EndotoxinLimit, lr.Limit.Unit)
}

func (s *summary) batch(br service.BatchReport) {
	if br.UnitMismatch != nil {
		s.printf("\nUnit mismatch:\t%s\n", br.UnitMismatch.Message)
		return
	}
	if br.Aggregate == nil {
		return
	}
	agg := br.Aggregate
	s.printf("\nSAMPLE\tVALUE\t%% OF LIMIT\tMARGIN\tRESULT\tSTATUS\n")
	for _, ev := range agg.Evaluations {
		result := "PASS"
		if !ev.Passes {
			result = "FAIL"
		}
		s.printf("%s\t%g\t%.1f%%\t%.4g\t%s\t%s\n",
			ev.SampleID, ev.Value, ev.PercentOfLimit, ev.Margin, result, ev.Status.Message())
	}
	s.printf("\nVerdict:\t%d of %d readings pass (%s)\n", agg.Passing, len(agg.Evaluations), agg.Verdict)
	s.printf("Worst reading:\t%s (%g %s)\n", agg.Representative.SampleID, agg.Representative.Value, agg.Representative.Unit)
	if br.SafeDose != nil {
		s.safeDose(agg.Representative.Value, br.Limit.Unit, *br.SafeDose)
	}
}

func (s *summary) safeDose(observed float64, unit limit.ReadingUnit, sd limit.SafeDose) {
	s.printf("\nObserved level:\t%g %s\n", observed, unit)
	s.printf("Max safe dose:\t%.4g %s %s\n", sd.MaxSafeDose, sd.Unit, sd.Frequency.Period())
	s.printf("Recommended dose:\t%.4g %s %s (%.0f%% of maximum)\n",
		sd.RecommendedDose, sd.Unit, sd.Frequency.Period(), limit.SafetyFactor*percentScale)
	s.printf("%s\n", sd.Explanation)
}
