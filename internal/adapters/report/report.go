// Package report renders calculation results as XLSX workbooks.
package report

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/okian/endolimit/internal/domain/limit"
	"github.com/okian/endolimit/internal/domain/reference"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the generated workbook.
const (
	SheetSummary   = "Summary"
	SheetReadings  = "Readings"
	SheetReference = "Reference"

	// ScenarioMarker tags the reference row of the reported subject.
	ScenarioMarker = "Scenario subject"

	defaultAuthor  = "Endotoxin Limit Calculator"
	fileDateLayout = "2006-01-02"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]`)

// Input is everything a report shows. Aggregate and SafeDose are optional.
type Input struct {
	Sample    string
	Scenario  limit.DosingScenario
	Limit     limit.LimitResult
	Aggregate *limit.Aggregate
	SafeDose  *limit.SafeDose
}

// Report is a rendered workbook.
type Report struct {
	ID          string
	FileName    string
	GeneratedAt time.Time
	Data        []byte
}

// Generator builds XLSX reports.
type Generator struct {
	author string
	now    func() time.Time
	newID  func() string
}

// NewGenerator creates a generator with default options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		author: defaultAuthor,
		now:    time.Now,
		newID:  defaultID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FileName returns Endotoxin_Report_<sample>_<YYYY-MM-DD>.xlsx with every
// character outside [A-Za-z0-9] in the sample replaced by an underscore.
func FileName(sample string, date time.Time) string {
	if sample == "" {
		sample = "Sample"
	}
	return fmt.Sprintf("Endotoxin_Report_%s_%s.xlsx", unsafeName.ReplaceAllString(sample, "_"), date.Format(fileDateLayout))
}

// Generate renders in into a workbook.
func (g *Generator) Generate(ctx context.Context, in Input) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReport, err)
	}
	if !in.Limit.Unit.Valid() {
		return nil, fmt.Errorf("%w: missing endotoxin limit", ErrReport)
	}

	sample := in.Sample
	if sample == "" && in.Aggregate != nil {
		sample = in.Aggregate.Representative.SampleID
	}

	rep := &Report{ID: g.newID(), GeneratedAt: g.now().UTC()}
	rep.FileName = FileName(sample, rep.GeneratedAt)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("%w: rename sheet: %w", ErrReport, err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: header style: %w", ErrReport, err)
	}

	w := &sheetWriter{f: f, header: header}
	w.summary(rep, sample, g.author, in)
	if in.Aggregate != nil {
		w.readings(in.Aggregate, in.Limit.Unit)
	}
	w.reference(in.Scenario.DoseUnit, in.Scenario.Subject.Name)
	if w.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReport, w.err)
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:     g.author,
		Title:       "Endotoxin Limit Report",
		Identifier:  rep.ID,
		Created:     rep.GeneratedAt.Format(time.RFC3339),
		Description: fmt.Sprintf("Endotoxin limit %.4f %s", in.Limit.EndotoxinLimit, in.Limit.Unit),
	}); err != nil {
		return nil, fmt.Errorf("%w: doc props: %w", ErrReport, err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: write: %w", ErrReport, err)
	}
	rep.Data = buf.Bytes()
	return rep, nil
}

// sheetWriter keeps the first error so rendering code stays linear.
type sheetWriter struct {
	f      *excelize.File
	header int
	err    error
}

func (w *sheetWriter) row(sheet string, row int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("row %d of %s: %w", row, sheet, err)
	}
}

func (w *sheetWriter) headerRow(sheet string, row int, values ...interface{}) {
	w.row(sheet, row, values...)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(sheet, first, last, w.header)
}

func (w *sheetWriter) newSheet(name string, widths ...float64) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = err
		return
	}
	w.widths(name, widths...)
}

func (w *sheetWriter) widths(sheet string, widths ...float64) {
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetColWidth(sheet, col, col, width)
	}
}

func (w *sheetWriter) summary(rep *Report, sample, author string, in Input) {
	s := in.Scenario
	w.widths(SheetSummary, 28, 60)
	w.headerRow(SheetSummary, 1, "Endotoxin Limit Report", "")
	w.row(SheetSummary, 2, "Report ID", rep.ID)
	w.row(SheetSummary, 3, "Generated", rep.GeneratedAt.Format(time.RFC3339))
	w.row(SheetSummary, 4, "Prepared by", author)
	w.row(SheetSummary, 5, "Sample", sample)
	if s.Subject.Name == "" && s.DoseUnit.PerKg() {
		w.row(SheetSummary, 6, "Subject", "-")
		w.row(SheetSummary, 7, "Weight (kg)", "n/a (per-kg dose)")
	} else {
		w.row(SheetSummary, 6, "Subject", s.Subject.Name)
		w.row(SheetSummary, 7, "Weight (kg)", s.Subject.WeightKg)
	}
	w.row(SheetSummary, 8, "Dose", fmt.Sprintf("%g %s %s", s.DoseAmount, s.DoseUnit, s.Frequency.Period()))
	w.row(SheetSummary, 9, "Route", s.Route.String())
	w.row(SheetSummary, 10, "K (EU/kg)", in.Limit.K)
	w.row(SheetSummary, 11, "M", in.Limit.M)
	w.row(SheetSummary, 12, "Endotoxin Limit", in.Limit.EndotoxinLimit)
	w.row(SheetSummary, 13, "Limit Unit", in.Limit.Unit.String())

	next := 14
	if agg := in.Aggregate; agg != nil {
		w.row(SheetSummary, next, "Verdict", verdictText(agg))
		w.row(SheetSummary, next+1, "Worst Sample", fmt.Sprintf("%s (%g %s)", agg.Representative.SampleID, agg.Representative.Value, agg.Representative.Unit))
		next += 2
	}
	if sd := in.SafeDose; sd != nil {
		w.row(SheetSummary, next, "Maximum Safe Dose", fmt.Sprintf("%.3f %s %s", sd.MaxSafeDose, sd.Unit, sd.Frequency.Period()))
		w.row(SheetSummary, next+1, "Recommended Dose", fmt.Sprintf("%.3f %s %s", sd.RecommendedDose, sd.Unit, sd.Frequency.Period()))
		w.row(SheetSummary, next+2, "Explanation", sd.Explanation)
	}
}

func (w *sheetWriter) readings(agg *limit.Aggregate, unit limit.ReadingUnit) {
	w.newSheet(SheetReadings, 18, 14, 10, 14, 14, 12, 28)
	w.headerRow(SheetReadings, 1, "Sample", "Value", "Unit", "% of Limit", "Margin", "Result", "Status")
	for i, ev := range agg.Evaluations {
		result := "PASS"
		if !ev.Passes {
			result = "FAIL"
		}
		w.row(SheetReadings, i+2, ev.SampleID, ev.Value, unit.String(), ev.PercentOfLimit, ev.Margin, result, ev.Status.Message())
	}
}

// reference writes the table matching unit and marks the row of the
// scenario subject, if it has one.
func (w *sheetWriter) reference(unit limit.DoseUnit, subjectName string) {
	var table reference.Table
	for _, t := range reference.Tables() {
		if t.DoseUnit.LimitUnit() == unit.LimitUnit() {
			table = t
		}
	}
	if len(table.Rows) == 0 {
		return
	}

	w.newSheet(SheetReference, 14, 16, 16, 16, 16, 16, 16, 18)
	w.headerRow(SheetReference, 1, table.Title)
	dose := "Dose (" + table.DoseUnit.String() + "/h)"
	limitCol := "Limit (" + table.LimitUnit + ")"
	w.headerRow(SheetReference, 2, "Subject", dose, limitCol, dose, limitCol, dose, limitCol)
	match, ok := reference.Lookup(table.DoseUnit, subjectName)
	for i, r := range table.Rows {
		values := []interface{}{r.Subject}
		for _, p := range r.Points {
			values = append(values, p.Dose, p.Limit)
		}
		if ok && r.Subject == match.Subject {
			values = append(values, ScenarioMarker)
		}
		w.row(SheetReference, i+3, values...)
	}
}

func verdictText(agg *limit.Aggregate) string {
	switch agg.Verdict {
	case limit.AllPass:
		return fmt.Sprintf("All %d readings pass", len(agg.Evaluations))
	case limit.SomePass:
		return fmt.Sprintf("%d of %d readings pass", agg.Passing, len(agg.Evaluations))
	default:
		return fmt.Sprintf("All %d readings fail", len(agg.Evaluations))
	}
}
