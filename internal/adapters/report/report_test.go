package report_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/okian/endolimit/internal/adapters/report"
	"github.com/okian/endolimit/internal/domain/limit"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func mouseInput() report.Input {
	scenario := limit.DosingScenario{
		Subject:    limit.Subject{Name: "Mouse", WeightKg: 0.03},
		DoseAmount: 0.001,
		DoseUnit:   limit.DoseMg,
		Frequency:  limit.Hourly,
		Route:      limit.Standard,
	}
	lim, err := limit.ComputeLimit(scenario)
	if err != nil {
		panic(err)
	}

	set := limit.NewReadingSet()
	for _, v := range []float64{50, 180, 180} {
		if err := set.Add(limit.TestReading{Value: v, Unit: limit.EUPerMg}); err != nil {
			panic(err)
		}
	}
	if err := set.Lock(); err != nil {
		panic(err)
	}
	agg, err := limit.AggregateReadings(set, lim)
	if err != nil {
		panic(err)
	}
	sd, err := limit.ComputeMaxSafeDose(agg.Representative.Value, scenario)
	if err != nil {
		panic(err)
	}
	return report.Input{Sample: "Lot A/7", Scenario: scenario, Limit: lim, Aggregate: &agg, SafeDose: &sd}
}

func TestFileName(t *testing.T) {
	Convey("Given a sample name with punctuation", t, func() {
		name := report.FileName("Lot A/7 (rev.2)", fixedClock())

		Convey("Then unsafe characters become underscores", func() {
			So(name, ShouldEqual, "Endotoxin_Report_Lot_A_7__rev_2__2025-03-14.xlsx")
		})
	})

	Convey("Given no sample name", t, func() {
		So(report.FileName("", fixedClock()), ShouldEqual, "Endotoxin_Report_Sample_2025-03-14.xlsx")
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given a generator with a fixed clock and id", t, func() {
		gen := report.NewGenerator(
			report.WithAuthor("QC Lab"),
			report.WithClock(fixedClock),
			report.WithIDGenerator(func() string { return "rep-1" }),
		)

		Convey("When a report with readings is generated", func() {
			rep, err := gen.Generate(context.Background(), mouseInput())
			So(err, ShouldBeNil)

			Convey("Then the metadata is filled in", func() {
				So(rep.ID, ShouldEqual, "rep-1")
				So(rep.FileName, ShouldEqual, "Endotoxin_Report_Lot_A_7_2025-03-14.xlsx")
				So(rep.GeneratedAt, ShouldEqual, fixedClock())
				So(len(rep.Data), ShouldBeGreaterThan, 0)
			})

			Convey("Then the workbook can be read back", func() {
				f, err := excelize.OpenReader(bytes.NewReader(rep.Data))
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()

				So(f.GetSheetList(), ShouldResemble, []string{report.SheetSummary, report.SheetReadings, report.SheetReference})

				author, _ := f.GetCellValue(report.SheetSummary, "B4")
				So(author, ShouldEqual, "QC Lab")
				limitValue, _ := f.GetCellValue(report.SheetSummary, "B12")
				parsed, err := strconv.ParseFloat(limitValue, 64)
				So(err, ShouldBeNil)
				So(parsed, ShouldAlmostEqual, 150, 1e-6)
				verdict, _ := f.GetCellValue(report.SheetSummary, "B14")
				So(verdict, ShouldEqual, "1 of 3 readings pass")

				rows, err := f.GetRows(report.SheetReadings)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 4)
				So(rows[1][0], ShouldEqual, "Sample 1")
				So(rows[1][5], ShouldEqual, "PASS")
				So(rows[2][5], ShouldEqual, "FAIL")
				So(rows[2][6], ShouldEqual, "Failed - Exceeds limit")

				title, _ := f.GetCellValue(report.SheetReference, "A1")
				So(title, ShouldEqual, "Endotoxin Limits for Drugs in mg/kg")
				doseHeader, _ := f.GetCellValue(report.SheetReference, "B2")
				So(doseHeader, ShouldEqual, "Dose (mg/h)")
				limitHeader, _ := f.GetCellValue(report.SheetReference, "C2")
				So(limitHeader, ShouldEqual, "Limit (EU/mg)")

				refRows, err := f.GetRows(report.SheetReference)
				So(err, ShouldBeNil)
				So(refRows[2][0], ShouldEqual, "Mouse")
				So(refRows[2][7], ShouldEqual, report.ScenarioMarker)
				So(refRows[3], ShouldHaveLength, 7)
			})

			Convey("Then the subject and weight are listed", func() {
				f, err := excelize.OpenReader(bytes.NewReader(rep.Data))
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				subj, _ := f.GetCellValue(report.SheetSummary, "B6")
				So(subj, ShouldEqual, "Mouse")
				weight, _ := f.GetCellValue(report.SheetSummary, "B7")
				So(weight, ShouldEqual, "0.03")
			})
		})

		Convey("When a per-kg dose has no subject", func() {
			scenario := limit.DosingScenario{DoseAmount: 0.5, DoseUnit: limit.DoseMLPerKg, Frequency: limit.Daily, Route: limit.Standard}
			lim, err := limit.ComputeLimit(scenario)
			So(err, ShouldBeNil)
			rep, err := gen.Generate(context.Background(), report.Input{Scenario: scenario, Limit: lim})
			So(err, ShouldBeNil)

			f, err := excelize.OpenReader(bytes.NewReader(rep.Data))
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()

			Convey("Then the subject rows say so instead of showing blanks", func() {
				subj, _ := f.GetCellValue(report.SheetSummary, "B6")
				So(subj, ShouldEqual, "-")
				weight, _ := f.GetCellValue(report.SheetSummary, "B7")
				So(weight, ShouldEqual, "n/a (per-kg dose)")
			})

			Convey("Then the mL table is used and no row is marked", func() {
				doseHeader, _ := f.GetCellValue(report.SheetReference, "B2")
				So(doseHeader, ShouldEqual, "Dose (mL/h)")
				rows, err := f.GetRows(report.SheetReference)
				So(err, ShouldBeNil)
				for _, r := range rows[2:] {
					So(r, ShouldHaveLength, 7)
				}
			})
		})

		Convey("When only a limit is reported", func() {
			in := mouseInput()
			in.Aggregate, in.SafeDose = nil, nil
			rep, err := gen.Generate(context.Background(), in)
			So(err, ShouldBeNil)

			f, err := excelize.OpenReader(bytes.NewReader(rep.Data))
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()
			So(f.GetSheetList(), ShouldResemble, []string{report.SheetSummary, report.SheetReference})
		})

		Convey("When the limit is missing", func() {
			_, err := gen.Generate(context.Background(), report.Input{})
			So(errors.Is(err, report.ErrReport), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := gen.Generate(ctx, mouseInput())
			So(errors.Is(err, report.ErrReport), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a generator with defaults", t, func() {
		rep, err := report.NewGenerator().Generate(context.Background(), mouseInput())
		So(err, ShouldBeNil)
		So(rep.ID, ShouldHaveLength, 36)
	})
}
